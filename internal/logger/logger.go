// Package logger provides the leveled, colorized output shared by all hook
// commands. Levels print to stdout/stderr with a colored label; color is
// suppressed automatically when output is not a terminal.
package logger

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	infoLabel = color.New(color.FgGreen).Sprint("[INFO]")
	warnLabel = color.New(color.FgYellow).Sprint("[WARN]")
	errLabel  = color.New(color.FgRed).Sprint("[EROR]")
)

// Info logs an informational message to stdout.
func Info(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "%s %s\n", infoLabel, fmt.Sprintf(format, args...))
}

// Warn logs a warning to stderr.
func Warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnLabel, fmt.Sprintf(format, args...))
}

// Error logs an error to stderr.
func Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errLabel, fmt.Sprintf(format, args...))
}
