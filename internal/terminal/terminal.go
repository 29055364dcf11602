// Package terminal handles the small amount of interactive input the hooks
// ever need.
package terminal

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// Confirm asks a yes/no question and returns the answer. Non-interactive
// invocations get the default without prompting.
func Confirm(question string, defaultYes bool) (bool, error) {
	if !IsTerminal() {
		return defaultYes, nil
	}

	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s [%s]: ", question, hint)
		input, err := reader.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Println("Please answer y or n")
		}
	}
}
