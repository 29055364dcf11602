// Package platform checks the preconditions each lifecycle stage runs under.
package platform

import (
	"fmt"
	"os"
	"runtime"
)

// IsLinux returns true when running on Linux.
func IsLinux() bool {
	return runtime.GOOS == "linux"
}

// IsRoot returns true when the process runs with effective UID 0.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// RequireContainerStage verifies the container-startup preconditions: a
// Linux system and root privileges for the group and permission fixes.
func RequireContainerStage() error {
	if !IsLinux() {
		return fmt.Errorf("container-startup only runs inside a Linux container (got %s)", runtime.GOOS)
	}
	if !IsRoot() {
		return fmt.Errorf("container-startup must run as root to manage groups and permissions")
	}
	return nil
}
