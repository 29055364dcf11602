// Package docker wraps the handful of docker CLI queries the status command
// needs. Container lifecycle itself is the dev environment's compose layer,
// not ours.
package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Timeout for docker CLI queries.
const commandTimeout = 10 * time.Second

// DaemonRunning reports whether the docker daemon answers.
func DaemonRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// ContainerExists reports whether a container with the given name exists,
// running or stopped.
func ContainerExists(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "ps", "-a", "-q", "-f", "name=^"+name+"$")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsRunning reports whether the named container is currently running.
func IsRunning(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "inspect", "-f", "{{.State.Running}}", name)
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) == "true"
}

// Status summarizes a container's state for display.
func Status(name string) string {
	switch {
	case !ContainerExists(name):
		return fmt.Sprintf("container %s not created", name)
	case IsRunning(name):
		return fmt.Sprintf("container %s running", name)
	default:
		return fmt.Sprintf("container %s stopped", name)
	}
}
