// Package state inspects the artifacts both lifecycle stages manage, for the
// status command. Detection is read-only.
package state

import (
	"os"

	"github.com/joehays/mars-user-plugin/internal/docker"
	"github.com/joehays/mars-user-plugin/internal/symlink"
)

// PairState is the classification of one declared symlink pair.
type PairState struct {
	Pair  symlink.Pair
	State symlink.State
}

// HookState is everything the status command reports.
type HookState struct {
	TemplateExists bool
	OverrideExists bool

	// OverrideStale means the template was modified after the override was
	// last generated, so the next pre-up will copy.
	OverrideStale bool

	Pairs []PairState

	ContainerName    string
	ContainerExists  bool
	ContainerRunning bool
}

// Detector checks the state of the hook-managed environment.
type Detector struct {
	templatePath  string
	overridePath  string
	pairs         []symlink.Pair
	containerName string
	queryDocker   bool
}

// NewDetector creates a state detector. With queryDocker false the container
// fields stay zero, keeping Detect usable where no docker CLI exists.
func NewDetector(templatePath, overridePath string, pairs []symlink.Pair, containerName string, queryDocker bool) *Detector {
	return &Detector{
		templatePath:  templatePath,
		overridePath:  overridePath,
		pairs:         pairs,
		containerName: containerName,
		queryDocker:   queryDocker,
	}
}

// Detect checks every aspect of the environment state.
func (d *Detector) Detect() *HookState {
	st := &HookState{ContainerName: d.containerName}

	tmplInfo, err := os.Stat(d.templatePath)
	st.TemplateExists = err == nil

	ovrInfo, err := os.Stat(d.overridePath)
	st.OverrideExists = err == nil

	if st.TemplateExists {
		st.OverrideStale = !st.OverrideExists || tmplInfo.ModTime().After(ovrInfo.ModTime())
	}

	for _, p := range d.pairs {
		st.Pairs = append(st.Pairs, PairState{Pair: p, State: symlink.Inspect(p)})
	}

	if d.queryDocker {
		st.ContainerExists = docker.ContainerExists(d.containerName)
		if st.ContainerExists {
			st.ContainerRunning = docker.IsRunning(d.containerName)
		}
	}

	return st
}
