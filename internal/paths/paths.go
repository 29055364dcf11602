// Package paths resolves the plugin's file locations from the two configured
// roots. All resolution is pure path arithmetic; existence checks belong to
// the callers.
package paths

import (
	"fmt"
	"path/filepath"

	"github.com/joehays/mars-user-plugin/internal/constants"
)

// Resolver maps the plugin and repo roots to the concrete files the hooks
// read and write.
type Resolver struct {
	pluginRoot string
	repoRoot   string
}

// MissingRootError reports an unset root with the variable that supplies it.
type MissingRootError struct {
	Name   string
	EnvVar string
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("%s is not set; export %s or pass the matching flag", e.Name, e.EnvVar)
}

// NewResolver creates a Resolver. Both roots must be non-empty.
func NewResolver(pluginRoot, repoRoot string) (*Resolver, error) {
	if pluginRoot == "" {
		return nil, &MissingRootError{Name: "plugin root", EnvVar: constants.EnvPluginRoot}
	}
	if repoRoot == "" {
		return nil, &MissingRootError{Name: "repo root", EnvVar: constants.EnvRepoRoot}
	}
	return &Resolver{pluginRoot: pluginRoot, repoRoot: repoRoot}, nil
}

// NewPluginResolver creates a Resolver for container-side commands, which
// only ever read plugin-root paths. Override must not be called on it.
func NewPluginResolver(pluginRoot string) (*Resolver, error) {
	if pluginRoot == "" {
		return nil, &MissingRootError{Name: "plugin root", EnvVar: constants.EnvPluginRoot}
	}
	return &Resolver{pluginRoot: pluginRoot}, nil
}

// Template returns the override template path inside the plugin root.
func (r *Resolver) Template() string {
	return filepath.Join(r.pluginRoot, filepath.FromSlash(constants.TemplateRelPath))
}

// Override returns the generated override path inside the repo root.
func (r *Resolver) Override() string {
	return filepath.Join(r.repoRoot, filepath.FromSlash(constants.OverrideRelPath))
}

// MountedFiles returns the auto-mount source tree inside the plugin root.
func (r *Resolver) MountedFiles() string {
	return filepath.Join(r.pluginRoot, constants.MountedFilesDir)
}

// Manifest returns the generated symlink manifest path inside the plugin root.
func (r *Resolver) Manifest() string {
	return filepath.Join(r.pluginRoot, filepath.FromSlash(constants.ManifestRelPath))
}

// PluginConfig returns the optional plugin.yaml path inside the plugin root.
func (r *Resolver) PluginConfig() string {
	return filepath.Join(r.pluginRoot, constants.PluginConfigFile)
}
