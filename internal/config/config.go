// Package config models all hook behavior that used to live in ambient
// process environment as one explicit value, so both lifecycle stages can be
// exercised in tests without environment mutation.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/joehays/mars-user-plugin/internal/constants"
	"github.com/joehays/mars-user-plugin/internal/symlink"
)

// Config carries everything the two lifecycle stages need.
type Config struct {
	// PluginRoot is the plugin checkout (templates, mounted-files, manifests).
	PluginRoot string

	// RepoRoot is the repo checkout that receives the generated override.
	RepoRoot string

	// HostUID is the UID of the host user the container maps onto.
	HostUID int

	// HostSubGID is the start of the host user's subordinate GID range.
	HostSubGID int

	// SharedGroup is the in-container group granted access to shared mounts.
	SharedGroup string

	// CustomVolumes gates the whole template sync; when false pre-up is a no-op.
	CustomVolumes bool

	// Pairs are the statically declared symlinks for container-startup.
	Pairs []symlink.Pair
}

// FromEnv builds a Config from the MARS_* environment variables.
// Unset numeric variables are left at zero; callers validate what their
// stage actually requires.
func FromEnv() (Config, error) {
	cfg := Config{
		PluginRoot:  os.Getenv(constants.EnvPluginRoot),
		RepoRoot:    os.Getenv(constants.EnvRepoRoot),
		SharedGroup: os.Getenv(constants.EnvSharedGroup),
	}
	if cfg.SharedGroup == "" {
		cfg.SharedGroup = constants.DefaultSharedGroup
	}

	var err error
	if cfg.HostUID, err = intEnv(constants.EnvHostUID); err != nil {
		return Config{}, err
	}
	if cfg.HostSubGID, err = intEnv(constants.EnvHostSubGID); err != nil {
		return Config{}, err
	}

	switch v := os.Getenv(constants.EnvCustomVolumes); v {
	case "", "false", "0", "no":
		cfg.CustomVolumes = false
	case "true", "1", "yes":
		cfg.CustomVolumes = true
	default:
		return Config{}, fmt.Errorf("invalid %s value: %q", constants.EnvCustomVolumes, v)
	}

	return cfg, nil
}

func intEnv(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, v, err)
	}
	return n, nil
}

// fileConfig is the on-disk shape of plugin.yaml.
type fileConfig struct {
	SharedGroup string `yaml:"shared_group"`
	Symlinks    []struct {
		Source string `yaml:"source"`
		Target string `yaml:"target"`
	} `yaml:"symlinks"`
}

// LoadFile overlays the optional plugin.yaml at path onto cfg.
// A missing file is not an error; a malformed one is.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read plugin config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.SharedGroup != "" && os.Getenv(constants.EnvSharedGroup) == "" {
		cfg.SharedGroup = fc.SharedGroup
	}
	for _, s := range fc.Symlinks {
		if s.Source == "" || s.Target == "" {
			return Config{}, fmt.Errorf("symlink entry in %s missing source or target", path)
		}
		cfg.Pairs = append(cfg.Pairs, symlink.Pair{Source: s.Source, Target: s.Target})
	}
	return cfg, nil
}
