package automount

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joehays/mars-user-plugin/internal/constants"
	"github.com/joehays/mars-user-plugin/internal/symlink"
)

// manifest is the on-disk shape of the generated symlink manifest handed
// from pre-up to container-startup.
type manifest struct {
	Symlinks []symlink.Pair `yaml:"symlinks"`
}

// WriteManifest persists the discovered pairs for the container-startup
// stage. With no pairs any stale manifest from a previous run is removed.
func WriteManifest(path string, pairs []symlink.Pair) error {
	if len(pairs) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale manifest: %w", err)
		}
		return nil
	}

	data, err := yaml.Marshal(manifest{Symlinks: pairs})
	if err != nil {
		return fmt.Errorf("failed to marshal symlink manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, constants.ManifestPermissions); err != nil {
		return fmt.Errorf("failed to write symlink manifest: %w", err)
	}
	return nil
}

// ReadManifest loads pairs written by a previous pre-up run. A missing
// manifest is an empty result, not an error.
func ReadManifest(path string) ([]symlink.Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read symlink manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse symlink manifest %s: %w", path, err)
	}
	return m.Symlinks, nil
}
