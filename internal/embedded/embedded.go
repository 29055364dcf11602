// Package embedded carries the starter override template shipped with the
// binary, so a fresh plugin root can be initialized without a checkout.
package embedded

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joehays/mars-user-plugin/internal/constants"
)

//go:embed docker-compose.override.yml.template
var OverrideTemplate []byte

// WriteDefaultTemplate writes the starter template to path, creating parent
// directories as needed. It reports whether a file was written; an existing
// template is never overwritten.
func WriteDefaultTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return false, fmt.Errorf("failed to create template directory: %w", err)
	}
	if err := os.WriteFile(path, OverrideTemplate, 0644); err != nil {
		return false, fmt.Errorf("failed to write default template: %w", err)
	}
	return true, nil
}
