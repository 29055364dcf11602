// Package templatesync keeps the generated docker-compose override in step
// with its template without clobbering manual edits. The override is opaque
// bytes here; the compose layer that consumes it is a separate concern.
package templatesync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joehays/mars-user-plugin/internal/logger"
)

// Outcome reports what a Sync run did.
type Outcome int

const (
	// Copied means the template was written to the override path.
	Copied Outcome = iota

	// SkippedNewer means the override carries manual edits newer than the
	// template and was left alone.
	SkippedNewer

	// SkippedMissingTemplate means no template exists; custom volumes are
	// simply not configured.
	SkippedMissingTemplate

	// SkippedDisabled means the custom-volumes flag is off; no filesystem
	// access was performed.
	SkippedDisabled
)

func (o Outcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case SkippedNewer:
		return "skipped (override newer than template)"
	case SkippedMissingTemplate:
		return "skipped (no template)"
	case SkippedDisabled:
		return "skipped (custom volumes disabled)"
	default:
		return fmt.Sprintf("unknown outcome %d", int(o))
	}
}

// MissingParentDirError reports an override path whose parent directory does
// not exist. Creating it is the dev environment's responsibility, not ours.
type MissingParentDirError struct {
	Dir string
}

func (e *MissingParentDirError) Error() string {
	return fmt.Sprintf("override parent directory does not exist: %s", e.Dir)
}

// Options configures a Sync run.
type Options struct {
	TemplatePath string
	OverridePath string

	// Enabled gates the whole sync; when false nothing is touched.
	Enabled bool

	// Force copies even when the override is newer than the template.
	Force bool
}

// Sync copies the template to the override path byte-for-byte, preserving
// permission bits, unless the override was hand-edited after the template
// last changed. It performs at most one file write.
func Sync(opts Options) (Outcome, error) {
	if !opts.Enabled {
		return SkippedDisabled, nil
	}

	tmplInfo, err := os.Stat(opts.TemplatePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("no override template at %s; custom volumes not configured", opts.TemplatePath)
			return SkippedMissingTemplate, nil
		}
		return 0, fmt.Errorf("failed to stat template: %w", err)
	}

	if !opts.Force {
		if ovrInfo, err := os.Stat(opts.OverridePath); err == nil {
			if ovrInfo.ModTime().After(tmplInfo.ModTime()) {
				logger.Info("override at %s is newer than template; keeping manual edits", opts.OverridePath)
				return SkippedNewer, nil
			}
		}
	}

	if err := copyFile(opts.TemplatePath, opts.OverridePath, tmplInfo.Mode().Perm()); err != nil {
		return 0, err
	}
	logger.Info("synced override template to %s", opts.OverridePath)
	return Copied, nil
}

// copyFile writes src's bytes to dst with the given permission bits,
// creating dst if absent and truncating it otherwise.
func copyFile(src, dst string, perm os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		if os.IsNotExist(err) {
			if _, derr := os.Stat(filepath.Dir(dst)); os.IsNotExist(derr) {
				return &MissingParentDirError{Dir: filepath.Dir(dst)}
			}
		}
		return fmt.Errorf("failed to open override for writing: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write override: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close override: %w", err)
	}

	// A pre-existing override keeps its old mode through O_CREATE; align it
	// with the template explicitly.
	if err := os.Chmod(dst, perm); err != nil {
		return fmt.Errorf("failed to set override permissions: %w", err)
	}
	return nil
}
