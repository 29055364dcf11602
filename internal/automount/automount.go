// Package automount turns the plugin's mounted-files tree into bind-mount
// entries for the override file and symlink pairs for container startup.
// Mount mode follows the file's own permission bits: anything the owner or
// group can write mounts read-write, everything else read-only.
package automount

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joehays/mars-user-plugin/internal/logger"
	"github.com/joehays/mars-user-plugin/internal/symlink"
)

// Modes for generated mount entries.
const (
	ModeReadWrite = "rw"
	ModeReadOnly  = "ro"
)

// gitkeepName marks placeholder files that must never be mounted.
const gitkeepName = ".gitkeep"

// Entry is one generated bind mount.
type Entry struct {
	HostPath      string
	ContainerPath string
	Mode          string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s:%s:%s", e.HostPath, e.ContainerPath, e.Mode)
}

// ModeFor returns the mount mode implied by a file's permission bits.
func ModeFor(perm os.FileMode) string {
	if perm&0200 != 0 || perm&0020 != 0 {
		return ModeReadWrite
	}
	return ModeReadOnly
}

// Scan walks the mounted-files tree and returns a mount entry per regular
// file and a reconciler pair per valid symlink. A missing tree yields empty
// results. Invalid symlinks are logged and dropped, never fatal.
func Scan(mountedFilesDir string) ([]Entry, []symlink.Pair, error) {
	if _, err := os.Stat(mountedFilesDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to stat mounted-files dir: %w", err)
	}

	var entries []Entry
	var pairs []symlink.Pair

	err := filepath.WalkDir(mountedFilesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(mountedFilesDir, path)
		if err != nil {
			return err
		}
		containerPath := "/" + filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			pair, err := validateSymlink(mountedFilesDir, path, containerPath)
			if err != nil {
				logger.Warn("ignoring symlink %s: %v", path, err)
				return nil
			}
			pairs = append(pairs, pair)
			return nil
		}

		if !d.Type().IsRegular() || d.Name() == gitkeepName {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			HostPath:      path,
			ContainerPath: containerPath,
			Mode:          ModeFor(info.Mode().Perm()),
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to walk mounted-files dir: %w", err)
	}
	return entries, pairs, nil
}

// validateSymlink applies the security checks a mounted-files symlink must
// pass before it becomes a container-side pair: the referent must be
// relative, must resolve inside the mounted-files tree, and must exist.
func validateSymlink(mountedFilesDir, linkPath, containerPath string) (symlink.Pair, error) {
	referent, err := os.Readlink(linkPath)
	if err != nil {
		return symlink.Pair{}, fmt.Errorf("unreadable symlink: %w", err)
	}

	if filepath.IsAbs(referent) {
		return symlink.Pair{}, fmt.Errorf("absolute referent %s not allowed", referent)
	}

	resolved := filepath.Clean(filepath.Join(filepath.Dir(linkPath), referent))
	rel, err := filepath.Rel(mountedFilesDir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return symlink.Pair{}, fmt.Errorf("referent %s resolves outside mounted-files", referent)
	}

	if _, err := os.Stat(resolved); err != nil {
		return symlink.Pair{}, fmt.Errorf("referent %s does not exist", referent)
	}

	return symlink.Pair{
		Source: "/" + filepath.ToSlash(rel),
		Target: containerPath,
	}, nil
}

// RenderVolumesBlock renders entries as compose volume list items indented to
// slot under the template's volumes key.
func RenderVolumesBlock(entries []Entry) []byte {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("      - ")
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// AppendToOverride appends the generated volume entries to an existing
// override file. With no entries the override is left untouched.
func AppendToOverride(overridePath string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	f, err := os.OpenFile(overridePath, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("failed to open override for append: %w", err)
	}
	if _, err := f.Write(RenderVolumesBlock(entries)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append auto-mounts: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close override: %w", err)
	}
	logger.Info("added %d auto-mount entries to %s", len(entries), overridePath)
	return nil
}
