// Package sysbox compensates for the runtime's subordinate-ID remapping when
// granting a shared group access to a bind-mounted path. The runtime shifts
// every in-container ID up by the host user's UID, so a path owned by the
// host's subordinate GID is visible in-container under the shifted value.
package sysbox

import (
	"errors"
	"fmt"
	"os"

	"github.com/joehays/mars-user-plugin/internal/constants"
	"github.com/joehays/mars-user-plugin/internal/groupfile"
	"github.com/joehays/mars-user-plugin/internal/logger"
)

// ContainerGID returns the GID an unprivileged in-container process must use
// to match a host path owned by hostSubGID.
func ContainerGID(hostUID, hostSubGID int) int {
	return hostSubGID - hostUID
}

// Outcome reports what FixGroupAccess did.
type Outcome int

const (
	// Fixed means group ownership and permissions were applied.
	Fixed Outcome = iota

	// SkippedNoPath means the shared path is absent; the mount was not
	// configured this run.
	SkippedNoPath
)

// PermissionError reports a privileged step attempted without privilege.
// Callers run this stage as root and treat the error as fatal.
type PermissionError struct {
	Op   string
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s %s requires root privileges: %v", e.Op, e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// Ownership is the privilege-requiring collaborator FixGroupAccess drives.
// The OS implementation needs root; tests substitute a fake.
type Ownership interface {
	// Chgrp sets the group owner of path to gid.
	Chgrp(path string, gid int) error

	// AddGroupRWX adds group read/write/execute bits to path without
	// altering the other permission bits.
	AddGroupRWX(path string) error
}

type osOwnership struct{}

// NewOSOwnership returns the real Ownership backed by chown/chmod syscalls.
func NewOSOwnership() Ownership {
	return osOwnership{}
}

func (osOwnership) Chgrp(path string, gid int) error {
	if err := os.Chown(path, -1, gid); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return &PermissionError{Op: "chgrp", Path: path, Err: err}
		}
		return fmt.Errorf("failed to change group of %s: %w", path, err)
	}
	return nil
}

func (osOwnership) AddGroupRWX(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	mode := info.Mode().Perm() | 0070
	if err := os.Chmod(path, mode); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return &PermissionError{Op: "chmod", Path: path, Err: err}
		}
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	return nil
}

// Options configures FixGroupAccess.
type Options struct {
	// Path is the shared mount point to fix.
	Path string

	HostUID    int
	HostSubGID int

	// GroupName is the group that receives access.
	GroupName string

	// GroupFilePath is the group database to edit; defaults to /etc/group.
	GroupFilePath string
}

// FixGroupAccess ensures GroupName exists with the remapped gid, makes it the
// group owner of Path, and grants it rwx on Path. An absent Path is a normal
// steady state, not an error.
func FixGroupAccess(opts Options, own Ownership) (Outcome, error) {
	if opts.GroupFilePath == "" {
		opts.GroupFilePath = constants.EtcGroupPath
	}

	if _, err := os.Stat(opts.Path); err != nil {
		if os.IsNotExist(err) {
			logger.Info("shared path %s does not exist; skipping group fix", opts.Path)
			return SkippedNoPath, nil
		}
		return 0, fmt.Errorf("failed to stat shared path: %w", err)
	}

	gid := ContainerGID(opts.HostUID, opts.HostSubGID)

	gf, err := groupfile.Load(opts.GroupFilePath)
	if err != nil {
		return 0, err
	}
	created, err := gf.Ensure(opts.GroupName, gid)
	if err != nil {
		return 0, err
	}
	if created {
		if err := gf.Save(constants.GroupFilePermissions); err != nil {
			if errors.Is(err, os.ErrPermission) {
				return 0, &PermissionError{Op: "update group database", Path: opts.GroupFilePath, Err: err}
			}
			return 0, err
		}
		logger.Info("created group %s with gid %d", opts.GroupName, gid)
	}

	if err := own.Chgrp(opts.Path, gid); err != nil {
		return 0, err
	}
	if err := own.AddGroupRWX(opts.Path); err != nil {
		return 0, err
	}
	logger.Info("granted group %s (gid %d) access to %s", opts.GroupName, gid, opts.Path)
	return Fixed, nil
}
