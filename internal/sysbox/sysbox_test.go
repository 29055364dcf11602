package sysbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joehays/mars-user-plugin/internal/groupfile"
)

// fakeOwnership records the privileged calls FixGroupAccess makes.
type fakeOwnership struct {
	chgrpPath string
	chgrpGID  int
	chmodPath string
	err       error
}

func (f *fakeOwnership) Chgrp(path string, gid int) error {
	if f.err != nil {
		return f.err
	}
	f.chgrpPath = path
	f.chgrpGID = gid
	return nil
}

func (f *fakeOwnership) AddGroupRWX(path string) error {
	if f.err != nil {
		return f.err
	}
	f.chmodPath = path
	return nil
}

func TestContainerGID(t *testing.T) {
	tests := []struct {
		hostUID    int
		hostSubGID int
		want       int
	}{
		{10227, 54556, 44329},
		{1000, 100000, 99000},
		{0, 5000, 5000},
	}
	for _, tt := range tests {
		if got := ContainerGID(tt.hostUID, tt.hostSubGID); got != tt.want {
			t.Errorf("ContainerGID(%d, %d) = %d, want %d", tt.hostUID, tt.hostSubGID, got, tt.want)
		}
	}
}

func testOptions(t *testing.T, groups string) (Options, string) {
	t.Helper()
	dir := t.TempDir()
	shared := filepath.Join(dir, "shared")
	if err := os.Mkdir(shared, 0755); err != nil {
		t.Fatalf("failed to create shared dir: %v", err)
	}
	groupPath := filepath.Join(dir, "group")
	if err := os.WriteFile(groupPath, []byte(groups), 0644); err != nil {
		t.Fatalf("failed to write group file: %v", err)
	}
	return Options{
		Path:          shared,
		HostUID:       10227,
		HostSubGID:    54556,
		GroupName:     "mars-shared",
		GroupFilePath: groupPath,
	}, shared
}

func TestFixGroupAccess_SkippedNoPath(t *testing.T) {
	opts, _ := testOptions(t, "root:x:0:\n")
	opts.Path = filepath.Join(t.TempDir(), "never-mounted")

	fake := &fakeOwnership{}
	outcome, err := FixGroupAccess(opts, fake)
	if err != nil {
		t.Fatalf("FixGroupAccess() error = %v", err)
	}
	if outcome != SkippedNoPath {
		t.Errorf("FixGroupAccess() outcome = %v, want %v", outcome, SkippedNoPath)
	}
	if fake.chgrpPath != "" || fake.chmodPath != "" {
		t.Errorf("FixGroupAccess() performed privileged calls for a missing path")
	}
}

func TestFixGroupAccess_CreatesGroupAndFixes(t *testing.T) {
	opts, shared := testOptions(t, "root:x:0:\n")

	fake := &fakeOwnership{}
	outcome, err := FixGroupAccess(opts, fake)
	if err != nil {
		t.Fatalf("FixGroupAccess() error = %v", err)
	}
	if outcome != Fixed {
		t.Errorf("FixGroupAccess() outcome = %v, want %v", outcome, Fixed)
	}
	if fake.chgrpPath != shared || fake.chgrpGID != 44329 {
		t.Errorf("Chgrp(%q, %d), want (%q, 44329)", fake.chgrpPath, fake.chgrpGID, shared)
	}
	if fake.chmodPath != shared {
		t.Errorf("AddGroupRWX(%q), want %q", fake.chmodPath, shared)
	}

	gf, err := groupfile.Load(opts.GroupFilePath)
	if err != nil {
		t.Fatalf("failed to reload group file: %v", err)
	}
	e := gf.Find("mars-shared")
	if e == nil || e.GID != 44329 {
		t.Errorf("group file entry = %v, want mars-shared with gid 44329", e)
	}
}

func TestFixGroupAccess_ExistingGroupIsNoop(t *testing.T) {
	opts, _ := testOptions(t, "root:x:0:\nmars-shared:x:44329:\n")

	fake := &fakeOwnership{}
	outcome, err := FixGroupAccess(opts, fake)
	if err != nil {
		t.Fatalf("FixGroupAccess() error = %v", err)
	}
	if outcome != Fixed {
		t.Errorf("FixGroupAccess() outcome = %v, want %v", outcome, Fixed)
	}

	gf, _ := groupfile.Load(opts.GroupFilePath)
	if got := len(gf.Bytes()); got != len("root:x:0:\nmars-shared:x:44329:\n") {
		t.Errorf("group file rewritten unexpectedly: %q", gf.Bytes())
	}
}

func TestFixGroupAccess_GidConflict(t *testing.T) {
	opts, _ := testOptions(t, "root:x:0:\nsquatter:x:44329:\n")

	_, err := FixGroupAccess(opts, &fakeOwnership{})
	if err == nil {
		t.Fatal("FixGroupAccess() expected GidConflictError, got nil")
	}
	var conflict *groupfile.GidConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("FixGroupAccess() error type = %T, want *GidConflictError", err)
	}
	if conflict.Existing != "squatter" || conflict.GID != 44329 {
		t.Errorf("GidConflictError = %+v, want squatter owning 44329", conflict)
	}
}

func TestFixGroupAccess_PermissionErrorPropagates(t *testing.T) {
	opts, _ := testOptions(t, "root:x:0:\nmars-shared:x:44329:\n")

	permErr := &PermissionError{Op: "chgrp", Path: opts.Path, Err: os.ErrPermission}
	_, err := FixGroupAccess(opts, &fakeOwnership{err: permErr})
	if err == nil {
		t.Fatal("FixGroupAccess() expected error, got nil")
	}
	var pe *PermissionError
	if !errors.As(err, &pe) {
		t.Fatalf("FixGroupAccess() error type = %T, want *PermissionError", err)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("PermissionError should unwrap to os.ErrPermission")
	}
}
