// Package groupfile reads and edits the group database directly instead of
// shelling out to groupadd, so gid conflicts surface as typed errors and the
// logic tests against a plain file. Unparseable lines are carried through
// verbatim on save.
package groupfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Entry is one parsed group line.
type Entry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

// line holds either a parsed entry or the raw original text.
type line struct {
	entry *Entry
	raw   string
}

// File is an in-memory group database bound to its path.
type File struct {
	path  string
	lines []line
}

// GidConflictError reports a gid already owned by a different group.
type GidConflictError struct {
	Name     string
	GID      int
	Existing string
}

func (e *GidConflictError) Error() string {
	return fmt.Sprintf("cannot create group %s with gid %d: gid is owned by group %s", e.Name, e.GID, e.Existing)
}

// Load parses the group file at path. A missing file yields an empty File so
// Ensure can still populate it.
func Load(path string) (*File, error) {
	f := &File{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read group file: %w", err)
	}

	for _, raw := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		trim := strings.TrimSpace(raw)
		if trim == "" || strings.HasPrefix(trim, "#") {
			f.lines = append(f.lines, line{raw: raw})
			continue
		}
		parts := strings.Split(raw, ":")
		if len(parts) < 4 {
			f.lines = append(f.lines, line{raw: raw})
			continue
		}
		gid, err := strconv.Atoi(parts[2])
		if err != nil {
			f.lines = append(f.lines, line{raw: raw})
			continue
		}
		e := Entry{Name: parts[0], Passwd: parts[1], GID: gid}
		if parts[3] != "" {
			e.Members = strings.Split(parts[3], ",")
		}
		f.lines = append(f.lines, line{entry: &e})
	}
	return f, nil
}

// Find returns the entry named name, or nil.
func (f *File) Find(name string) *Entry {
	for _, ln := range f.lines {
		if ln.entry != nil && ln.entry.Name == name {
			return ln.entry
		}
	}
	return nil
}

// FindByGID returns the entry owning gid, or nil.
func (f *File) FindByGID(gid int) *Entry {
	for _, ln := range f.lines {
		if ln.entry != nil && ln.entry.GID == gid {
			return ln.entry
		}
	}
	return nil
}

// Ensure makes a group named name with the given gid exist. It reports
// whether a new entry was added. An existing (name, gid) entry is a no-op;
// the gid belonging to another group is a GidConflictError, and the name
// carrying a different gid is an error too.
func (f *File) Ensure(name string, gid int) (bool, error) {
	if existing := f.Find(name); existing != nil {
		if existing.GID == gid {
			return false, nil
		}
		return false, fmt.Errorf("group %s already exists with gid %d, want %d", name, existing.GID, gid)
	}
	if owner := f.FindByGID(gid); owner != nil {
		return false, &GidConflictError{Name: name, GID: gid, Existing: owner.Name}
	}
	f.lines = append(f.lines, line{entry: &Entry{Name: name, Passwd: "x", GID: gid}})
	return true, nil
}

// Bytes renders the database back to group(5) format.
func (f *File) Bytes() []byte {
	var b strings.Builder
	for _, ln := range f.lines {
		if ln.entry != nil {
			e := ln.entry
			fmt.Fprintf(&b, "%s:%s:%d:%s\n", e.Name, e.Passwd, e.GID, strings.Join(e.Members, ","))
		} else {
			b.WriteString(ln.raw)
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

// Save writes the database back to its path.
func (f *File) Save(perm os.FileMode) error {
	return writeAtomic(f.path, f.Bytes(), perm)
}
