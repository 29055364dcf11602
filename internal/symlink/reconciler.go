// Package symlink realizes declared source→target mappings as symbolic links
// inside the running container. Each pair is evaluated independently;
// re-running converges to the same end state.
package symlink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joehays/mars-user-plugin/internal/constants"
	"github.com/joehays/mars-user-plugin/internal/logger"
)

// Pair is a declared (source, target) mapping to realize as target -> source.
type Pair struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// State classifies a pair before any action is taken.
type State int

const (
	// SourceMissing: the source path is absent; the optional host directory
	// was not mounted this run.
	SourceMissing State = iota

	// TargetMissing: no filesystem entry exists at the target yet.
	TargetMissing

	// Correct: the target is a symlink already pointing at the source.
	Correct

	// Stale: the target is a symlink pointing somewhere else.
	Stale

	// Conflict: the target exists but is not a symlink.
	Conflict
)

func (s State) String() string {
	switch s {
	case SourceMissing:
		return "source missing"
	case TargetMissing:
		return "target missing"
	case Correct:
		return "correct"
	case Stale:
		return "stale"
	case Conflict:
		return "conflict"
	default:
		return fmt.Sprintf("unknown state %d", int(s))
	}
}

// ConflictError reports a target occupied by a real file or directory.
// Real data is never silently deleted; resolving the conflict is on the user.
type ConflictError struct {
	Target string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("symlink target %s exists but is not a symlink; refusing to replace real data", e.Target)
}

// Result counts what Reconcile did per pair.
type Result struct {
	Created   int
	Skipped   int
	Preserved int
	Replaced  int
}

func (r Result) String() string {
	return fmt.Sprintf("created=%d skipped=%d preserved=%d replaced=%d",
		r.Created, r.Skipped, r.Preserved, r.Replaced)
}

// Inspect classifies a pair without side effects.
func Inspect(p Pair) State {
	if _, err := os.Stat(p.Source); err != nil {
		return SourceMissing
	}

	info, err := os.Lstat(p.Target)
	if err != nil {
		return TargetMissing
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return Conflict
	}

	referent, err := os.Readlink(p.Target)
	if err != nil || referent != p.Source {
		return Stale
	}
	return Correct
}

// Reconcile brings every pair into its declared state. Pairs whose source is
// absent are skipped; correct links are left untouched so their inode
// survives; stale links are replaced. A non-symlink at a target aborts the
// run with a ConflictError.
func Reconcile(pairs []Pair) (Result, error) {
	var res Result
	for _, p := range pairs {
		switch Inspect(p) {
		case SourceMissing:
			logger.Info("skipping %s: source %s not mounted", p.Target, p.Source)
			res.Skipped++

		case TargetMissing:
			if err := create(p); err != nil {
				return res, err
			}
			logger.Info("linked %s -> %s", p.Target, p.Source)
			res.Created++

		case Correct:
			res.Preserved++

		case Stale:
			if err := os.Remove(p.Target); err != nil {
				return res, fmt.Errorf("failed to remove stale link %s: %w", p.Target, err)
			}
			if err := create(p); err != nil {
				return res, err
			}
			logger.Info("relinked %s -> %s", p.Target, p.Source)
			res.Replaced++

		case Conflict:
			return res, &ConflictError{Target: p.Target}
		}
	}
	return res, nil
}

func create(p Pair) error {
	if err := os.MkdirAll(filepath.Dir(p.Target), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", p.Target, err)
	}
	if err := os.Symlink(p.Source, p.Target); err != nil {
		return fmt.Errorf("failed to create symlink %s -> %s: %w", p.Target, p.Source, err)
	}
	return nil
}
