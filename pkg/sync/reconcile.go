package sync

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/dirsync/pkg/errors"
)

// Result records the replica paths that were changed during a cycle.
type Result struct {
	Created []string
	Updated []string
	Removed []string
}

// Changed returns whether the cycle modified the replica.
func (res Result) Changed() bool {
	return len(res.Created) > 0 || len(res.Updated) > 0 || len(res.Removed) > 0
}

// State is the phase of the sync loop.
type State int

const (
	// Bootstrapping means that the replica doesn't exist yet.
	Bootstrapping State = iota

	// Steady means that the replica exists, and only needs to be updated.
	Steady
)

func (state State) String() string {
	if state == Bootstrapping {
		return "bootstrapping"
	}
	return "steady"
}

// SyncOnce runs a single cycle.
func (s *Syncer) SyncOnce() (Result, error) {
	srcSnapshot, err := Walk(s.source)
	if err != nil {
		return Result{}, errors.WithContext(err, "snapshot source")
	}

	state, err := s.state()
	if err != nil {
		return Result{}, err
	}
	s.log.WithField("state", state).Debug("Checking directories synchronization")

	if state == Bootstrapping {
		return s.bootstrap(srcSnapshot)
	}

	repSnapshot, err := Walk(s.replica)
	if err != nil {
		return Result{}, errors.WithContext(err, "snapshot replica")
	}

	repOnly, srcOnly, common := Diff(srcSnapshot, repSnapshot)

	var res Result
	if len(repOnly) > 0 {
		s.log.WithField("paths", repOnly.ShallowFirst()).Debug("Entries only in replica directory")
	}
	if err := s.removeReplicaOnly(repOnly, &res); err != nil {
		return res, err
	}

	if err := s.updateCommon(common, &res); err != nil {
		return res, err
	}

	if len(srcOnly) > 0 {
		s.log.WithField("paths", srcOnly.ShallowFirst()).Debug("Entries only in source directory")
	}
	if err := s.createSourceOnly(srcOnly, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Syncer) state() (State, error) {
	kind, err := kindOf(s.replica)
	if err != nil {
		return Bootstrapping, errors.WithContext(err, "stat replica")
	}

	if kind == KindMissing {
		return Bootstrapping, nil
	}
	return Steady, nil
}

// bootstrap copies the whole source tree into the missing replica root.
func (s *Syncer) bootstrap(srcSnapshot Snapshot) (Result, error) {
	var res Result
	s.log.WithField("path", s.replica).Debug("Creating replica root")
	if err := copyTree(s.source, s.replica); err != nil {
		return res, s.fail("create replica", s.replica, err)
	}

	for _, relPath := range srcSnapshot.ShallowFirst() {
		srcPath := filepath.Join(s.source, relPath)
		repPath := filepath.Join(s.replica, relPath)

		kind, err := kindOf(srcPath)
		if err != nil {
			return res, errors.WithContext(err, "stat source")
		}

		switch kind {
		case KindMissing:
			continue
		case KindSymlink:
			target, err := readlink(repPath)
			if err != nil {
				return res, errors.WithContext(err, "read link")
			}
			s.logSymlink(repPath, target).Info("Creating symlink")
		default:
			s.logPath(repPath).Infof("Creating %s", kind)
		}
		res.Created = append(res.Created, repPath)
	}
	return res, nil
}

// removeReplicaOnly removes entries that no longer exist in the source.
// Children are removed before their parents, so every directory is empty by
// the time it's removed.
func (s *Syncer) removeReplicaOnly(repOnly Snapshot, res *Result) error {
	for _, relPath := range repOnly.DeepFirst() {
		path := filepath.Join(s.replica, relPath)

		kind, err := kindOf(path)
		if err != nil {
			return s.fail("stat", path, err)
		}

		switch kind {
		case KindMissing:
			continue
		case KindSymlink:
			target, err := readlink(path)
			if err != nil {
				return s.fail("read symlink", path, err)
			}
			s.logSymlink(path, target).Info("Removing symlink")
		default:
			s.logPath(path).Infof("Removing %s", kind)
		}

		if err := fs.Remove(path); err != nil {
			return s.fail("remove "+kind.String(), path, err)
		}
		res.Removed = append(res.Removed, path)
	}
	return nil
}

// updateCommon brings entries that exist in both trees up to date.
func (s *Syncer) updateCommon(common Snapshot, res *Result) error {
	for _, relPath := range common.ShallowFirst() {
		srcPath := filepath.Join(s.source, relPath)
		repPath := filepath.Join(s.replica, relPath)

		srcKind, err := kindOf(srcPath)
		if err != nil {
			return s.fail("stat", srcPath, err)
		}

		repKind, err := kindOf(repPath)
		if err != nil {
			return s.fail("stat", repPath, err)
		}

		var updated bool
		switch srcKind {
		case KindMissing:
			// Removed since the snapshot was taken. The next cycle will
			// remove it from the replica.
			continue
		case KindDir:
			updated, err = s.updateDir(srcPath, repPath, repKind)
		case KindSymlink:
			updated, err = s.updateSymlink(srcPath, repPath, repKind)
		case KindSpecial:
			err = s.fail("update special file", srcPath, errNotRegular)
		default:
			updated, err = s.updateFile(srcPath, repPath, repKind)
		}
		if err != nil {
			return err
		}

		if updated {
			res.Updated = append(res.Updated, repPath)
		}
	}
	return nil
}

// updateDir only does work if the replica entry has become something other
// than a directory. Directories don't have contents to compare.
func (s *Syncer) updateDir(srcPath, repPath string, repKind Kind) (bool, error) {
	if repKind == KindDir {
		return false, nil
	}

	s.logPath(repPath).Infof("Replacing %s with directory", repKind)
	if err := s.removeStale(repPath); err != nil {
		return false, err
	}

	if _, err := copyEntry(srcPath, repPath); err != nil {
		return false, s.fail("create directory", repPath, err)
	}
	return true, nil
}

func (s *Syncer) updateSymlink(srcPath, repPath string, repKind Kind) (bool, error) {
	srcTarget, err := readlink(srcPath)
	if err != nil {
		return false, s.fail("read symlink", srcPath, err)
	}

	if repKind == KindSymlink {
		repTarget, err := readlink(repPath)
		if err != nil {
			return false, s.fail("read symlink", repPath, err)
		}

		if repTarget == srcTarget {
			return false, nil
		}
	}

	s.logSymlink(repPath, srcTarget).Info("Updating symlink")
	if err := s.removeStale(repPath); err != nil {
		return false, err
	}

	if _, err := copyEntry(srcPath, repPath); err != nil {
		return false, s.fail("create symlink", repPath, err)
	}
	return true, nil
}

func (s *Syncer) updateFile(srcPath, repPath string, repKind Kind) (bool, error) {
	if repKind == KindFile {
		equal, err := s.comparer.Equal(srcPath, repPath)
		if err != nil {
			return false, s.fail("compare file", repPath, err)
		}

		if equal {
			return false, nil
		}
	} else {
		if err := s.removeStale(repPath); err != nil {
			return false, err
		}
	}

	s.logPath(repPath).Info("Updating file")
	if _, err := copyEntry(srcPath, repPath); err != nil {
		return false, s.fail("update file", repPath, err)
	}
	return true, nil
}

// removeStale removes a replica entry whose kind no longer matches the
// source.
func (s *Syncer) removeStale(path string) error {
	if err := fs.RemoveAll(path); err != nil {
		return s.fail("remove", path, err)
	}
	return nil
}

// createSourceOnly creates entries that are new in the source. Parents are
// created before their children.
func (s *Syncer) createSourceOnly(srcOnly Snapshot, res *Result) error {
	for _, relPath := range srcOnly.ShallowFirst() {
		srcPath := filepath.Join(s.source, relPath)
		repPath := filepath.Join(s.replica, relPath)

		kind, err := kindOf(srcPath)
		if err != nil {
			return s.fail("stat", srcPath, err)
		}

		switch kind {
		case KindMissing:
			continue
		case KindSymlink:
			target, err := readlink(srcPath)
			if err != nil {
				return s.fail("read symlink", srcPath, err)
			}
			s.logSymlink(repPath, target).Info("Creating symlink")
		case KindSpecial:
			return s.fail("create special file", srcPath, errNotRegular)
		default:
			s.logPath(repPath).Infof("Creating %s", kind)
		}

		if _, err := copyEntry(srcPath, repPath); err != nil {
			return s.fail("create "+kind.String(), repPath, err)
		}
		res.Created = append(res.Created, repPath)
	}
	return nil
}

// fail logs a failed mutation and returns it as an error. The cycle is
// aborted by the caller.
func (s *Syncer) fail(op, path string, err error) error {
	s.log.WithError(err).WithFields(logrus.Fields{
		"path": path,
		"kind": errors.KindOf(err).String(),
	}).Errorf("Failed to %s", op)
	return errors.MutationError{Op: op, Path: path, Err: err}
}

func (s *Syncer) logPath(path string) *logrus.Entry {
	return s.log.WithField("path", path)
}

func (s *Syncer) logSymlink(path, target string) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"path":   path,
		"target": target,
	})
}
