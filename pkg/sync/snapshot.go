package sync

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/dirsync/pkg/errors"
)

// Snapshot is the set of paths within a directory tree, relative to the root
// of the tree.
type Snapshot map[string]struct{}

// NewSnapshot returns a Snapshot containing `paths`.
func NewSnapshot(paths ...string) Snapshot {
	snapshot := Snapshot{}
	for _, path := range paths {
		snapshot.Add(path)
	}
	return snapshot
}

// Add inserts `path` into the snapshot.
func (snapshot Snapshot) Add(path string) {
	snapshot[path] = struct{}{}
}

// Contains returns whether `path` is in the snapshot.
func (snapshot Snapshot) Contains(path string) bool {
	_, ok := snapshot[path]
	return ok
}

// Walk returns the paths of all entries under `root`. Directories are
// descended into, but symlinks are recorded without being followed, even if
// they point at a directory. The root itself isn't included.
func Walk(root string) (Snapshot, error) {
	snapshot := Snapshot{}
	if err := walkDir(root, "", snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func walkDir(root, relDir string, snapshot Snapshot) error {
	dir := filepath.Join(root, relDir)

	// ReadDir lstats its entries, so symlinks are never reported as
	// directories.
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return errors.WithContext(err, "list "+dir)
	}

	for _, fi := range entries {
		relPath := filepath.Join(relDir, fi.Name())
		snapshot.Add(relPath)

		if kindOfInfo(fi) == KindDir {
			if err := walkDir(root, relPath, snapshot); err != nil {
				return err
			}
		}
	}
	return nil
}

// Diff partitions the paths in the two snapshots. `repOnly` contains the
// paths that should be removed from the replica, `srcOnly` the paths that
// should be created, and `common` the paths that may need to be updated.
func Diff(src, rep Snapshot) (repOnly, srcOnly, common Snapshot) {
	repOnly, srcOnly, common = Snapshot{}, Snapshot{}, Snapshot{}
	for path := range src {
		if rep.Contains(path) {
			common.Add(path)
		} else {
			srcOnly.Add(path)
		}
	}

	for path := range rep {
		if !src.Contains(path) {
			repOnly.Add(path)
		}
	}
	return
}
