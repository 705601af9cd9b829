package sync

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sidkik/dirsync/pkg/errors"
)

// copyEntry copies the entry at `src` to `dst` without following symlinks.
// Directories are created empty. It returns the kind of the copied entry.
func copyEntry(src, dst string) (Kind, error) {
	fi, err := lstat(src)
	if err != nil {
		return KindMissing, errors.WithContext(err, "stat source")
	}

	kind := kindOfInfo(fi)
	switch kind {
	case KindDir:
		if err := fs.Mkdir(dst, dirPerm(fi)); err != nil {
			return kind, errors.WithContext(err, "make directory")
		}
	case KindSymlink:
		if err := copySymlink(src, dst, fi); err != nil {
			return kind, err
		}
	case KindSpecial:
		return kind, errNotRegular
	default:
		if err := copyFile(src, dst, fi); err != nil {
			return kind, err
		}
	}
	return kind, nil
}

// copyFile replaces `dst` with a copy of the regular file at `src`. The mode
// and modification time of the source are applied to the copy.
func copyFile(src, dst string, srcInfo os.FileInfo) error {
	// Opening a FIFO blocks until a writer shows up.
	if !srcInfo.Mode().IsRegular() {
		return errNotRegular
	}

	srcFile, err := fs.Open(src)
	if err != nil {
		return errors.WithContext(err, "open source")
	}
	defer srcFile.Close()

	// Remove the old copy rather than truncating it, since it may be read-only.
	if err := fs.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.WithContext(err, "remove old copy")
	}

	dstFile, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return errors.WithContext(err, "copy")
	}

	if err := dstFile.Close(); err != nil {
		return errors.WithContext(err, "close destination")
	}

	if err := fs.Chmod(dst, srcInfo.Mode()); err != nil {
		return errors.WithContext(err, "set file mode")
	}

	// Change the modification time as the last step so that it doesn't get
	// reset by other file operations.
	if err := fs.Chtimes(dst, time.Now(), srcInfo.ModTime()); err != nil {
		return errors.WithContext(err, "set file modtime")
	}
	return nil
}

// copySymlink creates a symlink at `dst` with the same target as the symlink
// at `src`.
func copySymlink(src, dst string, srcInfo os.FileInfo) error {
	target, err := readlink(src)
	if err != nil {
		return errors.WithContext(err, "read link")
	}

	if err := symlink(target, dst); err != nil {
		return errors.WithContext(err, "create link")
	}

	if err := setSymlinkModTime(dst, srcInfo.ModTime()); err != nil {
		return errors.WithContext(err, "set link modtime")
	}
	return nil
}

// copyTree copies the entire tree at `src` to `dst`, creating `dst` and any
// missing parents.
func copyTree(src, dst string) error {
	srcInfo, err := fs.Stat(src)
	if err != nil {
		return errors.WithContext(err, "stat source root")
	}

	if err := fs.MkdirAll(dst, dirPerm(srcInfo)); err != nil {
		return errors.WithContext(err, "make root")
	}

	entries, err := Walk(src)
	if err != nil {
		return errors.WithContext(err, "walk source")
	}

	for _, relPath := range entries.ShallowFirst() {
		_, err := copyEntry(filepath.Join(src, relPath), filepath.Join(dst, relPath))
		if err != nil {
			return errors.WithContext(err, "copy "+relPath)
		}
	}
	return nil
}
