package sync

import (
	"os"
	"path/filepath"

	"github.com/sidkik/dirsync/pkg/errors"
)

// Resolve converts `path` into an absolute path. If the path is a symlink,
// exactly one level of indirection is followed: relative targets are
// interpreted relative to the directory containing the link. The path doesn't
// need to exist.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WithContext(err, "make absolute")
	}

	fi, err := lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", errors.WithContext(err, "stat")
	}

	if fi.Mode()&os.ModeSymlink == 0 {
		return abs, nil
	}

	target, err := readlink(abs)
	if err != nil {
		return "", errors.WithContext(err, "read link")
	}

	if filepath.IsAbs(target) {
		return target, nil
	}
	return filepath.Join(filepath.Dir(abs), target), nil
}

// ResolveSource resolves the source root. Unlike the replica root, the
// source must already exist and be a directory.
func ResolveSource(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WithContext(err, "make absolute")
	}

	// Stat follows the whole symlink chain, so a dangling link is reported as
	// missing.
	fi, err := fs.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileNotFound{Path: path}
		}
		return "", errors.WithContext(err, "stat")
	}

	if !fi.IsDir() {
		return "", errors.NotADirectory{Path: path}
	}
	return Resolve(abs)
}
