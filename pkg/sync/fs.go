package sync

import (
	"os"

	"github.com/spf13/afero"

	"github.com/sidkik/dirsync/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

var (
	errSymlinksUnsupported = errors.New("filesystem does not support symlinks")
	errNotRegular          = errors.New("not a regular file")
)

// Kind is the type of a filesystem entry.
type Kind int

const (
	// KindMissing means that nothing exists at the path.
	KindMissing Kind = iota
	KindDir
	KindSymlink
	KindFile

	// KindSpecial is a FIFO, socket or device. These are never opened.
	KindSpecial
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindFile:
		return "file"
	case KindSpecial:
		return "special file"
	default:
		return "missing"
	}
}

func lstat(path string) (os.FileInfo, error) {
	if lstater, ok := fs.(afero.Lstater); ok {
		fi, _, err := lstater.LstatIfPossible(path)
		return fi, err
	}
	return fs.Stat(path)
}

func readlink(path string) (string, error) {
	reader, ok := fs.(afero.LinkReader)
	if !ok {
		return "", errSymlinksUnsupported
	}
	return reader.ReadlinkIfPossible(path)
}

func symlink(target, path string) error {
	linker, ok := fs.(afero.Linker)
	if !ok {
		return errSymlinksUnsupported
	}
	return linker.SymlinkIfPossible(target, path)
}

func kindOfInfo(fi os.FileInfo) Kind {
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		return KindSymlink
	case fi.IsDir():
		return KindDir
	case fi.Mode().IsRegular():
		return KindFile
	default:
		return KindSpecial
	}
}

// kindOf returns the kind of the entry at `path` without following symlinks.
func kindOf(path string) (Kind, error) {
	fi, err := lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return KindMissing, nil
		}
		return KindMissing, err
	}
	return kindOfInfo(fi), nil
}

// dirPerm returns the permissions used for mirrored directories. The owner
// bits are always set so that later cycles can write into the directory.
func dirPerm(fi os.FileInfo) os.FileMode {
	return fi.Mode().Perm() | 0700
}
