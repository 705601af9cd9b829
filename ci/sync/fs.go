package sync

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sidkik/dirsync/pkg/errors"
)

type file struct {
	path     string
	contents string
	mode     os.FileMode
	modTime  time.Time
}

func (f file) WithContents(contents string) file {
	f.contents = contents
	return f
}

func (f file) WithMode(mode os.FileMode) file {
	f.mode = mode
	return f
}

func randomFile(path string) file {
	randomTime := time.Date(2019, 11, 10, rand.Intn(23), rand.Intn(59), rand.Intn(59), 0, time.UTC)
	return file{
		path:     path,
		contents: strconv.Itoa(rand.Int()),
		mode:     os.FileMode(0640 | rand.Intn(8)),
		modTime:  randomTime,
	}
}

// mockFs is a temporary source and replica pair.
type mockFs struct {
	root    string
	source  string
	replica string
	logFile string
}

type fsOp func(mockFs) error

func newMockFs() (mockFs, error) {
	root, err := ioutil.TempDir("", "dirsync-ci")
	if err != nil {
		return mockFs{}, errors.WithContext(err, "make root dir")
	}

	source := filepath.Join(root, "source")
	if err := os.Mkdir(source, 0755); err != nil {
		return mockFs{}, errors.WithContext(err, "make source directory")
	}

	return mockFs{
		root:    root,
		source:  source,
		replica: filepath.Join(root, "replica"),
		logFile: filepath.Join(root, "dirsync.log"),
	}, nil
}

func (fs mockFs) cleanup() error {
	return os.RemoveAll(fs.root)
}

// args returns the positional arguments for syncing the mock directories.
func (fs mockFs) args(interval string) []string {
	return []string{fs.source, fs.replica, interval, fs.logFile}
}

func createFile(toCreate file) fsOp {
	return func(fs mockFs) error {
		path := filepath.Join(fs.source, toCreate.path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return errors.WithContext(err, "make parent")
		}

		// Remove first so that read-only files can be rewritten.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.WithContext(err, "remove old")
		}

		if err := ioutil.WriteFile(path, []byte(toCreate.contents), 0600); err != nil {
			return errors.WithContext(err, "write")
		}

		if err := os.Chmod(path, toCreate.mode); err != nil {
			return errors.WithContext(err, "chmod")
		}

		if err := os.Chtimes(path, time.Now(), toCreate.modTime); err != nil {
			return errors.WithContext(err, "chtimes")
		}
		return nil
	}
}

func removeFile(path string) fsOp {
	return func(fs mockFs) error {
		return os.RemoveAll(filepath.Join(fs.source, path))
	}
}

func createReplicaFile(toCreate file) fsOp {
	return func(fs mockFs) error {
		path := filepath.Join(fs.replica, toCreate.path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return errors.WithContext(err, "make parent")
		}
		return ioutil.WriteFile(path, []byte(toCreate.contents), toCreate.mode)
	}
}

func getReplicaFile(fs mockFs, path string) (file, bool, error) {
	fullPath := filepath.Join(fs.replica, path)
	fi, err := os.Lstat(fullPath)
	if os.IsNotExist(err) {
		return file{}, false, nil
	}
	if err != nil {
		return file{}, false, errors.WithContext(err, "stat")
	}

	contents, err := ioutil.ReadFile(fullPath)
	if err != nil {
		return file{}, false, errors.WithContext(err, "read")
	}

	return file{
		path:     path,
		contents: string(contents),
		mode:     fi.Mode(),
		modTime:  fi.ModTime().UTC(),
	}, true, nil
}

type replicaAssertion func(mockFs) error

func shouldExist(exp file) replicaAssertion {
	return func(fs mockFs) error {
		actual, exists, err := getReplicaFile(fs, exp.path)
		if err != nil {
			return errors.WithContext(err, "get replica file")
		}

		if !exists {
			return fmt.Errorf("file %q does not exist", exp.path)
		}

		if actual != exp {
			return fmt.Errorf("Expected file %v, got %v", exp, actual)
		}
		return nil
	}
}

func shouldNotExist(path string) replicaAssertion {
	return func(fs mockFs) error {
		_, exists, err := getReplicaFile(fs, path)
		if err != nil {
			return errors.WithContext(err, "get replica file")
		}

		if exists {
			return fmt.Errorf("file %q exists", path)
		}
		return nil
	}
}
