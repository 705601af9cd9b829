package sync

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// fsOp mutates the tree rooted at the given directory.
type fsOp func(root string) error

func createFile(path, contents string) fsOp {
	return func(root string) error {
		path := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		return ioutil.WriteFile(path, []byte(contents), 0644)
	}
}

func createDir(path string) fsOp {
	return func(root string) error {
		return os.MkdirAll(filepath.Join(root, path), 0755)
	}
}

func createSymlink(path, target string) fsOp {
	return func(root string) error {
		path := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		return os.Symlink(target, path)
	}
}

func setModTime(path string, modTime time.Time) fsOp {
	return func(root string) error {
		return os.Chtimes(filepath.Join(root, path), modTime, modTime)
	}
}

func removePath(path string) fsOp {
	return func(root string) error {
		return os.RemoveAll(filepath.Join(root, path))
	}
}

func apply(t *testing.T, root string, ops ...fsOp) {
	for _, op := range ops {
		require.NoError(t, op(root))
	}
}

// describeTree returns a description of every entry under root. Directories
// map to "dir", symlinks to "-> target", and files to their contents.
func describeTree(t *testing.T, root string) map[string]string {
	desc := map[string]string{}
	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		switch {
		case fi.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			desc[relPath] = "-> " + target
		case fi.IsDir():
			desc[relPath] = "dir"
		default:
			contents, err := ioutil.ReadFile(path)
			if err != nil {
				return err
			}
			desc[relPath] = string(contents)
		}
		return nil
	})
	require.NoError(t, err)
	return desc
}

type testEnv struct {
	source, replica string
	syncer          *Syncer
	hook            *test.Hook
	clock           clockwork.FakeClock
}

func newTestEnv(t *testing.T, mode CompareMode) testEnv {
	fs = afero.NewOsFs()

	root := t.TempDir()
	source := filepath.Join(root, "source")
	replica := filepath.Join(root, "replica")
	require.NoError(t, os.Mkdir(source, 0755))

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	clock := clockwork.NewFakeClock()
	syncer, err := New(log, Config{
		Source:   source,
		Replica:  replica,
		Interval: time.Second,
		Compare:  mode,
		Clock:    clock,
	})
	require.NoError(t, err)

	return testEnv{
		source:  source,
		replica: replica,
		syncer:  syncer,
		hook:    hook,
		clock:   clock,
	}
}

// mutations returns the info-level log lines about changes to the replica,
// formatted as "<message> <relative path>".
func (env testEnv) mutations() []string {
	var lines []string
	for _, entry := range env.hook.AllEntries() {
		if entry.Level != logrus.InfoLevel {
			continue
		}

		path, ok := entry.Data["path"].(string)
		if !ok {
			continue
		}

		relPath := strings.TrimPrefix(path, env.replica+string(filepath.Separator))
		lines = append(lines, entry.Message+" "+relPath)
	}
	return lines
}
