package sync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/dirsync/ci/util"
)

// syncInterval is passed to dirsync in seconds.
const syncInterval = "0.2"

func Test(t *testing.T, helper *util.TestHelper) {
	t.Run("FileChange", func(t *testing.T) {
		testFileChange(t, helper)
	})
	t.Run("Once", func(t *testing.T) {
		testOnce(t, helper)
	})
}

func testFileChange(t *testing.T, helper *util.TestHelper) {
	testCtx, cancelTest := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelTest()

	refFile := randomFile("dir/test-file")
	changedContents := refFile.WithContents("changed contents")
	sameSize := refFile.WithContents(strings.Repeat("x", len(refFile.contents)))
	changedModeAndContents := refFile.WithContents("read only").WithMode(0400)

	tests := []struct {
		name   string
		change fsOp
		check  replicaAssertion
	}{
		{
			name:   "ChangeContents",
			change: createFile(changedContents),
			check:  shouldExist(changedContents),
		},
		{
			name:   "SameSizeContents",
			change: createFile(sameSize),
			check:  shouldExist(sameSize),
		},
		{
			name:   "ChangeModeAndContents",
			change: createFile(changedModeAndContents),
			check:  shouldExist(changedModeAndContents),
		},
		{
			name:   "RemoveFile",
			change: removeFile(refFile.path),
			check:  shouldNotExist(refFile.path),
		},
		{
			name:   "RemoveParent",
			change: removeFile("dir"),
			check:  shouldNotExist("dir"),
		},
	}

	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	syncCtx, cancelSync := context.WithCancel(testCtx)
	waitErr, err := helper.Start(syncCtx, fs.args(syncInterval)...)
	require.NoError(t, err, "start dirsync")
	defer func() {
		cancelSync()
		assert.NoError(t, <-waitErr, "run dirsync")
	}()

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, createFile(refFile)(fs))
			require.True(t, util.TestWithRetry(testCtx, func() bool {
				return shouldExist(refFile)(fs) == nil
			}), "initial sync")

			require.NoError(t, test.change(fs))
			synced := util.TestWithRetry(testCtx, func() bool {
				return test.check(fs) == nil
			})
			assert.True(t, synced)
			assert.NoError(t, test.check(fs))
		})
	}
}

func testOnce(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	kept := randomFile("kept")
	stale := randomFile("stale/file")
	require.NoError(t, createFile(kept)(fs))
	require.NoError(t, createReplicaFile(stale)(fs))

	out, err := helper.Run(ctx, append([]string{"--once"}, fs.args("3600")...)...)
	require.NoError(t, err, string(out))

	assert.NoError(t, shouldExist(kept)(fs))
	assert.NoError(t, shouldNotExist(stale.path)(fs))
	assert.NoError(t, shouldNotExist("stale")(fs))
}
