package util

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sidkik/dirsync/pkg/errors"
)

// TestHelper contains methods commonly used during integration tests.
type TestHelper struct {
	// Binary is the dirsync executable under test.
	Binary string
}

// NewTestHelper creates a new TestHelper that runs the binary at `binary`.
func NewTestHelper(binary string) (*TestHelper, error) {
	binary, err := filepath.Abs(binary)
	if err != nil {
		return nil, errors.WithContext(err, "resolve binary")
	}

	if _, err := os.Stat(binary); err != nil {
		return nil, errors.WithContext(err, "stat binary")
	}
	return &TestHelper{Binary: binary}, nil
}

// Start starts dirsync with the given arguments. The returned channel
// receives an error if dirsync exits before `ctx` is cancelled, and is closed
// once the process has exited.
func (helper *TestHelper) Start(ctx context.Context, args ...string) (chan error, error) {
	cmd := exec.Command(helper.Binary, args...)

	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	errChan := make(chan error, 1)
	go func() {
		waitErr := make(chan error)
		go func() {
			waitErr <- cmd.Wait()
			close(waitErr)
		}()

		defer close(errChan)
		select {
		case <-ctx.Done():
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				errChan <- errors.WithContext(err, "kill")
				return
			}
			if err := <-waitErr; err != nil {
				errChan <- fmt.Errorf("unclean shutdown (%s): stderr: %s", err, stderr)
			}
		case err := <-waitErr:
			errChan <- fmt.Errorf("crashed (%s): stderr: %s", err, stderr)
		}
	}()
	return errChan, nil
}

// Run runs dirsync to completion, and returns its combined output.
func (helper *TestHelper) Run(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, helper.Binary, args...).CombinedOutput()
}

// TestWithRetry runs `test` with an exponential backoff until it passes, or
// `ctx` expires.
func TestWithRetry(ctx context.Context, test func() bool) bool {
	maxSleepTime := 5 * time.Second
	sleepTime := 50 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return test()
		case <-time.After(sleepTime):
			sleepTime *= 2
			if sleepTime > maxSleepTime {
				sleepTime = maxSleepTime
			}
		}

		if test() {
			return true
		}
	}
}
