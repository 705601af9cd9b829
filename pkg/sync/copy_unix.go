//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package sync

import (
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// setSymlinkModTime sets the timestamps of the link itself rather than its
// target. It's a no-op on filesystems other than the OS filesystem.
func setSymlinkModTime(path string, modTime time.Time) error {
	if _, ok := fs.(*afero.OsFs); !ok {
		return nil
	}

	times := []unix.Timeval{
		unix.NsecToTimeval(time.Now().UnixNano()),
		unix.NsecToTimeval(modTime.UnixNano()),
	}
	return unix.Lutimes(path, times)
}
