package sync

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Run syncs the replica every interval until the context is cancelled or a
// cycle fails. The interval is measured from the end of one cycle to the
// start of the next.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		if err := s.RunOnce(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.interval):
		}
	}
}

// RunOnce runs a single cycle and logs a summary of what it changed.
func (s *Syncer) RunOnce() error {
	res, err := s.SyncOnce()
	if err != nil {
		return err
	}
	s.logResult(res)
	return nil
}

func (s *Syncer) logResult(res Result) {
	if !res.Changed() {
		s.log.WithFields(logrus.Fields{
			"source":  s.source,
			"replica": s.replica,
		}).Debug("Directories already synchronized")
		return
	}

	logFields := logrus.Fields{}
	if len(res.Created) > 0 {
		logFields["created"] = truncateSlice(res.Created, 5)
	}
	if len(res.Updated) > 0 {
		logFields["updated"] = truncateSlice(res.Updated, 5)
	}
	if len(res.Removed) > 0 {
		logFields["removed"] = truncateSlice(res.Removed, 5)
	}
	s.log.WithFields(logFields).Info("Synced files..")
}

// truncateSlice truncates the given slice of strings to the given length. If
// the slice is longer than `length`, a message is appended saying how many
// more items are in the slice.
func truncateSlice(slc []string, length int) []string {
	if len(slc) <= length {
		return slc
	}

	truncated := append([]string{}, slc[:length]...)
	return append(truncated, fmt.Sprintf("... %d more ...", len(slc)-length))
}
