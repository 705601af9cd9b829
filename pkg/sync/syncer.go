package sync

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/dirsync/pkg/errors"
)

// Config contains the settings for a Syncer.
type Config struct {
	// Source is the directory that's mirrored. It must exist.
	Source string

	// Replica is the directory that's kept identical to Source. It's created
	// on the first cycle if it doesn't exist.
	Replica string

	// Interval is the delay between the end of one cycle and the start of
	// the next.
	Interval time.Duration

	// Compare selects how regular files are compared.
	Compare CompareMode

	// Clock is used to wait between cycles. Defaults to the real clock.
	Clock clockwork.Clock
}

// Syncer mirrors a source directory onto a replica directory.
type Syncer struct {
	source   string
	replica  string
	interval time.Duration

	clock    clockwork.Clock
	comparer *Comparer
	log      *logrus.Logger
}

// New creates a Syncer. The roots are resolved once, and stay fixed for the
// lifetime of the Syncer.
func New(log *logrus.Logger, cfg Config) (*Syncer, error) {
	if cfg.Interval <= 0 {
		return nil, errors.NewFriendlyError(
			"The sync interval must be positive, got %s.", cfg.Interval)
	}

	source, err := ResolveSource(cfg.Source)
	if err != nil {
		log.WithError(err).WithField("path", cfg.Source).Error("Invalid source directory")
		return nil, errors.WithContext(err, "resolve source")
	}
	log.WithField("path", source).Debug("Source directory")

	replica, err := Resolve(cfg.Replica)
	if err != nil {
		return nil, errors.WithContext(err, "resolve replica")
	}
	log.WithField("path", replica).Debug("Replica directory")

	compareMode := cfg.Compare
	if compareMode == "" {
		compareMode = CompareContent
	}

	comparer, err := NewComparer(compareMode)
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Syncer{
		source:   source,
		replica:  replica,
		interval: cfg.Interval,
		clock:    clock,
		comparer: comparer,
		log:      log,
	}, nil
}

// Source returns the resolved source root.
func (s *Syncer) Source() string {
	return s.source
}

// Replica returns the resolved replica root.
func (s *Syncer) Replica() string {
	return s.replica
}
