package config

import (
	"math"
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/dirsync/pkg/errors"
)

const (
	// DefaultSyncConfigPath is where the config is read from if no path is
	// given.
	DefaultSyncConfigPath = "~/.dirsync.yaml"

	// InitialSyncConfigVersion is the first version of the sync config.
	// Config files that do not specify a version will default to this
	// version.
	InitialSyncConfigVersion = "v1alpha1"

	// SupportedSyncConfigVersion is the supported version of the sync config
	// of the current dirsync binary.
	SupportedSyncConfigVersion = "v1alpha1"
)

// Sync contains the settings for mirroring a directory. Every field can also
// be set from the command line.
type Sync struct {
	Version string `json:"version,omitempty"`
	Source  string `json:"source,omitempty"`
	Replica string `json:"replica,omitempty"`

	// Interval is the number of seconds between sync cycles.
	Interval float64 `json:"interval,omitempty"`

	LogFile string `json:"logFile,omitempty"`
	Verbose bool   `json:"verbose,omitempty"`

	// Compare is either "content" or "shallow".
	Compare string `json:"compare,omitempty"`
}

func (c Sync) getVersion() string {
	return c.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseSync reads the config at `path`. Paths inside the config may use `~`,
// and relative paths are evaluated relative to the config file.
func ParseSync(path string) (Sync, error) {
	path, err := homedirExpand(path)
	if err != nil {
		return Sync{}, errors.WithContext(err, "expand config path")
	}

	config := Sync{Version: InitialSyncConfigVersion}
	if err := parseConfig(path, &config, SupportedSyncConfigVersion); err != nil {
		return Sync{}, errors.WithContext(err, "parse")
	}

	for _, field := range []*string{&config.Source, &config.Replica, &config.LogFile} {
		if *field == "" {
			continue
		}

		expanded, err := homedirExpand(*field)
		if err != nil {
			return Sync{}, errors.WithContext(err, "expand path")
		}

		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(filepath.Dir(path), expanded)
		}
		*field = expanded
	}
	return config, nil
}

// WriteSync writes the given config to `path`.
func WriteSync(path string, cfg Sync) error {
	cfg.Version = SupportedSyncConfigVersion
	path, err := homedirExpand(path)
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Merge returns `c` with every field that's set in `overrides` replaced.
func (c Sync) Merge(overrides Sync) Sync {
	if overrides.Source != "" {
		c.Source = overrides.Source
	}
	if overrides.Replica != "" {
		c.Replica = overrides.Replica
	}
	if overrides.Interval != 0 {
		c.Interval = overrides.Interval
	}
	if overrides.LogFile != "" {
		c.LogFile = overrides.LogFile
	}
	if overrides.Compare != "" {
		c.Compare = overrides.Compare
	}
	c.Verbose = c.Verbose || overrides.Verbose
	return c
}

// Validate checks that every required field is set.
func (c Sync) Validate() error {
	required := []struct {
		field string
		set   bool
	}{
		{"source", c.Source != ""},
		{"replica", c.Replica != ""},
		{"interval", c.Interval != 0},
		{"logFile", c.LogFile != ""},
	}
	for _, r := range required {
		if !r.set {
			return errors.MissingFieldError{Field: r.field}
		}
	}

	return CheckInterval(c.Interval)
}

// maxIntervalSeconds is the longest interval, in whole seconds, that fits in a
// time.Duration.
const maxIntervalSeconds = float64(math.MaxInt64 / int64(time.Second))

// CheckInterval returns an error if `seconds` can't be used as a sync
// interval.
func CheckInterval(seconds float64) error {
	if math.IsNaN(seconds) || seconds <= 0 {
		return errors.NewFriendlyError(
			"The sync interval must be a positive number of seconds, got %v.", seconds)
	}

	if seconds > maxIntervalSeconds {
		return errors.NewFriendlyError(
			"The sync interval must be at most %.0f seconds, got %v.",
			maxIntervalSeconds, seconds)
	}
	return nil
}

// IntervalDuration returns the sync interval as a time.Duration.
func (c Sync) IntervalDuration() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}
