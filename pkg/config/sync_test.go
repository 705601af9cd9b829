package config

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/dirsync/pkg/errors"
)

func TestParseSync(t *testing.T) {
	out := "/home/user/.dirsync.yaml"

	tests := []struct {
		name      string
		input     []byte
		expConfig Sync
		expError  error
	}{
		{
			name: "EmptyVersion",
			input: mustMarshal(Sync{
				Source:   "/data/source",
				Replica:  "/data/replica",
				Interval: 2.5,
				LogFile:  "/var/log/dirsync.log",
			}),
			expConfig: Sync{
				Version:  InitialSyncConfigVersion,
				Source:   "/data/source",
				Replica:  "/data/replica",
				Interval: 2.5,
				LogFile:  "/var/log/dirsync.log",
			},
		},
		{
			name: "RelativePaths",
			input: mustMarshal(Sync{
				Version: SupportedSyncConfigVersion,
				Source:  "source",
				Replica: "../replica",
				Compare: "shallow",
			}),
			expConfig: Sync{
				Version: SupportedSyncConfigVersion,
				Source:  "/home/user/source",
				Replica: "/home/replica",
				Compare: "shallow",
			},
		},
		{
			name: "IncorrectVersion",
			input: mustMarshal(Sync{
				Version: "incorrect_version",
			}),
			expError: errors.WithContext(incompatibleVersionError{
				path:   out,
				exp:    SupportedSyncConfigVersion,
				actual: "incorrect_version",
			}, "parse"),
		},
		{
			name: "ExtraFields",
			input: []byte(fmt.Sprintf(
				"version: %s\nextra: fields", SupportedSyncConfigVersion)),
			expError: errors.WithContext(
				errors.NewFriendlyError(parseConfigErrTemplate, out,
					errors.New("error unmarshaling JSON: while decoding JSON: "+
						`json: unknown field "extra"`)),
				"parse"),
		},
	}

	fs = afero.NewMemMapFs()
	homedirExpand = func(path string) (string, error) {
		if path == DefaultSyncConfigPath {
			return out, nil
		}
		return path, nil
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, afero.WriteFile(fs, out, test.input, 0644))
			config, err := ParseSync(DefaultSyncConfigPath)
			assert.Equal(t, test.expConfig, config)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestParseSyncMissing(t *testing.T) {
	fs = afero.NewMemMapFs()
	homedirExpand = func(path string) (string, error) {
		return path, nil
	}

	_, err := ParseSync("/missing.yaml")
	assert.Equal(t, errors.FileNotFound{Path: "/missing.yaml"}, errors.RootCause(err))
}

func TestParseWrittenSync(t *testing.T) {
	fs = afero.NewMemMapFs()
	homedirExpand = func(_ string) (string, error) {
		return "/.dirsync.yaml", nil
	}

	cfg := Sync{
		Source:   "/source",
		Replica:  "/replica",
		Interval: 10,
		LogFile:  "/dirsync.log",
		Verbose:  true,
	}

	// Write the config to disk, and assert that we get the same config when
	// we parse it.
	assert.NoError(t, WriteSync(DefaultSyncConfigPath, cfg))

	parsed, err := ParseSync(DefaultSyncConfigPath)
	assert.NoError(t, err)

	cfg.Version = SupportedSyncConfigVersion
	assert.Equal(t, cfg, parsed)
}

func TestMerge(t *testing.T) {
	base := Sync{
		Source:   "/config/source",
		Replica:  "/config/replica",
		Interval: 60,
		LogFile:  "/config/log",
		Compare:  "shallow",
	}

	merged := base.Merge(Sync{Replica: "/cli/replica", Interval: 0.5, Verbose: true})
	assert.Equal(t, Sync{
		Source:   "/config/source",
		Replica:  "/cli/replica",
		Interval: 0.5,
		LogFile:  "/config/log",
		Verbose:  true,
		Compare:  "shallow",
	}, merged)

	assert.Equal(t, base, base.Merge(Sync{}))
}

func TestValidate(t *testing.T) {
	valid := Sync{Source: "s", Replica: "r", Interval: 1, LogFile: "l"}

	tests := []struct {
		name   string
		config Sync
		exp    error
	}{
		{name: "Valid", config: valid},
		{
			name:   "MissingSource",
			config: valid.withSource(""),
			exp:    errors.MissingFieldError{Field: "source"},
		},
		{
			name:   "MissingInterval",
			config: Sync{Source: "s", Replica: "r", LogFile: "l"},
			exp:    errors.MissingFieldError{Field: "interval"},
		},
		{
			name:   "NegativeInterval",
			config: valid.Merge(Sync{Interval: -1}),
			exp: errors.NewFriendlyError(
				"The sync interval must be a positive number of seconds, got %v.", -1.0),
		},
		{
			name:   "NaNInterval",
			config: valid.Merge(Sync{Interval: math.NaN()}),
			exp: errors.NewFriendlyError(
				"The sync interval must be a positive number of seconds, got NaN."),
		},
		{
			name:   "InfiniteInterval",
			config: valid.Merge(Sync{Interval: math.Inf(1)}),
			exp: errors.NewFriendlyError(
				"The sync interval must be at most %.0f seconds, got +Inf.",
				maxIntervalSeconds),
		},
		{
			name:   "OverflowingInterval",
			config: valid.Merge(Sync{Interval: 1e12}),
			exp: errors.NewFriendlyError(
				"The sync interval must be at most %.0f seconds, got 1e+12.",
				maxIntervalSeconds),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, test.config.Validate())
		})
	}
}

func TestIntervalDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Sync{Interval: 1.5}.IntervalDuration())

	// The largest accepted interval doesn't overflow.
	require.NoError(t, CheckInterval(maxIntervalSeconds))
	assert.True(t, Sync{Interval: maxIntervalSeconds}.IntervalDuration() > 0)
}

func (c Sync) withSource(source string) Sync {
	c.Source = source
	return c
}

func mustMarshal(intf interface{}) []byte {
	yamlBytes, err := yaml.Marshal(intf)
	if err != nil {
		panic(err)
	}
	return yamlBytes
}
