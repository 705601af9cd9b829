package config

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/dirsync/pkg/config"
	"github.com/sidkik/dirsync/pkg/errors"
)

func TestPromptUser(t *testing.T) {
	tests := []struct {
		name                        string
		defaultAnswer, currAnswer   string
		stdin, expPrompt, expResult string
	}{
		{
			name:  "NoChoices",
			stdin: "/data\n",
			expPrompt: "help\n" +
				"prompt:\n" +
				"Please enter manually: \n",
			expResult: "/data",
		},
		{
			name:          "PickCurrent",
			defaultAnswer: "/default",
			currAnswer:    "/current",
			stdin:         "2\n",
			expPrompt: "help\n" +
				"prompt:\n" +
				"\n" +
				"\t1. /default (recommended)\n" +
				"\t2. /current\n" +
				"\t3. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-3]: \n",
			expResult: "/current",
		},
		{
			name:          "EmptyResponsePicksFirst",
			defaultAnswer: "/default",
			stdin:         "\n",
			expPrompt: "help\n" +
				"prompt:\n" +
				"\n" +
				"\t1. /default (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: \n",
			expResult: "/default",
		},
		{
			name:          "DuplicateAnswersCollapse",
			defaultAnswer: "/same",
			currAnswer:    "/same",
			stdin:         "2\n/typed\n",
			expPrompt: "help\n" +
				"prompt:\n" +
				"\n" +
				"\t1. /same (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: " +
				"Please enter manually: \n",
			expResult: "/typed",
		},
		{
			name:          "InvalidChoiceRetries",
			defaultAnswer: "/default",
			stdin:         "7\nabc\n1\n",
			expPrompt: "help\n" +
				"prompt:\n" +
				"\n" +
				"\t1. /default (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: " +
				"Please choose one [1-2]: " +
				"Please choose one [1-2]: \n",
			expResult: "/default",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			stdout = &out
			in := bufio.NewReader(strings.NewReader(test.stdin))

			res, err := promptUser(in, "help", "prompt", test.defaultAnswer, test.currAnswer)
			assert.NoError(t, err)
			assert.Equal(t, test.expResult, res)
			assert.Equal(t, test.expPrompt, out.String())
		})
	}
}

type mockFileInfo struct {
	os.FileInfo
	isDir bool
}

func (fi mockFileInfo) IsDir() bool { return fi.isDir }

func TestSetupConfig(t *testing.T) {
	guessDefaults = func() config.Sync {
		return config.Sync{
			Source:  "/home/user/photos",
			Replica: "/home/user/photos-replica",
			LogFile: "/home/user/dirsync.log",
		}
	}
	stat = func(path string) (os.FileInfo, error) {
		switch path {
		case "/home/user/photos", "/mnt/photos":
			return mockFileInfo{isDir: true}, nil
		case "/home/user/notes.txt":
			return mockFileInfo{isDir: false}, nil
		}
		return nil, os.ErrNotExist
	}

	tests := []struct {
		name      string
		cliOpts   config.Sync
		currCfg   config.Sync
		stdin     string
		expConfig config.Sync
	}{
		{
			name:  "AcceptDefaults",
			stdin: "\n\n\n\n",
			expConfig: config.Sync{
				Source:   "/home/user/photos",
				Replica:  "/home/user/photos-replica",
				Interval: 30,
				LogFile:  "/home/user/dirsync.log",
			},
		},
		{
			name: "FlagsSkipPrompts",
			cliOpts: config.Sync{
				Source:   "/mnt/photos",
				Replica:  "/mnt/backup",
				Interval: 2.5,
				LogFile:  "/var/log/dirsync.log",
				Compare:  "shallow",
			},
			expConfig: config.Sync{
				Source:   "/mnt/photos",
				Replica:  "/mnt/backup",
				Interval: 2.5,
				LogFile:  "/var/log/dirsync.log",
				Compare:  "shallow",
			},
		},
		{
			name: "InvalidAnswersReprompt",
			cliOpts: config.Sync{
				Replica: "/mnt/backup",
				LogFile: "/var/log/dirsync.log",
			},
			// Pick "Enter manually" for the source, and supply a file, then a
			// missing path, then a directory. Then a negative interval.
			stdin: "2\n/home/user/notes.txt\n" +
				"2\n/nowhere\n" +
				"2\n/mnt/photos\n" +
				"2\n-1\n" +
				"2\n10\n",
			expConfig: config.Sync{
				Source:   "/mnt/photos",
				Replica:  "/mnt/backup",
				Interval: 10,
				LogFile:  "/var/log/dirsync.log",
			},
		},
		{
			name: "KeepCurrentCompareMode",
			cliOpts: config.Sync{
				Source:   "/mnt/photos",
				Replica:  "/mnt/backup",
				Interval: 1,
				LogFile:  "/var/log/dirsync.log",
			},
			currCfg: config.Sync{Compare: "shallow"},
			expConfig: config.Sync{
				Source:   "/mnt/photos",
				Replica:  "/mnt/backup",
				Interval: 1,
				LogFile:  "/var/log/dirsync.log",
				Compare:  "shallow",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			stdout = &bytes.Buffer{}
			stdin = strings.NewReader(test.stdin)
			parseSyncConfig = func(string) (config.Sync, error) {
				if test.currCfg == (config.Sync{}) {
					return config.Sync{}, errors.FileNotFound{Path: "/config"}
				}
				return test.currCfg, nil
			}

			var written config.Sync
			writeSyncConfig = func(_ string, cfg config.Sync) error {
				written = cfg
				return nil
			}

			err := SetupConfig("/config", test.cliOpts)
			assert.NoError(t, err)
			assert.Equal(t, test.expConfig, written)
		})
	}
}

func TestSetupConfigPromptEOF(t *testing.T) {
	guessDefaults = func() config.Sync { return config.Sync{} }
	parseSyncConfig = func(string) (config.Sync, error) { return config.Sync{}, nil }
	writeSyncConfig = func(string, config.Sync) error {
		t.Fatal("config shouldn't be written")
		return nil
	}
	stdout = &bytes.Buffer{}
	stdin = strings.NewReader("")

	err := SetupConfig("/config", config.Sync{})
	assert.Error(t, err)
}

func TestIntervalValidation(t *testing.T) {
	for _, valid := range []string{"1", "0.5", "3600"} {
		_, ok := intervalValidationFn(valid)
		assert.True(t, ok, valid)
	}
	for _, invalid := range []string{"", "0", "-2", "soon", "1s", "NaN", "Inf", "1e12"} {
		_, ok := intervalValidationFn(invalid)
		assert.False(t, ok, invalid)
	}
}
