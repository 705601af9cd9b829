package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/dirsync/cmd/util"
	"github.com/sidkik/dirsync/pkg/config"
	"github.com/sidkik/dirsync/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout              io.Writer = os.Stdout
	stdin               io.Reader = os.Stdin
	guessDefaults                 = guessDefaultsImpl
	parseSyncConfig               = config.ParseSync
	writeSyncConfig               = config.WriteSync
	stat                          = os.Stat
	getWorkingDirectory           = os.Getwd
)

// defaultInterval is the suggested number of seconds between syncs.
const defaultInterval = "30"

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.Sync
	var path string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the dirsync configuration file",
		Long: "Write the settings for a sync to a configuration file, so that " +
			"`dirsync` can run without positional arguments.\n" +
			"Settings that aren't passed as flags are prompted for interactively.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(path, cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&path, "path", config.DefaultSyncConfigPath,
		"The path of the configuration file.")
	cmd.Flags().StringVar(&cliOpts.Source, "source", "",
		"Set the source directory in the config. "+
			"Optional: If not set, `dirsync config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Replica, "replica", "",
		"Set the replica directory in the config. "+
			"Optional: If not set, `dirsync config` will interactively prompt.")
	cmd.Flags().Float64Var(&cliOpts.Interval, "interval", 0,
		"Set the sync interval in seconds. "+
			"Optional: If not set, `dirsync config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.LogFile, "log-file", "",
		"Set the log file in the config. "+
			"Optional: If not set, `dirsync config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Compare, "compare", "",
		`Set how files are compared: "content" or "shallow".`)
	cmd.Flags().BoolVarP(&cliOpts.Verbose, "verbose", "v", false,
		"Enable debug logging on the console.")

	// Setup the commands for querying the contents of the config.
	type getterSpec struct {
		use, short string
		fn         func(config.Sync) string
	}

	getters := []getterSpec{
		{
			use:   "get-source",
			short: "Get the configured source directory",
			fn:    func(cfg config.Sync) string { return cfg.Source },
		},
		{
			use:   "get-replica",
			short: "Get the configured replica directory",
			fn:    func(cfg config.Sync) string { return cfg.Replica },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseSyncConfig(path)
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig fills in the settings missing from `cliOpts`, and writes the
// result to `path`.
func SetupConfig(path string, cliOpts config.Sync) error {
	cfg, err := generateConfig(path, cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := cfg.Validate(); err != nil {
		return errors.WithContext(err, "validate")
	}

	if err := writeSyncConfig(path, cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func sourceValidationFn(source string) (string, bool) {
	fi, err := stat(source)
	if err != nil {
		return fmt.Sprintf("Failed to access %q: %s", source, err), false
	}

	if !fi.IsDir() {
		return fmt.Sprintf("%q is not a directory. "+
			"Please pick the directory that should be mirrored.", source), false
	}
	return "", true
}

func intervalValidationFn(interval string) (string, bool) {
	seconds, err := strconv.ParseFloat(interval, 64)
	if err != nil {
		return "The interval must be a positive number of seconds.", false
	}

	if err := config.CheckInterval(seconds); err != nil {
		msg, _ := errors.GetFriendlyMessage(err)
		return msg, false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the desired
// configuration is.
// It makes best guesses at reasonable defaults, and allows users to explicitly
// override them if desired.
func generateConfig(path string, cliOpts config.Sync) (config.Sync, error) {
	defaults := guessDefaults()
	currConfig, err := parseSyncConfig(path)
	if err != nil {
		currConfig = config.Sync{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	var prompts []prompt
	if cliOpts.Source == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the source directory.\n" +
				"This directory is never modified by dirsync.",
			prompt:        "Source directory",
			defaultAnswer: defaults.Source,
			currAnswer:    currConfig.Source,
			field:         &cfg.Source,
			validationFn:  sourceValidationFn,
		})
	}

	if cliOpts.Replica == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the replica directory.\n" +
				"Anything in it that isn't in the source directory will be deleted.",
			prompt:        "Replica directory",
			defaultAnswer: defaults.Replica,
			currAnswer:    currConfig.Replica,
			field:         &cfg.Replica,
		})
	}

	var interval string
	if cliOpts.Interval == 0 {
		var currInterval string
		if currConfig.Interval != 0 {
			currInterval = strconv.FormatFloat(currConfig.Interval, 'f', -1, 64)
		}

		prompts = append(prompts, prompt{
			helpString:    "Enter the number of seconds to wait between syncs.",
			prompt:        "Sync interval",
			defaultAnswer: defaultInterval,
			currAnswer:    currInterval,
			field:         &interval,
			validationFn:  intervalValidationFn,
		})
	}

	if cliOpts.LogFile == "" {
		prompts = append(prompts, prompt{
			helpString:    "Enter the path of the log file. Logs are appended to it.",
			prompt:        "Log file",
			defaultAnswer: defaults.LogFile,
			currAnswer:    currConfig.LogFile,
			field:         &cfg.LogFile,
		})
	}

	stdinReader := bufio.NewReader(stdin)
	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(stdinReader, prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.Sync{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	if interval != "" {
		// The response was already validated.
		cfg.Interval, _ = strconv.ParseFloat(interval, 64)
	}

	if cfg.Compare == "" {
		cfg.Compare = currConfig.Compare
	}
	return cfg, nil
}

// guessDefaults tries to guess reasonable defaults for the fields in the
// config.
func guessDefaultsImpl() (cfg config.Sync) {
	currDir, err := getWorkingDirectory()
	if err != nil {
		log.WithError(err).Info("Failed to get current directory")
		return cfg
	}

	cfg.Source = currDir
	cfg.Replica = currDir + "-replica"
	cfg.LogFile = filepath.Join(filepath.Dir(currDir), "dirsync.log")
	return cfg
}

func promptUser(stdinReader *bufio.Reader, helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\n")

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(resp, "\n"), nil
}
