package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	configCmd "github.com/sidkik/dirsync/cmd/config"
	"github.com/sidkik/dirsync/cmd/util"
	"github.com/sidkik/dirsync/cmd/version"
	"github.com/sidkik/dirsync/pkg/config"
	"github.com/sidkik/dirsync/pkg/errors"
	"github.com/sidkik/dirsync/pkg/logging"
	"github.com/sidkik/dirsync/pkg/sync"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "DIRSYNC_LOG_VERBOSE"

const usage = "dirsync [flags] <source_dir> <replica_dir> <sync_interval> <log_file>"

// Mocked for unit testing.
var (
	parseSyncConfig           = config.ParseSync
	homedirExpand             = homedir.Expand
	openFile                  = os.OpenFile
	console         io.Writer = os.Stderr
)

type options struct {
	configPath string
	once       bool
	overrides  config.Sync
}

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	if err := New().Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

// New creates the root `dirsync` command.
func New() *cobra.Command {
	var opts options
	rootCmd := &cobra.Command{
		Use:   usage,
		Short: "Periodically mirror a directory onto a replica",
		Long: "dirsync keeps the replica directory identical to the source " +
			"directory.\nEvery sync_interval seconds it copies new and changed " +
			"files, directories and symlinks to the replica, and removes " +
			"anything in the replica that's no longer in the source.\n\n" +
			"The arguments can also be set in a config file " +
			"(see `dirsync config`).",
		Args:         cobra.MaximumNArgs(4),
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, err := parseArgs(args)
			if err != nil {
				return err
			}
			opts.overrides = opts.overrides.Merge(positional)

			cfg, err := loadConfig(opts.configPath,
				cmd.Flags().Changed("config"), opts.overrides)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg, opts.once)
		},
	}

	rootCmd.Flags().BoolVarP(&opts.overrides.Verbose, "verbose", "v", false,
		"Log debug messages to the console.")
	rootCmd.Flags().StringVar(&opts.configPath, "config", config.DefaultSyncConfigPath,
		"The path of the configuration file. It's only required to exist "+
			"when set explicitly.")
	rootCmd.Flags().BoolVar(&opts.once, "once", false,
		"Run a single sync and exit.")
	rootCmd.Flags().StringVar(&opts.overrides.Compare, "compare", "",
		`How files are compared: "content" (default) or "shallow".`)

	rootCmd.AddCommand(
		configCmd.New(),
		version.New(),
	)
	return rootCmd
}

// parseArgs converts the positional arguments into config overrides. Missing
// trailing arguments are left unset so that they can come from the config
// file.
func parseArgs(args []string) (config.Sync, error) {
	var cfg config.Sync
	fields := []*string{&cfg.Source, &cfg.Replica, nil, &cfg.LogFile}
	for i, arg := range args {
		if fields[i] != nil {
			*fields[i] = arg
			continue
		}

		interval, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return config.Sync{}, errors.NewFriendlyError(
				"Invalid sync interval %q: it must be a number of seconds.", arg)
		}
		if err := config.CheckInterval(interval); err != nil {
			return config.Sync{}, err
		}
		cfg.Interval = interval
	}
	return cfg, nil
}

// loadConfig merges the command line settings over the config file. The
// default config file is optional.
func loadConfig(path string, explicitPath bool, overrides config.Sync) (config.Sync, error) {
	fileCfg, err := parseSyncConfig(path)
	if err != nil {
		var notFound errors.FileNotFound
		if explicitPath || !errors.As(err, &notFound) {
			return config.Sync{}, errors.WithContext(err, "parse config")
		}
		log.WithField("path", path).Debug("No config file")
		fileCfg = config.Sync{}
	}

	cfg := fileCfg.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		var missing errors.MissingFieldError
		if errors.As(err, &missing) {
			return config.Sync{}, errors.NewFriendlyError(
				"Missing %s.\nUsage: %s", missing.Field, usage)
		}
		return config.Sync{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Sync, once bool) error {
	compareMode, err := sync.ParseCompareMode(cfg.Compare)
	if err != nil {
		return err
	}

	logPath, err := homedirExpand(cfg.LogFile)
	if err != nil {
		return errors.WithContext(err, "expand log file path")
	}

	logFile, err := openFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithContext(err, "open log file")
	}
	defer logFile.Close()

	logger := logging.New(console, cfg.Verbose, logFile)
	syncer, err := sync.New(logger, sync.Config{
		Source:   cfg.Source,
		Replica:  cfg.Replica,
		Interval: cfg.IntervalDuration(),
		Compare:  compareMode,
	})
	if err != nil {
		return errors.WithContext(err, "setup")
	}

	if once {
		return syncer.RunOnce()
	}

	logger.WithField("interval", cfg.IntervalDuration()).Info("Starting sync loop")
	err = syncer.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("Stopped")
		return nil
	}
	return err
}
