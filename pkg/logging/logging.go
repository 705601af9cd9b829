package logging

import (
	"io"
	"io/ioutil"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// FileLevel is the minimum level written to the log file, regardless of the
// console verbosity.
const FileLevel = logrus.InfoLevel

// New creates the logger shared by dirsync. Entries are written to `console`
// at Info level and above, or Debug and above if `verbose` is set. Entries at
// FileLevel and above are also appended to `logFile`, if it's non-nil.
func New(console io.Writer, verbose bool, logFile io.Writer) *logrus.Logger {
	consoleLevel := logrus.InfoLevel
	if verbose {
		consoleLevel = logrus.DebugLevel
	}

	log := logrus.New()

	// Each sink gets its own hook, so the logger itself writes nowhere. The
	// log file isn't a terminal, so colors are always disabled.
	log.SetOutput(ioutil.Discard)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})

	log.AddHook(&writer.Hook{
		Writer:    console,
		LogLevels: levelsUpTo(consoleLevel),
	})
	if logFile != nil {
		log.AddHook(&writer.Hook{
			Writer:    logFile,
			LogLevels: levelsUpTo(FileLevel),
		})
	}
	return log
}

// levelsUpTo returns all the levels that are at least as severe as `min`.
func levelsUpTo(min logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, level := range logrus.AllLevels {
		if level <= min {
			levels = append(levels, level)
		}
	}
	return levels
}
