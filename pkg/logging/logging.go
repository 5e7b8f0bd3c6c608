// Package logging configures the logrus logger used by lxcrun.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Field names attached to log entries.
const (
	FieldRunID     = "run_id"
	FieldOperation = "operation"
	FieldTarget    = "ct"
)

// Options configures a logger.
type Options struct {
	Verbose bool // Debug level instead of info
	Color   bool // Force colored level names
}

// New creates a logger writing text lines to out.
func New(out io.Writer, opts Options) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:            opts.Color,
		DisableColors:          !opts.Color,
		FullTimestamp:          true,
		TimestampFormat:        "15:04:05",
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})

	logger.SetLevel(logrus.InfoLevel)
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}

// ForRun returns an entry carrying the run id and operation name.
func ForRun(logger logrus.FieldLogger, runID, operation string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		FieldRunID:     runID,
		FieldOperation: operation,
	})
}
