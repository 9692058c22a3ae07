// Package logging - Structured logging for the classifier.
//
// Logs go to a writer separate from the result stream so that stdout carries nothing but
// classification lines.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the module.
type Logger = logrus.FieldLogger

// New creates a logger writing to w at the given level. Colors are enabled only when w is a
// terminal.
//
// Arguments:
//   - level: The level name: trace, debug, info, warn or error. Empty means info.
//   - w: The destination, usually os.Stderr.
//
// Returns:
//   - *logrus.Logger: The logger.
//   - error: An error if the level is unknown.
func New(level string, w io.Writer) (*logrus.Logger, error) {
	lvl := logrus.InfoLevel
	if level != "" {
		var err error
		if lvl, err = logrus.ParseLevel(level); err != nil {
			return nil, err
		}
	}

	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		if tty {
			w = colorable.NewColorable(f)
		}
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      tty,
		DisableColors:    !tty,
		FullTimestamp:    true,
		TimestampFormat:  "15:04:05.000",
		QuoteEmptyFields: true,
	})
	return log, nil
}

// Verbosity maps a -v count style value to a level name.
func Verbosity(v int) string {
	switch {
	case v <= 0:
		return "error"
	case v == 1:
		return "warn"
	case v == 2:
		return "info"
	case v == 3:
		return "debug"
	default:
		return "trace"
	}
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
