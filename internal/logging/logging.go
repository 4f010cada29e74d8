// Package logging builds the process logger. There is no package-level logger:
// callers construct one at start-up and pass it to the components that need it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Options controls logger construction.
type Options struct {
	Level string    // logrus level name; empty means info
	Out   io.Writer // console sink; nil means stderr
	Dir   string    // when set, also log to Dir/ghost_<timestamp>.log
	Now   func() time.Time
}

// Logger wraps a logrus logger together with the file it may own.
type Logger struct {
	*logrus.Logger
	file *os.File
	Path string // log file path, empty when not logging to a file
}

// New creates a logger writing to the console and, optionally, a timestamped file.
func New(opts Options) (*Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	logger := &Logger{Logger: l}

	if opts.Dir != "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path := filepath.Join(opts.Dir, "ghost_"+now().Format("2006-01-02_15-04-05")+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.file = f
		logger.Path = path
		out = io.MultiWriter(out, f)
	}

	l.SetOutput(out)
	return logger, nil
}

// Discard returns a logger that drops everything. Intended for tests and for
// library callers that do not want output.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
