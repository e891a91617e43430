// Package logging provides structured logging for the record store.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is a map of contextual log fields.
type Fields = logrus.Fields

var (
	global *logrus.Logger
	once   sync.Once
)

// Options configures the global logger.
type Options struct {
	// Level is the minimum level to emit ("debug", "info", "warn", "error").
	Level string
	// File, when non-empty, routes output to a size-rotated log file
	// instead of stdout.
	File string
	// MaxSizeMB is the rotation threshold for File (default 10).
	MaxSizeMB int
	// MaxBackups is how many rotated files to keep (default 3).
	MaxBackups int
}

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(opts Options) {
	once.Do(func() {
		global = newLogger(opts)
	})
}

// Get returns the global logger, initializing it with defaults if needed.
func Get() *logrus.Logger {
	if global == nil {
		Init(Options{Level: "info"})
	}
	return global
}

func newLogger(opts Options) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})

	var out io.Writer = os.Stdout
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = 3
		}
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
	}
	l.SetOutput(out)

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	return l
}

// Convenience functions using the global logger.

func Debug(message string, fields Fields) {
	Get().WithFields(fields).Debug(message)
}

func Info(message string, fields Fields) {
	Get().WithFields(fields).Info(message)
}

func Warn(message string, fields Fields) {
	Get().WithFields(fields).Warn(message)
}

func Error(message string, err error, fields Fields) {
	entry := Get().WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(message)
}

// ErrorWithCode logs an error with a stable error code field.
func ErrorWithCode(message, code string, err error, fields Fields) {
	entry := Get().WithFields(fields).WithField("code", code)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(message)
}
