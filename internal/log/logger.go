// Package log is the logging facade used throughout mergemaster. It keeps a
// small printf-style API on top of logrus so callers never import logrus
// directly.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

var (
	mu     sync.RWMutex
	logger = NewLogger()
)

// Field is a single structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger writes leveled, optionally structured, log lines.
type Logger struct {
	entry *logrus.Entry
}

// Option configures a Logger at construction time.
type Option func(*logrus.Logger)

// WithOutput sends log output to w.
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	}
}

// WithLevel sets the minimum level that is written.
func WithLevel(level logrus.Level) Option {
	return func(l *logrus.Logger) {
		l.SetLevel(level)
	}
}

// NewLogger creates a text logger writing to stderr at info level.
func NewLogger(opts ...Option) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
	})
	for _, opt := range opts {
		opt(base)
	}
	return &Logger{entry: logrus.NewEntry(base)}
}

// ParseLevel accepts trace, debug, info, warn, error (any case).
func ParseLevel(level string) (logrus.Level, error) {
	if strings.TrimSpace(level) == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// Configure replaces the package logger.
func Configure(w io.Writer, level string, json bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	opts := []Option{WithOutput(w), WithLevel(lvl)}
	if json {
		opts = append(opts, WithJSON())
	}
	l := NewLogger(opts...)

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// SetDebug toggles debug output on the package logger.
func SetDebug(debug bool) {
	lvl := logrus.InfoLevel
	if debug {
		lvl = logrus.DebugLevel
	}
	current().entry.Logger.SetLevel(lvl)
}

// IsDebug reports whether the package logger emits debug lines.
func IsDebug() bool {
	return current().entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}

// Default returns the package logger.
func Default() *Logger {
	return current()
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data)}
}

func (l *Logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// LogWithFields returns the package logger with fields attached.
func LogWithFields(fields ...Field) *Logger {
	return current().With(fields...)
}

// Info logs a formatted message at info level
func Info(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Infof is an alias of Info
func Infof(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Debug logs a formatted message at debug level
func Debug(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Debugf is an alias of Debug
func Debugf(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Warn logs a formatted warning
func Warn(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Warnf is an alias of Warn
func Warnf(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Error logs a formatted error message
func Error(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// Errorf is an alias of Error
func Errorf(format string, args ...interface{}) {
	current().Errorf(format, args...)
}
