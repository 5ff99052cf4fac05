// Package logger wraps logrus behind a small interface so components depend
// on the contract, not the library, and tests can swap in a silent logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logging contract used across the generator.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	WithField(key string, value any) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	WithComponent(component string) Logger
}

// Fields is a map of key-value pairs for structured logging.
type Fields map[string]any

// Level represents log levels.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Format represents log output formats.
type Format string

const (
	JSONFormat Format = "json"
	TextFormat Format = "text"
)

// Config holds logger options.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// DefaultConfig returns the default logger configuration: info-level text on
// stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  InfoLevel,
		Format: TextFormat,
		Output: os.Stderr,
	}
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New creates a logger with the given configuration.
func New(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}

	l := logrus.New()
	l.SetLevel(level)
	if config.Output != nil {
		l.SetOutput(config.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	switch config.Format {
	case JSONFormat:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}, nil
}

func (l *logrusLogger) Debug(args ...any)                 { l.entry.Debug(args...) }
func (l *logrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Info(args ...any)                  { l.entry.Info(args...) }
func (l *logrusLogger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warn(args ...any)                  { l.entry.Warn(args...) }
func (l *logrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Error(args ...any)                 { l.entry.Error(args...) }
func (l *logrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{entry: l.entry.WithError(err)}
}

func (l *logrusLogger) WithComponent(component string) Logger {
	return l.WithField("component", component)
}

var globalLogger Logger

func init() {
	var err error
	globalLogger, err = New(DefaultConfig())
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize logger")
	}
}

// SetGlobal replaces the process-global logger instance.
func SetGlobal(l Logger) {
	globalLogger = l
}

// Global returns the process-global logger instance.
func Global() Logger {
	return globalLogger
}

// Package-level helpers delegating to the global logger.

func Debug(args ...any)                 { globalLogger.Debug(args...) }
func Debugf(format string, args ...any) { globalLogger.Debugf(format, args...) }
func Info(args ...any)                  { globalLogger.Info(args...) }
func Infof(format string, args ...any)  { globalLogger.Infof(format, args...) }
func Warn(args ...any)                  { globalLogger.Warn(args...) }
func Warnf(format string, args ...any)  { globalLogger.Warnf(format, args...) }
func Error(args ...any)                 { globalLogger.Error(args...) }
func Errorf(format string, args ...any) { globalLogger.Errorf(format, args...) }

func WithField(key string, value any) Logger { return globalLogger.WithField(key, value) }
func WithFields(fields Fields) Logger        { return globalLogger.WithFields(fields) }
func WithError(err error) Logger             { return globalLogger.WithError(err) }
func WithComponent(component string) Logger  { return globalLogger.WithComponent(component) }
