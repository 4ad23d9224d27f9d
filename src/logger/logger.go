package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"watchlist-trader/src/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	base      = newBase()
	configure sync.Once
)

// -----------------------------------------------------------------------------

// Logger is a named component logger sharing one process-wide backend.
type Logger struct {
	name  string
	entry *logrus.Entry
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. The first non-nil config applies
// level and file output for the whole process.
func NewLogger(config *models.MConfig, name string) *Logger {
	if config != nil {
		configure.Do(func() {
			if err := Setup(config.LogLevel, config.LogFile); err != nil {
				base.Errorf("logger setup failed: %v", err)
			}
		})
	}
	return &Logger{
		name:  name,
		entry: base.WithField("component", name),
	}
}

// -----------------------------------------------------------------------------

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Setup sets the level and adds a rotated log file when file.Path is set.
func Setup(level string, file models.MLogFileConfig) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if file.Path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(file.Path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	base.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   file.Compress,
	}))
	return nil
}

// SetOutput redirects every logger, mostly for tests.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// -----------------------------------------------------------------------------

func (l *Logger) Name() string {
	return l.name
}

// With returns a child logger carrying an extra field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{name: l.name, entry: l.entry.WithField(key, value)}
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}
