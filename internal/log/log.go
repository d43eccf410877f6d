// Package log provides the leveled logger used across the module. It is a
// thin wrapper around logrus so callers never touch the backend directly.
package log

import (
	"io"
	"os"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
)

// Config controls how log lines are written. Colour is opt-in and lives here
// rather than in any package level switch.
type Config struct {
	Level  string
	Color  bool
	Output io.Writer
}

const timestampFormat = "2006-01-02 15:04:05.000"

var logger = newLogger(Config{Level: "info"})

func newLogger(cfg Config) *logrus.Logger {
	l := logrus.New()

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Color {
		out = ansicolor.NewAnsiColorWriter(out)
	}
	l.SetOutput(out)
	l.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		NoColors:        !cfg.Color,
		TimestampFormat: timestampFormat,
	})

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// Configure replaces the active logger. It is meant to be called once from
// main before any other package logs.
func Configure(cfg Config) {
	logger = newLogger(cfg)
}

// SetLevel changes the minimum level; unknown names are ignored.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logger.Warnf("unknown log level %q", level)
		return
	}
	logger.SetLevel(lvl)
}

func IsDebug() bool { return logger.IsLevelEnabled(logrus.DebugLevel) }

func Debug(args ...interface{})                 { logger.Debug(args...) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Info(args ...interface{})                  { logger.Info(args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warn(args ...interface{})                  { logger.Warn(args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(args ...interface{})                 { logger.Error(args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Fatal(args ...interface{})                 { logger.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { logger.Fatalf(format, args...) }
