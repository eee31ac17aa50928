package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

// Init configures the process-wide logger for the given APP_MODE
func Init(mode, level string) {
	base.SetOutput(os.Stdout)

	if mode == "prod" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// L returns the shared logger
func L() *logrus.Logger {
	return base
}

// WithFields is a shortcut for L().WithFields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return base.WithFields(fields)
}

// WithError is a shortcut for L().WithError
func WithError(err error) *logrus.Entry {
	return base.WithError(err)
}

// WithField is a shortcut for L().WithField
func WithField(key string, value interface{}) *logrus.Entry {
	return base.WithField(key, value)
}
