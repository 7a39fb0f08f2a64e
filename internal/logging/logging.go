// Package logging holds the process-wide logrus logger.
package logging

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger is shared by every component that is not handed its own.
var Logger = logrus.New()

func init() {
	// set level from env
	if x, exists := os.LookupEnv("LOG"); exists {
		if level, err := logrus.ParseLevel(strings.ToLower(x)); err == nil {
			Logger.SetLevel(level)
		}
	}
}

// Configure sets the level and the format ("text" or "json") of Logger.
func Configure(level, format string) error {
	return apply(Logger, level, format)
}

func apply(l *logrus.Logger, levelName, format string) error {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return errors.Wrap(err, "logging")
	}
	l.SetLevel(level)

	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("logging: unknown format %q", format)
	}
	return nil
}

// Or returns l, or Logger when l is nil.
func Or(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Logger
	}
	return l
}
