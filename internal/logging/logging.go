// Package logging provides the shared logrus configuration.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a convenience alias for structured log fields.
type Fields = logrus.Fields

// New creates a configured logger. Level and format are controlled by the
// BIRDWATCH_LOG_LEVEL and BIRDWATCH_LOG_FORMAT environment variables.
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if os.Getenv("BIRDWATCH_LOG_FORMAT") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if lvl, err := logrus.ParseLevel(os.Getenv("BIRDWATCH_LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}

	return logger
}
