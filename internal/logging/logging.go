// Package logging configures the shared structured logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// L returns the shared logger instance.
func L() *logrus.Logger {
	return logger
}

// Setup adjusts the shared logger from runtime configuration.
func Setup(verbose, noColor bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if noColor {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
