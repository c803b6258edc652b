package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogging configures the standard logrus logger. Unknown levels fall
// back to info.
func SetupLogging(cfg LogConfig) {
	logrus.SetOutput(os.Stdout)
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// Bootstrap loads .env and the logging config, then configures logrus.
// Every service main calls it first.
func Bootstrap(service string) *logrus.Entry {
	LoadEnvFile()
	var lc LogConfig
	if err := Parse(&lc); err != nil {
		logrus.WithError(err).Warn("Invalid logging configuration, using defaults")
		lc = LogConfig{Level: "info", Format: "text"}
	}
	SetupLogging(lc)
	return logrus.WithField("service", service)
}
