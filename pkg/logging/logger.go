// Package logging wraps github.com/sirupsen/logrus behind one package-level
// logger shared by every subsystem. Components obtain a tagged entry via
// For("buffer_pool"), For("heap_file") etc. so log lines carry a uniform
// component field.
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger   = logrus.New()
	initOnce sync.Once
)

// Config configures the package-level logger.
type Config struct {
	Level      string // "debug", "info", "warn", "error"
	OutputPath string // empty for stderr
	JSON       bool
}

// Init configures the global logger. Safe to call once at startup; later
// calls simply reconfigure the same instance.
func Init(cfg Config) error {
	initOnce.Do(func() {}) // a later Get must not reset this configuration

	if cfg.OutputPath != "" {
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		logger.SetOutput(f)
	} else {
		logger.SetOutput(os.Stderr)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false})
	}
	return nil
}

func initDefault() {
	initOnce.Do(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.InfoLevel)
	})
}

// Get returns the package-level logger, initializing sane defaults the
// first time it is called without an explicit Init.
func Get() *logrus.Logger {
	initDefault()
	return logger
}

// For returns a logger entry with the component field set.
func For(component string) *logrus.Entry {
	return Get().WithField("component", component)
}
