// SPDX-License-Identifier: MIT

// Package config handles daemon configuration with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the daemon configuration.
type Config struct {
	// DataDir is the root directory for the video store and metadata file.
	DataDir string `yaml:"data_dir"`
	// Listen is the HTTP listen address for the collaborator API.
	Listen string `yaml:"listen"`
	// LogLevel sets the global zerolog level.
	LogLevel string `yaml:"log_level"`
	// RateLimit caps API requests per client IP per minute. 0 disables limiting.
	RateLimit int `yaml:"rate_limit"`
	// Watch enables the fsnotify watcher on the videos directory.
	Watch bool `yaml:"watch"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults returns the built-in default configuration.
func Defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:         filepath.Join(home, ".bello"),
		Listen:          "127.0.0.1:8475",
		LogLevel:        "info",
		RateLimit:       120,
		Watch:           true,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for obvious mistakes.
// Invalid config keeps the daemon from starting; there is no partial mode.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %d", c.RateLimit)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
