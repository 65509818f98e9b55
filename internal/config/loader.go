// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader. configPath may be empty,
// in which case only environment variables and defaults apply.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load resolves the effective configuration.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := mergeFile(&cfg, l.configPath); err != nil {
			return Config{}, err
		}
	}

	mergeEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays values from a YAML file onto cfg.
// A missing file is not an error; an unreadable or malformed one is.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// mergeEnv overlays environment variables onto cfg.
func mergeEnv(cfg *Config) {
	cfg.DataDir = ParseString("BELLO_DATA_DIR", cfg.DataDir)
	cfg.Listen = ParseString("BELLO_LISTEN", cfg.Listen)
	cfg.LogLevel = ParseString("BELLO_LOG_LEVEL", cfg.LogLevel)
	cfg.RateLimit = ParseInt("BELLO_RATE_LIMIT", cfg.RateLimit)
	cfg.Watch = ParseBool("BELLO_WATCH", cfg.Watch)
	cfg.ShutdownTimeout = ParseDuration("BELLO_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}
