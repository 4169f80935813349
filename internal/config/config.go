// Package config loads labflow settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's settings. A missing config file is not an error;
// defaults and environment variables cover everything.
type Config struct {
	// DBPath is the SQLite database location. Defaults to ~/.labflow/labflow.db.
	DBPath string `yaml:"db_path"`
	// AccountID identifies the acting principal. Every command resolves a
	// fresh permission envelope for it.
	AccountID string `yaml:"account_id"`
	// LogUseCases enables structured use-case logging to stderr.
	LogUseCases bool `yaml:"log_use_cases"`
}

// Load reads the config file at path (or the default location when path is
// empty), then applies LABFLOW_DB and LABFLOW_ACCOUNT overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".labflow", "config.yaml")
		}
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if v := os.Getenv("LABFLOW_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LABFLOW_ACCOUNT"); v != "" {
		cfg.AccountID = v
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".labflow", "labflow.db")
	}
	return cfg, nil
}
