// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Limits   LimitsConfig   `toml:"limits"`
	API      APIConfig      `toml:"api"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Topic            *string  `toml:"topic"`
	SessionLimit     *int     `toml:"session-limit"`
	CountdownSeconds *float64 `toml:"countdown"`
}

// LimitsConfig maps the outbound request caps.
type LimitsConfig struct {
	PerMinute *int `toml:"per-minute"`
	PerHour   *int `toml:"per-hour"`
	PerDay    *int `toml:"per-day"`
}

// APIConfig maps question API settings. The API key is never read from the
// file; it comes from the environment.
type APIConfig struct {
	BaseURL        *string `toml:"base-url"`
	TimeoutSeconds *int    `toml:"timeout"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
