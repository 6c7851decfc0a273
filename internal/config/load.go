//
//
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load merges Default() + optional YAML file + RACETAG_* env overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file keep their current value.
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies RACETAG_* environment variables to the config.
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("RACETAG_TOTAL_LAPS"); val != "" {
		laps, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("RACETAG_TOTAL_LAPS: %w", err)
		}
		cfg.Race.TotalLaps = laps
	}

	if val := os.Getenv("RACETAG_ADDR"); val != "" {
		cfg.Server.Addr = val
	}

	if val := os.Getenv("RACETAG_HEARTBEAT_INTERVAL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("RACETAG_HEARTBEAT_INTERVAL: %w", err)
		}
		cfg.Stream.HeartbeatInterval = d
	}

	if val := os.Getenv("RACETAG_STREAM_MAX_PENDING"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("RACETAG_STREAM_MAX_PENDING: %w", err)
		}
		cfg.Stream.MaxPending = n
	}

	if val := os.Getenv("RACETAG_JOURNAL_DIR"); val != "" {
		cfg.Journal.Dir = val
	}

	if val := os.Getenv("RACETAG_JOURNAL_ENABLED"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("RACETAG_JOURNAL_ENABLED: %w", err)
		}
		cfg.Journal.Enabled = enabled
	}

	if val := os.Getenv("RACETAG_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}

	if val := os.Getenv("RACETAG_LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}

	return nil
}
