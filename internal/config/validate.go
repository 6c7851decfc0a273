//
//
package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Validate enforces configuration rules.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if cfg.Race.TotalLaps <= 0 {
		return fmt.Errorf("race total_laps must be positive, got %d", cfg.Race.TotalLaps)
	}

	if err := validateServer(cfg.Server); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	if err := validateStream(cfg.Stream); err != nil {
		return fmt.Errorf("stream validation failed: %w", err)
	}

	if err := validateJournal(cfg.Journal); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}

	if err := validateLog(cfg.Log); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}

	return nil
}

func validateServer(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", s.ShutdownTimeout)
	}
	return nil
}

func validateStream(s StreamConfig) error {
	if s.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", s.HeartbeatInterval)
	}
	if s.MaxPending < 0 {
		return fmt.Errorf("max pending must be non-negative, got %d", s.MaxPending)
	}
	if s.FailureBuffer <= 0 {
		return fmt.Errorf("failure buffer must be positive, got %d", s.FailureBuffer)
	}
	return nil
}

func validateJournal(j JournalConfig) error {
	if !j.Enabled {
		return nil
	}
	if j.Dir == "" {
		return fmt.Errorf("dir must not be empty when the journal is enabled")
	}
	if j.MaxSizeMB <= 0 {
		return fmt.Errorf("max size must be positive, got %d", j.MaxSizeMB)
	}
	if j.MaxBackups < 0 || j.MaxAgeDays < 0 {
		return fmt.Errorf("retention values must be non-negative")
	}
	return nil
}

func validateLog(l LogConfig) error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid level %q: %w", l.Level, err)
	}
	switch l.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("invalid format %q, must be console or json", l.Format)
	}
}
