package config

import "time"

// Config is the complete service configuration.
type Config struct {
	Race    RaceConfig    `yaml:"race"`
	Server  ServerConfig  `yaml:"server"`
	Stream  StreamConfig  `yaml:"stream"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

// RaceConfig holds race rules.
type RaceConfig struct {
	TotalLaps int `yaml:"total_laps"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"` // 0 keeps SSE connections open
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StreamConfig holds live update settings.
type StreamConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	MaxPending        int           `yaml:"max_pending"` // 0 means unbounded
	FailureBuffer     int           `yaml:"failure_buffer"`
}

// JournalConfig holds ingestion journal settings.
type JournalConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console|json
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Race: RaceConfig{
			TotalLaps: 20,
		},
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Stream: StreamConfig{
			HeartbeatInterval: 1 * time.Second,
			MaxPending:        0,
			FailureBuffer:     64,
		},
		Journal: JournalConfig{
			Enabled:    true,
			Dir:        "logs",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
