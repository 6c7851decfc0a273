package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "racetag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 20, cfg.Race.TotalLaps)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.Stream.HeartbeatInterval)
	assert.Zero(t, cfg.Stream.MaxPending)
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
race:
  total_laps: 5
stream:
  heartbeat_interval: 250ms
  max_pending: 128
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Race.TotalLaps)
	assert.Equal(t, 250*time.Millisecond, cfg.Stream.HeartbeatInterval)
	assert.Equal(t, 128, cfg.Stream.MaxPending)

	// Untouched keys keep their defaults.
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 64, cfg.Stream.FailureBuffer)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "race: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "race:\n  total_laps: 5\n")
	t.Setenv("RACETAG_TOTAL_LAPS", "12")
	t.Setenv("RACETAG_ADDR", "127.0.0.1:9000")
	t.Setenv("RACETAG_HEARTBEAT_INTERVAL", "2s")
	t.Setenv("RACETAG_JOURNAL_ENABLED", "false")
	t.Setenv("RACETAG_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Race.TotalLaps)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Stream.HeartbeatInterval)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("RACETAG_TOTAL_LAPS", "twenty")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RACETAG_TOTAL_LAPS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero laps", func(c *Config) { c.Race.TotalLaps = 0 }, "total_laps"},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "addr"},
		{"no shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "shutdown"},
		{"zero heartbeat", func(c *Config) { c.Stream.HeartbeatInterval = 0 }, "heartbeat"},
		{"negative max pending", func(c *Config) { c.Stream.MaxPending = -1 }, "max pending"},
		{"zero failure buffer", func(c *Config) { c.Stream.FailureBuffer = 0 }, "failure buffer"},
		{"journal without dir", func(c *Config) { c.Journal.Dir = "" }, "dir"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateDisabledJournalSkipsChecks(t *testing.T) {
	cfg := Default()
	cfg.Journal.Enabled = false
	cfg.Journal.Dir = ""
	assert.NoError(t, Validate(cfg))
}

func TestValidateNil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "racetag.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
