package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racetag/racetag/internal/config"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "racetag "+Version+"\n", out.String())
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "racetag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("race:\n  total_laps: 5\nserver:\n  addr: \":9000\"\n"), 0o600))

	root := &RootOptions{ConfigPath: path}
	opts := &ServeOptions{}
	cmd := newServeCommand(root, opts)
	require.NoError(t, cmd.Flags().Parse([]string{"--total-laps", "12", "--log-format", "json"}))

	cfg, err := loadServeConfig(cmd, root, opts)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Race.TotalLaps)
	assert.Equal(t, ":9000", cfg.Server.Addr, "unset flags keep file values")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestServeRejectsInvalidFlag(t *testing.T) {
	root := &RootOptions{}
	opts := &ServeOptions{}
	cmd := newServeCommand(root, opts)
	require.NoError(t, cmd.Flags().Parse([]string{"--total-laps", "0"}))

	_, err := loadServeConfig(cmd, root, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_laps")
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Journal.Dir = filepath.Join(t.TempDir(), "logs")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zerolog.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"service":"racetag"`)
}
