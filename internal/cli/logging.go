package cli

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/racetag/racetag/internal/config"
)

// newLogger builds the root logger from cfg. Level and format are validated
// by config.Validate.
func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "racetag").Logger()
}
