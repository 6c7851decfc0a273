package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/racetag/racetag/internal/api"
	"github.com/racetag/racetag/internal/audit"
	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/config"
	"github.com/racetag/racetag/internal/eventstore"
	"github.com/racetag/racetag/internal/ingest"
	"github.com/racetag/racetag/internal/metrics"
	"github.com/racetag/racetag/internal/race"
	"github.com/racetag/racetag/internal/telemetry"
)

// ServeOptions holds flags that override the loaded configuration.
type ServeOptions struct {
	Addr      string
	TotalLaps int
	LogLevel  string
	LogFormat string
}

// NewServeCommand creates the serve command.
func NewServeCommand(root *RootOptions) *cobra.Command {
	return newServeCommand(root, &ServeOptions{})
}

func newServeCommand(root *RootOptions, opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, root, opts)
			if err != nil {
				return err
			}

			log := newLogger(cfg.Log, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().IntVar(&opts.TotalLaps, "total-laps", 0, "laps to finish (overrides race.total_laps)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides log.level)")
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", "", "log format console|json (overrides log.format)")

	return cmd
}

// loadServeConfig loads the file and environment layers, then applies the
// flags the user actually set.
func loadServeConfig(cmd *cobra.Command, root *RootOptions, opts *ServeOptions) (*config.Config, error) {
	cfg, err := config.Load(root.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = opts.Addr
	}
	if flags.Changed("total-laps") {
		cfg.Race.TotalLaps = opts.TotalLaps
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.LogFormat
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// run wires every component and serves until ctx is done.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	clk := clock.System{}

	r, err := race.NewRace(cfg.Race.TotalLaps, clk)
	if err != nil {
		return err
	}

	m := metrics.New()

	hub := telemetry.NewHub(
		telemetry.WithMaxPending(cfg.Stream.MaxPending),
		telemetry.WithFailureBuffer(cfg.Stream.FailureBuffer),
		telemetry.WithLogger(log),
		telemetry.WithFailureHook(m.ObserveDeliveryFailure),
	)
	m.RegisterGauge("stream", "subscribers", "Connected stream observers.", func() float64 {
		return float64(hub.Count())
	})
	m.RegisterGauge("race", "participants", "Participants seen in the current race.", func() float64 {
		return float64(r.Len())
	})

	store, err := eventstore.Open(log)
	if err != nil {
		hub.Stop()
		return err
	}

	var journal *audit.Logger
	if cfg.Journal.Enabled {
		journal, err = audit.NewLogger(audit.Options{
			Dir:        cfg.Journal.Dir,
			MaxSizeMB:  cfg.Journal.MaxSizeMB,
			MaxBackups: cfg.Journal.MaxBackups,
			MaxAgeDays: cfg.Journal.MaxAgeDays,
			Compress:   cfg.Journal.Compress,
		}, log)
		if err != nil {
			hub.Stop()
			_ = store.Close()
			return err
		}
	}

	svc := ingest.NewService(r, hub,
		ingest.WithEventStore(store),
		ingest.WithJournal(journal),
		ingest.WithRecorder(m),
		ingest.WithClock(clk),
		ingest.WithLogger(log),
	)

	server := api.NewServer(api.Deps{
		Race:    r,
		Ingest:  svc,
		Events:  store,
		Hub:     hub,
		Metrics: m,
		Clock:   clk,
		Logger:  log,
	}, cfg.Server, cfg.Stream)

	log.Info().
		Str("version", Version).
		Int("total_laps", cfg.Race.TotalLaps).
		Bool("journal", cfg.Journal.Enabled).
		Msg("racetag starting")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.Server.Addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case runErr = <-serverErr:
		if runErr != nil {
			log.Error().Err(runErr).Msg("http server failed")
		}
	}

	// Streams only end once their subscriptions close, so the hub stops first.
	hub.Stop()

	if err := server.Stop(context.Background()); err != nil {
		log.Error().Err(err).Msg("error stopping http server")
	}
	closeQuietly(log, "journal", journal)
	closeQuietly(log, "event store", store)

	log.Info().Msg("racetag stopped")
	return runErr
}

func closeQuietly(log zerolog.Logger, name string, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Error().Err(err).Str("resource", name).Msg("close failed")
	}
}
