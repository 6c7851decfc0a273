//
//
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/config"
	"github.com/racetag/racetag/internal/metrics"
	"github.com/racetag/racetag/internal/telemetry"
)

// Deps are the collaborators served by the API.
type Deps struct {
	Race    RaceReadPort
	Ingest  IngestPort
	Events  EventReadPort
	Hub     *telemetry.Hub
	Metrics *metrics.Metrics
	Clock   clock.Clock
	Logger  zerolog.Logger
}

// Server represents the HTTP API server.
type Server struct {
	httpServer *http.Server

	race    RaceReadPort
	ingest  IngestPort
	events  EventReadPort
	hub     *telemetry.Hub
	metrics *metrics.Metrics
	clk     clock.Clock
	log     zerolog.Logger

	heartbeat time.Duration
	startTime time.Time

	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(deps Deps, serverCfg config.ServerConfig, streamCfg config.StreamConfig) *Server {
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}

	s := &Server{
		race:            deps.Race,
		ingest:          deps.Ingest,
		events:          deps.Events,
		hub:             deps.Hub,
		metrics:         deps.Metrics,
		clk:             clk,
		log:             deps.Logger.With().Str("component", "api").Logger(),
		heartbeat:       streamCfg.HeartbeatInterval,
		startTime:       clk.Now(),
		readTimeout:     serverCfg.ReadTimeout,
		writeTimeout:    serverCfg.WriteTimeout,
		idleTimeout:     serverCfg.IdleTimeout,
		shutdownTimeout: serverCfg.ShutdownTimeout,
	}
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}

	return s
}

// Handler builds the router with the middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	s.RegisterRoutes(r)
	return r
}

// Start starts the HTTP server and blocks until it stops. It returns nil
// after Stop, even when Stop ran first.
func (s *Server) Start(addr string) error {
	s.httpServer.Addr = addr

	s.log.Info().Str("addr", addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
