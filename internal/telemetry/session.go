//
//
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/racetag/racetag/internal/clock"
)

// DefaultHeartbeatInterval is the idle wait between keepalive comments.
const DefaultHeartbeatInterval = time.Second

// SessionConfig configures one stream session.
type SessionConfig struct {
	Heartbeat time.Duration
	Filter    *Filter
	Clock     clock.Clock
	Logger    zerolog.Logger
}

// Session streams one subscription to an SSE observer.
type Session struct {
	hub       *Hub
	w         http.ResponseWriter
	heartbeat time.Duration
	filter    *Filter
	clk       clock.Clock
	log       zerolog.Logger
}

// NewSession prepares a session over w. Nothing is subscribed until Run.
func NewSession(hub *Hub, w http.ResponseWriter, cfg SessionConfig) *Session {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeatInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}

	return &Session{
		hub:       hub,
		w:         w,
		heartbeat: cfg.Heartbeat,
		filter:    cfg.Filter,
		clk:       cfg.Clock,
		log:       cfg.Logger,
	}
}

// Run subscribes, then streams until ctx is cancelled, the hub closes the
// subscription, or a write fails. The subscription is removed on every exit.
//
// Cancellation is only observed between frames.
func (s *Session) Run(ctx context.Context) error {
	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	log := s.log.With().Str("subscription", sub.ID).Logger()
	log.Debug().Str("filter", s.filter.String()).Msg("stream opened")
	defer func() { log.Debug().Msg("stream closed") }()

	s.writeHeaders()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if n, ok := sub.TryNext(); ok {
			if !s.filter.Match(n) {
				continue
			}
			if err := writeFrame(s.w, n); err != nil {
				return err
			}
			s.flush()
			continue
		}

		if sub.Closed() {
			return nil
		}

		if err := writeHeartbeat(s.w, s.clk.Now()); err != nil {
			return err
		}
		s.flush()

		timer := time.NewTimer(s.heartbeat)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-sub.Wait():
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Session) writeHeaders() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flush()
}

func (s *Session) flush() {
	if flusher, ok := s.w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// writeFrame renders n as one SSE event.
func writeFrame(w io.Writer, n Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification %d: %w", n.ID, err)
	}

	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", n.ID, n.Type, data); err != nil {
		return fmt.Errorf("failed to write notification %d: %w", n.ID, err)
	}
	return nil
}

// writeHeartbeat renders an SSE comment line, ignored by EventSource clients.
func writeHeartbeat(w io.Writer, now time.Time) error {
	if _, err := fmt.Fprintf(w, ": keepalive %s\n\n", clock.Format(now)); err != nil {
		return fmt.Errorf("failed to write heartbeat: %w", err)
	}
	return nil
}
