//
//
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/eventstore"
	"github.com/racetag/racetag/internal/export"
	"github.com/racetag/racetag/internal/ingest"
	"github.com/racetag/racetag/internal/race"
	"github.com/racetag/racetag/internal/telemetry"
)

// maxBatchBytes bounds the request body of one ingestion batch.
const maxBatchBytes = 8 << 20

// RegisterRoutes registers all endpoints on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s is not allowed on %s", r.Method, r.URL.Path), nil)
	})

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Post("/events/tag/batch", s.handleBatch)
	r.Get("/events", s.handleEvents)

	r.Get("/classification", s.handleClassification)
	r.Get("/classification.xlsx", s.handleClassificationXLSX)

	r.Get("/race", s.handleRace)
	r.Get("/race/participants/{tagID}", s.handleParticipant)

	r.Get("/stream", s.handleStream)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"uptimeSec": int64(s.clk.Now().Sub(s.startTime).Seconds()),
	}
	if s.hub != nil {
		health["subscribers"] = s.hub.Count()
		health["lastEventId"] = s.hub.LastID()
	}
	if s.race != nil {
		health["participants"] = s.race.Len()
	}
	if s.events != nil {
		if n, err := s.events.Count(); err == nil {
			health["storedEvents"] = n
		}
	}

	WriteSuccess(w, health)
}

// handleBatch handles POST /events/tag/batch
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		WriteAPIError(w, ErrUnavailable)
		return
	}

	var items []ingest.TagEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err := dec.Decode(&items); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Body must be a JSON array of tag events", nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON array", nil)
		return
	}

	result, err := s.ingest.ProcessBatch(r.Context(), items)
	if err != nil {
		s.log.Warn().Err(err).Int("accepted", result.Accepted).Msg("batch interrupted")
		WriteAPIError(w, err)
		return
	}

	rejected := result.Rejected
	if rejected == nil {
		rejected = []ingest.Rejection{}
	}
	WriteSuccess(w, map[string]interface{}{
		"accepted": result.Accepted,
		"batchId":  result.BatchID,
		"rejected": rejected,
	})
}

// handleEvents handles GET /events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		WriteAPIError(w, ErrUnavailable)
		return
	}

	var (
		events []eventstore.TagEvent
		err    error
	)
	if tagID := r.URL.Query().Get("tag_id"); tagID != "" {
		events, err = s.events.ListByTag(tagID)
	} else {
		events, err = s.events.List(nil)
	}
	if err != nil {
		WriteAPIError(w, err)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

// handleClassification handles GET /classification
func (s *Server) handleClassification(w http.ResponseWriter, r *http.Request) {
	if s.race == nil {
		WriteAPIError(w, ErrUnavailable)
		return
	}

	items := race.Views(s.race.Standings())
	WriteSuccess(w, map[string]interface{}{
		"count":     len(items),
		"standings": items,
	})
}

// handleClassificationXLSX handles GET /classification.xlsx
func (s *Server) handleClassificationXLSX(w http.ResponseWriter, r *http.Request) {
	if s.race == nil {
		WriteAPIError(w, ErrUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, s.race.TotalLaps(), s.race.StartTime(), s.race.Standings()); err != nil {
		WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=classification.xlsx")
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleRace handles GET /race
func (s *Server) handleRace(w http.ResponseWriter, r *http.Request) {
	if s.race == nil {
		WriteAPIError(w, ErrUnavailable)
		return
	}

	summary := s.race.Summary()
	participants := make([]race.View, len(summary.Participants))
	for i, p := range summary.Participants {
		participants[i] = p.View()
	}

	WriteSuccess(w, map[string]interface{}{
		"total_laps":   summary.TotalLaps,
		"start_time":   clock.Format(summary.StartTime),
		"participants": participants,
	})
}

// handleParticipant handles GET /race/participants/{tagID}
func (s *Server) handleParticipant(w http.ResponseWriter, r *http.Request) {
	if s.race == nil {
		WriteAPIError(w, ErrUnavailable)
		return
	}

	tagID := chi.URLParam(r, "tagID")
	p, ok := s.race.Participant(tagID)
	if !ok {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Participant %s not found", tagID), nil)
		return
	}

	view := p.View()
	view.State = p.State()
	WriteSuccess(w, view)
}

// handleStream handles GET /stream
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		WriteAPIError(w, ErrUnavailable)
		return
	}
	if _, ok := w.(http.Flusher); !ok {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "Streaming not supported", nil)
		return
	}

	filter, err := telemetry.CompileFilter(r.URL.Query().Get("filter"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	session := telemetry.NewSession(s.hub, w, telemetry.SessionConfig{
		Heartbeat: s.heartbeat,
		Filter:    filter,
		Clock:     s.clk,
		Logger:    s.log,
	})
	if err := session.Run(r.Context()); err != nil {
		s.log.Debug().Err(err).Msg("stream ended")
	}
}
