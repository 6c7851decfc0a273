//
//
package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/racetag/racetag/internal/audit"
	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/eventstore"
	"github.com/racetag/racetag/internal/race"
	"github.com/racetag/racetag/internal/telemetry"
)

// EventArrive is the only event type that mutates the ledger.
const EventArrive = "arrive"

// TagEvent is one item of a reader batch.
type TagEvent struct {
	TagID     string `json:"tag_id"`
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
	Antenna   *int   `json:"antenna,omitempty"`
	ReaderIP  string `json:"reader_ip,omitempty"`
}

// Rejection describes a refused batch item.
type Rejection struct {
	Index int    `json:"index"`
	TagID string `json:"tag_id"`
	Code  string `json:"code"`
	Err   error  `json:"-"`
}

// BatchResult summarizes one processed batch.
type BatchResult struct {
	BatchID  string
	Accepted int
	Rejected []Rejection
}

// Service turns reader batches into ledger updates and notifications.
type Service struct {
	// mu serializes record-then-publish so the lap and standings
	// notifications of one arrival are adjacent in every queue.
	mu sync.Mutex

	race      *race.Race
	publisher Publisher
	store     EventStore
	journal   Journal
	metrics   Recorder
	clk       clock.Clock
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEventStore keeps accepted items in store.
func WithEventStore(store EventStore) Option {
	return func(s *Service) { s.store = store }
}

// WithJournal records item outcomes to j.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithRecorder records metrics to m.
func WithRecorder(m Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the clock used to stamp stored events.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) { s.clk = clk }
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log.With().Str("component", "ingest").Logger() }
}

// NewService creates an ingestion service over r publishing to pub.
func NewService(r *race.Race, pub Publisher, opts ...Option) *Service {
	s := &Service{
		race:      r,
		publisher: pub,
		clk:       clock.System{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessBatch applies items in order. Invalid items are rejected without
// affecting the rest of the batch. If ctx is cancelled between items the
// remaining ones are skipped and the context error is returned with the
// partial result.
func (s *Service) ProcessBatch(ctx context.Context, items []TagEvent) (BatchResult, error) {
	start := s.clk.Now()
	result := BatchResult{BatchID: uuid.NewString()}

	log := s.log.With().Str("batch", result.BatchID).Logger()

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("processed", i).Int("total", len(items)).Msg("batch interrupted")
			return result, err
		}

		if err := s.processItem(result.BatchID, i, item); err != nil {
			code := audit.CodeFromError(err)
			result.Rejected = append(result.Rejected, Rejection{Index: i, TagID: item.TagID, Code: code, Err: err})
			s.observeItem(audit.OutcomeRejected, code)
			log.Debug().Int("index", i).Str("tag", item.TagID).Err(err).Msg("item rejected")
			continue
		}

		result.Accepted++
		s.observeItem(audit.OutcomeAccepted, "OK")
	}

	if s.metrics != nil {
		s.metrics.ObserveBatch(s.clk.Now().Sub(start))
	}
	log.Debug().
		Int("items", len(items)).
		Int("accepted", result.Accepted).
		Int("rejected", len(result.Rejected)).
		Msg("batch processed")

	return result, nil
}

func (s *Service) processItem(batchID string, index int, item TagEvent) error {
	if err := race.ValidateTagID(item.TagID); err != nil {
		s.reject(batchID, index, item, err)
		return err
	}

	if item.EventType != EventArrive {
		if _, err := clock.Parse(item.Timestamp); err != nil {
			err = fmt.Errorf("%s event for tag %s rejected: %w", item.EventType, item.TagID, err)
			s.reject(batchID, index, item, err)
			return err
		}
		s.storeEvent(item)
		if s.journal != nil {
			s.journal.Accepted(batchID, index, item.TagID, item.EventType, item.Timestamp, nil)
		}
		return nil
	}

	p, err := s.applyArrival(item)
	if err != nil {
		s.reject(batchID, index, item, err)
		return err
	}

	// Disk writes happen outside s.mu.
	s.storeEvent(item)
	if s.journal != nil {
		s.journal.Accepted(batchID, index, item.TagID, item.EventType, item.Timestamp, &p)
	}

	return nil
}

// applyArrival updates the ledger and publishes the lap and standings
// notifications as one adjacent pair.
func (s *Service) applyArrival(item TagEvent) (race.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.race.RecordArrival(item.TagID, item.Timestamp)
	if err != nil {
		return race.Participant{}, err
	}

	s.publish(LapNotification(p))
	s.publish(StandingsNotification(s.race.Standings()))

	return p, nil
}

// storeEvent keeps item in the event store. The ledger is authoritative, so
// a store failure is logged and the item still counts as accepted.
func (s *Service) storeEvent(item TagEvent) {
	if s.store == nil {
		return
	}
	_, err := s.store.Append(eventstore.TagEvent{
		TagID:      item.TagID,
		EventType:  item.EventType,
		Timestamp:  item.Timestamp,
		Antenna:    item.Antenna,
		ReaderIP:   item.ReaderIP,
		ReceivedAt: s.clk.Now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("tag", item.TagID).Msg("failed to store tag event")
	}
}

func (s *Service) reject(batchID string, index int, item TagEvent, err error) {
	if s.journal != nil {
		s.journal.Rejected(batchID, index, item.TagID, item.EventType, item.Timestamp, err)
	}
}

func (s *Service) publish(n telemetry.Notification) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(n)
	if s.metrics != nil {
		s.metrics.ObservePublished(n.Type)
	}
}

func (s *Service) observeItem(outcome, code string) {
	if s.metrics != nil {
		s.metrics.ObserveItem(outcome, code)
	}
}
