package ingest

import (
	"time"

	"github.com/racetag/racetag/internal/audit"
	"github.com/racetag/racetag/internal/eventstore"
	"github.com/racetag/racetag/internal/metrics"
	"github.com/racetag/racetag/internal/race"
	"github.com/racetag/racetag/internal/telemetry"
)

// Publisher receives live notifications.
type Publisher interface {
	Publish(n telemetry.Notification) telemetry.Notification
}

// EventStore keeps accepted items.
type EventStore interface {
	Append(e eventstore.TagEvent) (eventstore.TagEvent, error)
}

// Journal records per-item outcomes.
type Journal interface {
	Accepted(batchID string, index int, tagID, eventType, passTime string, p *race.Participant)
	Rejected(batchID string, index int, tagID, eventType, passTime string, err error)
}

// Recorder collects ingestion metrics.
type Recorder interface {
	ObserveBatch(d time.Duration)
	ObserveItem(outcome, code string)
	ObservePublished(kind string)
}

var (
	_ Publisher  = (*telemetry.Hub)(nil)
	_ EventStore = (*eventstore.Store)(nil)
	_ Journal    = (*audit.Logger)(nil)
	_ Recorder   = (*metrics.Metrics)(nil)
)
