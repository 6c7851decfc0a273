// Package api defines ports (interfaces) for API server dependencies.
package api

import (
	"context"
	"time"

	"github.com/racetag/racetag/internal/eventstore"
	"github.com/racetag/racetag/internal/ingest"
	"github.com/racetag/racetag/internal/race"
)

// IngestPort defines the minimal interface the API needs from ingestion.
type IngestPort interface {
	ProcessBatch(ctx context.Context, items []ingest.TagEvent) (ingest.BatchResult, error)
}

// RaceReadPort defines the read side of the race engine.
type RaceReadPort interface {
	TotalLaps() int
	StartTime() time.Time
	Standings() []race.Standing
	Summary() race.Summary
	Participant(tagID string) (race.Participant, bool)
	Len() int
}

// EventReadPort defines read access to stored tag events.
type EventReadPort interface {
	List(filter func(eventstore.TagEvent) bool) ([]eventstore.TagEvent, error)
	ListByTag(tagID string) ([]eventstore.TagEvent, error)
	Count() (int, error)
}

// Compile-time assertions for port conformance
var _ IngestPort = (*ingest.Service)(nil)
var _ RaceReadPort = (*race.Race)(nil)
var _ EventReadPort = (*eventstore.Store)(nil)
