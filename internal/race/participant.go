package race

import (
	"fmt"
	"time"

	"github.com/racetag/racetag/internal/clock"
)

// Participant is the ledger state for one tag.
type Participant struct {
	TagID        string
	Laps         int
	LastPassTime time.Time
	Finished     bool
	FinishTime   time.Time
	TotalTimeMs  int64

	// seq is the creation order, used as the last ranking tie-break.
	seq int
}

// State returns the lifecycle state name.
func (p Participant) State() string {
	switch {
	case p.Finished:
		return "FINISHED"
	case p.Laps > 0:
		return "ACTIVE"
	default:
		return "UNSEEN"
	}
}

// ReferenceTime is the finish time if finished, else the last pass time.
// The boolean is false when no reference exists yet.
func (p Participant) ReferenceTime() (time.Time, bool) {
	if p.Finished {
		return p.FinishTime, true
	}
	if p.Laps == 0 {
		return time.Time{}, false
	}
	return p.LastPassTime, true
}

// CappedLaps clamps the lap count to the race total.
func (p Participant) CappedLaps(totalLaps int) int {
	if p.Laps > totalLaps {
		return totalLaps
	}
	return p.Laps
}

// View is the wire representation of a participant, optionally carrying
// standings metrics.
type View struct {
	Position     int     `json:"position,omitempty"`
	TagID        string  `json:"tag_id"`
	Laps         int     `json:"laps"`
	LastPassTime *string `json:"last_pass_time"`
	FinishTime   *string `json:"finish_time"`
	Finished     bool    `json:"finished"`
	TotalTimeMs  *int64  `json:"total_time_ms"`
	GapMs        *int64  `json:"gap_ms"`
	LapsBehind   *int    `json:"laps_behind"`
	State        string  `json:"state,omitempty"`
}

// View renders the participant without standings metrics.
func (p Participant) View() View {
	v := View{
		TagID:    p.TagID,
		Laps:     p.Laps,
		Finished: p.Finished,
	}
	if p.Laps > 0 {
		s := clock.Format(p.LastPassTime)
		v.LastPassTime = &s
	}
	if p.Finished {
		s := clock.Format(p.FinishTime)
		v.FinishTime = &s
	}
	if _, ok := p.ReferenceTime(); ok {
		ms := p.TotalTimeMs
		v.TotalTimeMs = &ms
	}
	return v
}

func (p Participant) String() string {
	return fmt.Sprintf("tag: %v, laps: %v, finished: %v, last: %v",
		p.TagID,
		p.Laps,
		p.Finished,
		p.LastPassTime,
	)
}
