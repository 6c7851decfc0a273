//
//
package race

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/racetag/racetag/internal/clock"
)

// Race is the engine for a single lap race. All ledger access goes through
// mu: RecordArrival takes the write lock, projections take the read lock.
type Race struct {
	mu           sync.RWMutex
	totalLaps    int
	startTime    time.Time
	participants map[string]*Participant
	nextSeq      int
}

// Standing is one ranked row of the classification.
type Standing struct {
	Participant
	Position   int
	GapMs      *int64
	LapsBehind *int
}

// Summary is the raw race state without ranking.
type Summary struct {
	TotalLaps    int
	StartTime    time.Time
	Participants []Participant
}

// NewRace creates a race with the given finish threshold. The start time is
// taken from clk at creation and never changes.
func NewRace(totalLaps int, clk clock.Clock) (*Race, error) {
	if totalLaps <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTotalLaps, totalLaps)
	}
	if clk == nil {
		clk = clock.System{}
	}

	return &Race{
		totalLaps:    totalLaps,
		startTime:    clk.Now().UTC(),
		participants: make(map[string]*Participant),
	}, nil
}

// TotalLaps returns the configured finish threshold.
func (r *Race) TotalLaps() int {
	return r.totalLaps
}

// StartTime returns the race start instant.
func (r *Race) StartTime() time.Time {
	return r.startTime
}

// RecordArrival applies one arrival for tagID at the wire timestamp passTime
// and returns the updated participant snapshot. A malformed timestamp is
// rejected before any mutation.
func (r *Race) RecordArrival(tagID, passTime string) (Participant, error) {
	if err := ValidateTagID(tagID); err != nil {
		return Participant{}, err
	}
	t, err := clock.Parse(passTime)
	if err != nil {
		return Participant{}, fmt.Errorf("arrival for tag %s rejected: %w", tagID, err)
	}
	return r.RecordArrivalAt(tagID, t)
}

// RecordArrivalAt applies one arrival at an already parsed instant.
func (r *Race) RecordArrivalAt(tagID string, passTime time.Time) (Participant, error) {
	if err := ValidateTagID(tagID); err != nil {
		return Participant{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.participants[tagID]
	if !exists {
		p = &Participant{TagID: tagID, seq: r.nextSeq}
		r.nextSeq++
		r.participants[tagID] = p
	}

	prevLaps := p.Laps
	wasFinished := p.Finished

	p.Laps++
	p.LastPassTime = passTime

	// First crossing wins; later passes never move the finish.
	if !p.Finished && p.Laps >= r.totalLaps {
		p.Finished = true
		p.FinishTime = passTime
	}

	if !wasFinished {
		ref, _ := p.ReferenceTime()
		p.TotalTimeMs = ref.Sub(r.startTime).Milliseconds()
	}

	if p.Laps != prevLaps+1 || (wasFinished && !p.Finished) {
		panic(fmt.Sprintf("race: ledger invariant violated for tag %s", tagID))
	}

	return *p, nil
}

// Participant returns a snapshot of a single participant.
func (r *Race) Participant(tagID string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.participants[tagID]
	if !exists {
		return Participant{}, false
	}
	return *p, true
}

// Len returns the number of participants seen so far.
func (r *Race) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// Summary returns the race configuration and every participant, in
// creation order.
func (r *Race) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Summary{
		TotalLaps:    r.totalLaps,
		StartTime:    r.startTime,
		Participants: r.snapshotLocked(),
	}
}

// Standings ranks every participant and computes gap and laps behind
// relative to the leader. It never mutates the ledger.
func (r *Race) Standings() []Standing {
	r.mu.RLock()
	list := r.snapshotLocked()
	totalLaps := r.totalLaps
	r.mu.RUnlock()

	return rank(list, totalLaps)
}

// snapshotLocked copies the ledger. Caller must hold r.mu.
func (r *Race) snapshotLocked() []Participant {
	list := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		list = append(list, *p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	return list
}

// rank orders participants by finished flag, capped laps, then earliest
// reference time, and fills in the leader-relative metrics.
func rank(list []Participant, totalLaps int) []Standing {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Finished != b.Finished {
			return a.Finished
		}
		if ca, cb := a.CappedLaps(totalLaps), b.CappedLaps(totalLaps); ca != cb {
			return ca > cb
		}
		ra, okA := a.ReferenceTime()
		rb, okB := b.ReferenceTime()
		if okA != okB {
			return okA
		}
		if okA && clock.Millis(ra) != clock.Millis(rb) {
			return clock.Millis(ra) < clock.Millis(rb)
		}
		return a.seq < b.seq
	})

	standings := make([]Standing, len(list))
	if len(list) == 0 {
		return standings
	}

	leader := list[0]
	leaderCapped := leader.CappedLaps(totalLaps)
	leaderRef, leaderHasRef := leader.ReferenceTime()

	for i, p := range list {
		s := Standing{Participant: p, Position: i + 1}

		behind := leaderCapped - p.CappedLaps(totalLaps)
		if behind < 0 {
			behind = 0
		}
		s.LapsBehind = &behind

		if i > 0 && behind == 0 && leaderHasRef {
			if ref, ok := p.ReferenceTime(); ok {
				gap := clock.Millis(ref) - clock.Millis(leaderRef)
				if gap < 0 {
					gap = 0
				}
				s.GapMs = &gap
			}
		}

		standings[i] = s
	}

	return standings
}

// View renders the standing with its metrics.
func (s Standing) View() View {
	v := s.Participant.View()
	v.Position = s.Position
	v.GapMs = s.GapMs
	v.LapsBehind = s.LapsBehind
	return v
}

// Views renders a full classification.
func Views(standings []Standing) []View {
	out := make([]View, len(standings))
	for i, s := range standings {
		out[i] = s.View()
	}
	return out
}
