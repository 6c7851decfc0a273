package ingest

import (
	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/race"
	"github.com/racetag/racetag/internal/telemetry"
)

// LapNotification reports one participant's progress after an arrival.
func LapNotification(p race.Participant) telemetry.Notification {
	return telemetry.Notification{
		Type: telemetry.TypeLap,
		Data: map[string]interface{}{
			"type":           telemetry.TypeLap,
			"tag_id":         p.TagID,
			"laps":           p.Laps,
			"finished":       p.Finished,
			"last_pass_time": clock.Format(p.LastPassTime),
		},
	}
}

// StandingsNotification carries a full classification snapshot.
func StandingsNotification(standings []race.Standing) telemetry.Notification {
	return telemetry.Notification{
		Type: telemetry.TypeStandings,
		Data: map[string]interface{}{
			"type":  telemetry.TypeStandings,
			"items": race.Views(standings),
		},
	}
}
