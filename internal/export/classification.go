// Package export renders the classification as an XLSX results protocol.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/race"
)

const (
	// ClassificationSheet holds one row per ranked participant.
	ClassificationSheet = "Classification"
	// RaceSheet holds race level information.
	RaceSheet = "Race"

	// ContentType is the MIME type of the workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []string{"Pos", "Tag", "Laps", "Finished", "Last pass", "Finish time", "Total time", "Gap", "Laps behind"}

// Classification builds a workbook with the ranked standings and race info.
// The caller closes the returned file.
func Classification(totalLaps int, start time.Time, standings []race.Standing) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", ClassificationSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	finishedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create row style: %w", err)
	}

	for col, title := range header {
		if err := setCell(f, ClassificationSheet, col+1, 1, title); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(ClassificationSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, s := range standings {
		row := i + 2
		values := []interface{}{
			s.Position,
			s.TagID,
			s.Laps,
			yesNo(s.Finished),
			formatTime(s.LastPassTime),
			formatFinish(s.Participant),
			formatTotal(s.Participant),
			formatGap(s.GapMs),
			formatLapsBehind(s.LapsBehind),
		}
		for col, v := range values {
			if err := setCell(f, ClassificationSheet, col+1, row, v); err != nil {
				return nil, err
			}
		}
		if s.Finished {
			from, _ := excelize.CoordinatesToCellName(1, row)
			to, _ := excelize.CoordinatesToCellName(len(header), row)
			if err := f.SetCellStyle(ClassificationSheet, from, to, finishedStyle); err != nil {
				return nil, fmt.Errorf("failed to style row %d: %w", row, err)
			}
		}
	}
	if err := f.SetColWidth(ClassificationSheet, "B", "B", 24); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(ClassificationSheet, "E", "G", 26); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	if _, err := f.NewSheet(RaceSheet); err != nil {
		return nil, fmt.Errorf("failed to add race sheet: %w", err)
	}
	info := [][2]interface{}{
		{"Total laps", totalLaps},
		{"Start time", clock.Format(start)},
		{"Participants", len(standings)},
	}
	for i, kv := range info {
		if err := setCell(f, RaceSheet, 1, i+1, kv[0]); err != nil {
			return nil, err
		}
		if err := setCell(f, RaceSheet, 2, i+1, kv[1]); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Write renders the workbook to w.
func Write(w io.Writer, totalLaps int, start time.Time, standings []race.Standing) error {
	f, err := Classification(totalLaps, start, standings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return clock.Format(t)
}

func formatFinish(p race.Participant) string {
	if !p.Finished {
		return ""
	}
	return clock.Format(p.FinishTime)
}

func formatTotal(p race.Participant) string {
	if _, ok := p.ReferenceTime(); !ok {
		return ""
	}
	return FormatElapsed(p.TotalTimeMs)
}

func formatGap(gap *int64) string {
	if gap == nil {
		return ""
	}
	return "+" + FormatElapsed(*gap)
}

func formatLapsBehind(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}

// FormatElapsed renders milliseconds as h:mm:ss.mmm, dropping a zero hour.
func FormatElapsed(ms int64) string {
	neg := ms < 0
	if neg {
		ms = -ms
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	frac := ms % 1000

	var out string
	if h > 0 {
		out = fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
	} else {
		out = fmt.Sprintf("%02d:%02d.%03d", m, s, frac)
	}
	if neg {
		return "-" + out
	}
	return out
}
