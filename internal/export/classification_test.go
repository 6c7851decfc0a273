package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/race"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func sampleStandings(t *testing.T) []race.Standing {
	t.Helper()
	r, err := race.NewRace(2, clock.NewManualClockAt(t0))
	require.NoError(t, err)

	for _, a := range []struct {
		tag string
		sec int
	}{
		{"A", 60}, {"B", 62}, {"A", 120}, {"B", 125}, {"C", 70},
	} {
		_, err := r.RecordArrivalAt(a.tag, t0.Add(time.Duration(a.sec)*time.Second))
		require.NoError(t, err)
	}
	return r.Standings()
}

func TestWriteClassification(t *testing.T) {
	standings := sampleStandings(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, 2, t0, standings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ClassificationSheet, RaceSheet}, f.GetSheetList())

	rows, err := f.GetRows(ClassificationSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])

	assert.Equal(t, []string{"1", "A", "2", "yes"}, rows[1][:4])
	assert.Equal(t, "02:00.000", rows[1][6])

	assert.Equal(t, "B", rows[2][1])
	assert.Equal(t, "02:05.000", rows[2][6])
	assert.Equal(t, "+00:05.000", rows[2][7])
	assert.Equal(t, "0", rows[2][8])

	assert.Equal(t, "C", rows[3][1])
	assert.Equal(t, "no", rows[3][3])
	assert.Equal(t, "1", rows[3][8])

	laps, err := f.GetCellValue(RaceSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2", laps)
	start, err := f.GetCellValue(RaceSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T10:00:00.000Z", start)
}

func TestWriteEmptyClassification(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, 20, t0, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ClassificationSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00.000", FormatElapsed(0))
	assert.Equal(t, "00:05.250", FormatElapsed(5250))
	assert.Equal(t, "59:59.999", FormatElapsed(3_599_999))
	assert.Equal(t, "1:00:00.000", FormatElapsed(3_600_000))
	assert.Equal(t, "-00:01.000", FormatElapsed(-1000))
}
