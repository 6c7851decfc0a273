package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFilterEmpty(t *testing.T) {
	f, err := CompileFilter("   ")
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Match(lap("A", 1)))
}

func TestCompileFilterRejects(t *testing.T) {
	for _, expr := range []string{
		`type ==`,
		`laps + 1`,
		`unknown_var == 1`,
		`tag_id == 3`,
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := CompileFilter(expr)
			assert.Error(t, err)
		})
	}
}

func TestFilterMatch(t *testing.T) {
	finished := Notification{
		Type: TypeLap,
		Data: map[string]interface{}{"type": TypeLap, "tag_id": "A", "laps": 3, "finished": true},
	}
	standings := Notification{Type: TypeStandings, Data: map[string]interface{}{"type": TypeStandings}}

	tests := []struct {
		expr string
		n    Notification
		want bool
	}{
		{`type == "standings"`, standings, true},
		{`type == "standings"`, finished, false},
		{`finished`, finished, true},
		{`laps >= 3`, finished, true},
		{`laps >= 3`, lap("A", 2), false},
		{`tag_id.startsWith("A")`, finished, true},
		{`tag_id == ""`, standings, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := CompileFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Match(tt.n))
			assert.Equal(t, tt.expr, f.String())
		})
	}
}
