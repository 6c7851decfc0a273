//
//
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WireLayout is the output layout for every timestamp leaving the service.
const WireLayout = "2006-01-02T15:04:05.000Z"

// ErrMalformedTimestamp indicates the input is not a valid extended ISO-8601 timestamp.
var ErrMalformedTimestamp = errors.New("MALFORMED_TIMESTAMP")

// Accepted input layouts, tried in order after Z normalization.
var inputLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Parse converts a wire timestamp into an instant.
// A trailing Z is normalized to +00:00 before parsing; timestamps without an
// offset are taken as UTC.
func Parse(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrMalformedTimestamp)
	}
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}

	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
}

// Format renders an instant as millisecond precision UTC with a trailing Z.
func Format(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(WireLayout)
}

// Millis returns the instant as Unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
