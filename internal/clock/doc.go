// Package clock implements the wire timestamp codec and time sources for the Racetag Backend.
//
// Timestamps travel as ISO-8601 extended strings. Input accepts either a
// trailing literal Z or a numeric offset; output is always millisecond
// precision UTC with a trailing Z.
//
// References:
//   - ISO 8601-1:2019 §5.4: Extended date and time of day
//   - RFC 3339 §5.6: Internet date/time format
package clock
