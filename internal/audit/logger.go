//
//
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/race"
)

// Outcomes recorded per item.
const (
	OutcomeAccepted = "ACCEPTED"
	OutcomeRejected = "REJECTED"
)

// FileName is the journal file inside the configured directory.
const FileName = "ingest.jsonl"

// Entry is one journal line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	BatchID   string    `json:"batchId"`
	Index     int       `json:"index"`
	TagID     string    `json:"tagId"`
	EventType string    `json:"eventType"`
	PassTime  string    `json:"passTime"`
	Outcome   string    `json:"outcome"`
	Code      string    `json:"code"`
	Laps      int       `json:"laps,omitempty"`
	Finished  bool      `json:"finished,omitempty"`
}

// Options configures journal rotation.
type Options struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger appends journal entries. A nil *Logger discards everything.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      io.WriteCloser
	clk      clock.Clock
	log      zerolog.Logger
}

// NewLogger creates a rotating journal under opts.Dir.
func NewLogger(opts Options, log zerolog.Logger) (*Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	filePath := filepath.Join(opts.Dir, FileName)
	out := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	l := NewWriterLogger(out, clock.System{}, log)
	l.filePath = filePath
	return l, nil
}

// NewWriterLogger journals to an arbitrary writer.
func NewWriterLogger(w io.WriteCloser, clk clock.Clock, log zerolog.Logger) *Logger {
	if clk == nil {
		clk = clock.System{}
	}
	return &Logger{
		out: w,
		clk: clk,
		log: log.With().Str("component", "journal").Logger(),
	}
}

// Accepted journals an item that was applied or stored.
func (l *Logger) Accepted(batchID string, index int, tagID, eventType, passTime string, p *race.Participant) {
	if l == nil {
		return
	}
	entry := Entry{
		BatchID:   batchID,
		Index:     index,
		TagID:     tagID,
		EventType: eventType,
		PassTime:  passTime,
		Outcome:   OutcomeAccepted,
		Code:      "OK",
	}
	if p != nil {
		entry.Laps = p.Laps
		entry.Finished = p.Finished
	}
	l.Record(entry)
}

// Rejected journals an item that was refused with err.
func (l *Logger) Rejected(batchID string, index int, tagID, eventType, passTime string, err error) {
	if l == nil {
		return
	}
	l.Record(Entry{
		BatchID:   batchID,
		Index:     index,
		TagID:     tagID,
		EventType: eventType,
		PassTime:  passTime,
		Outcome:   OutcomeRejected,
		Code:      CodeFromError(err),
	})
}

// Record writes entry as one JSON line, stamping it when Timestamp is zero.
func (l *Logger) Record(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.clk.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.log.Error().Err(err).Msg("failed to marshal journal entry")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.out.Write(append(data, '\n')); err != nil {
		l.log.Error().Err(err).Msg("failed to write journal entry")
	}
}

// GetFilePath returns the journal path, empty for writer-backed loggers.
func (l *Logger) GetFilePath() string {
	if l == nil {
		return ""
	}
	return l.filePath
}

// Close closes the underlying writer.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}

// CodeFromError maps ingestion errors to journal codes.
func CodeFromError(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, clock.ErrMalformedTimestamp):
		return "MALFORMED_TIMESTAMP"
	case errors.Is(err, race.ErrEmptyTagID):
		return "EMPTY_TAG_ID"
	default:
		return "ERROR"
	}
}
