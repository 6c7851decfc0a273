package eventstore

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// EventEntity is the key prefix for tag events.
	EventEntity = "EVENT"

	sequenceKey       = "SEQ/" + EventEntity
	sequenceBandwidth = 1000
)

// TagEvent is one item of an ingestion batch as it was accepted.
type TagEvent struct {
	ID         string    `msgpack:"id" json:"id"`
	TagID      string    `msgpack:"tag_id" json:"tag_id"`
	EventType  string    `msgpack:"event_type" json:"event_type"`
	Timestamp  string    `msgpack:"timestamp" json:"timestamp"`
	Antenna    *int      `msgpack:"antenna,omitempty" json:"antenna,omitempty"`
	ReaderIP   string    `msgpack:"reader_ip,omitempty" json:"reader_ip,omitempty"`
	ReceivedAt time.Time `msgpack:"received_at" json:"received_at"`
}

// Store is a badger backed append-only event log.
type Store struct {
	db     *badger.DB
	seq    *badger.Sequence
	prefix []byte
}

// Open opens an in-memory store. Its lifetime matches the race ledger, so
// nothing survives a restart.
func Open(log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(badgerLogger{log.With().Str("component", "badger").Logger()}).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to lease event sequence: %w", err)
	}

	return &Store{
		db:     db,
		seq:    seq,
		prefix: []byte(EventEntity + "/"),
	}, nil
}

func (s *Store) buildKey(n uint64) []byte {
	key := make([]byte, len(s.prefix)+8)
	copy(key, s.prefix)
	binary.BigEndian.PutUint64(key[len(s.prefix):], n)
	return key
}

// Append stores e, assigning an ID when it has none, and returns the stored event.
func (s *Store) Append(e TagEvent) (TagEvent, error) {
	if e.ID == "" {
		e.ID = ksuid.New().String()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}

	buf, err := msgpack.Marshal(e)
	if err != nil {
		return TagEvent{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	n, err := s.seq.Next()
	if err != nil {
		return TagEvent{}, fmt.Errorf("failed to allocate event key: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.buildKey(n), buf)
	})
	if err != nil {
		return TagEvent{}, fmt.Errorf("failed to store event %s: %w", e.ID, err)
	}

	return e, nil
}

// List returns stored events in arrival order. A nil filter keeps all.
func (s *Store) List(filter func(TagEvent) bool) ([]TagEvent, error) {
	events := []TagEvent{}

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			var e TagEvent
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			if filter != nil && !filter(e) {
				continue
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// ListByTag returns the stored events of one tag.
func (s *Store) ListByTag(tagID string) ([]TagEvent, error) {
	return s.List(func(e TagEvent) bool { return e.TagID == tagID })
}

// Count returns the number of stored events.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return fmt.Errorf("failed to release event sequence: %w", err)
	}
	return s.db.Close()
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}
