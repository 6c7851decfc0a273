package telemetry

import (
	"errors"
	"sync"
)

var (
	// ErrSubscriptionClosed is reported when publishing to a subscription
	// that was unsubscribed between the registry snapshot and the enqueue.
	ErrSubscriptionClosed = errors.New("SUBSCRIPTION_CLOSED")

	// ErrSubscriberOverflow is reported when a bounded subscription dropped
	// its oldest pending notification to make room.
	ErrSubscriberOverflow = errors.New("SUBSCRIBER_OVERFLOW")
)

// Subscription is one observer's pending notification queue.
//
// The queue is unbounded unless maxPending is set. Enqueue never blocks. A
// buffered signal channel of size 1 lets the session wait for new items
// together with context cancellation.
type Subscription struct {
	ID string

	mu         sync.Mutex
	items      []Notification
	closed     bool
	maxPending int
	signal     chan struct{}
}

func newSubscription(id string, maxPending int) *Subscription {
	return &Subscription{
		ID:         id,
		items:      make([]Notification, 0, 16),
		maxPending: maxPending,
		signal:     make(chan struct{}, 1),
	}
}

// enqueue appends n. When the queue is bounded and full the oldest item is
// dropped and ErrSubscriberOverflow is returned, though n is still queued.
func (s *Subscription) enqueue(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSubscriptionClosed
	}

	var err error
	if s.maxPending > 0 && len(s.items) >= s.maxPending {
		s.items[0] = Notification{}
		s.items = s.items[1:]
		err = ErrSubscriberOverflow
	}
	s.items = append(s.items, n)

	select {
	case s.signal <- struct{}{}:
	default:
	}

	return err
}

// TryNext removes and returns the oldest pending notification without blocking.
func (s *Subscription) TryNext() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return Notification{}, false
	}

	n := s.items[0]
	s.items[0] = Notification{}
	if len(s.items) == 1 {
		s.items = s.items[:0]
	} else {
		s.items = s.items[1:]
	}

	return n, true
}

// Wait returns a channel that fires when items may be available. It is
// closed once the subscription is closed.
func (s *Subscription) Wait() <-chan struct{} {
	return s.signal
}

// Len returns the number of pending notifications.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Closed reports whether the subscription was removed from its hub.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close is idempotent. Pending items stay readable.
func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.signal)
}
