//
//
package telemetry

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DeliveryFailure describes a notification that could not be delivered
// intact to one subscription.
type DeliveryFailure struct {
	SubscriptionID string
	NotificationID int64
	Type           string
	Err            error
}

// Hub fans notifications out to every registered subscription.
//
// LOCK ORDERING:
// 1. h.pubMu - serializes Publish so every queue sees the same order
// 2. h.mu (RWMutex) - protects subs; Publish holds it only for the snapshot
// 3. Subscription.mu - per-queue state
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool

	pubMu  sync.Mutex
	nextID int64

	maxPending int
	failures   chan DeliveryFailure
	onFailure  func(DeliveryFailure)
	log        zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithMaxPending bounds every subscription queue. Zero keeps them unbounded.
func WithMaxPending(n int) Option {
	return func(h *Hub) { h.maxPending = n }
}

// WithFailureBuffer sets the capacity of the delivery failure channel.
func WithFailureBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.failures = make(chan DeliveryFailure, n)
		}
	}
}

// WithLogger sets the logger used by the failure reporter.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Hub) { h.log = log.With().Str("component", "hub").Logger() }
}

// WithFailureHook registers fn to run on the reporter goroutine for every
// delivery failure.
func WithFailureHook(fn func(DeliveryFailure)) Option {
	return func(h *Hub) { h.onFailure = fn }
}

// NewHub creates a hub and starts its failure reporter.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:     make(map[string]*Subscription),
		failures: make(chan DeliveryFailure, 64),
		log:      zerolog.Nop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.wg.Add(1)
	go h.report()

	return h
}

// Subscribe registers a new empty subscription. After Stop the returned
// subscription is already closed.
func (h *Hub) Subscribe() *Subscription {
	sub := newSubscription(uuid.NewString(), h.maxPending)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.close()
		return sub
	}
	h.subs[sub.ID] = sub

	return sub
}

// Unsubscribe removes sub from the registry and closes it. Safe to call
// more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	delete(h.subs, sub.ID)
	h.mu.Unlock()

	sub.close()
}

// Publish assigns the next event ID to n and appends it to every registered
// subscription. Per-subscription failures are reported asynchronously and
// never returned to the caller.
func (h *Hub) Publish(n Notification) Notification {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	n.ID = atomic.AddInt64(&h.nextID, 1)

	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.enqueue(n); err != nil {
			h.fail(DeliveryFailure{
				SubscriptionID: sub.ID,
				NotificationID: n.ID,
				Type:           n.Type,
				Err:            err,
			})
		}
	}

	return n
}

// Count returns the number of registered subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// LastID returns the most recently assigned event ID.
func (h *Hub) LastID() int64 {
	return atomic.LoadInt64(&h.nextID)
}

// fail hands f to the reporter without blocking the publisher.
func (h *Hub) fail(f DeliveryFailure) {
	select {
	case h.failures <- f:
	default:
		h.log.Warn().
			Str("subscription", f.SubscriptionID).
			Int64("id", f.NotificationID).
			Err(f.Err).
			Msg("failure buffer full, delivery failure dropped")
	}
}

func (h *Hub) report() {
	defer h.wg.Done()

	for {
		select {
		case f := <-h.failures:
			h.log.Warn().
				Str("subscription", f.SubscriptionID).
				Int64("id", f.NotificationID).
				Str("type", f.Type).
				Err(f.Err).
				Msg("notification delivery failed")
			if h.onFailure != nil {
				h.onFailure(f)
			}
		case <-h.done:
			return
		}
	}
}

// Stop closes every subscription and stops the failure reporter.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		subs := h.subs
		h.subs = make(map[string]*Subscription)
		h.mu.Unlock()

		for _, sub := range subs {
			sub.close()
		}

		close(h.done)
		h.wg.Wait()
	})
}
