package telemetry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lap(tag string, laps int) Notification {
	return Notification{
		Type: TypeLap,
		Data: map[string]interface{}{"type": TypeLap, "tag_id": tag, "laps": laps, "finished": false},
	}
}

func drain(sub *Subscription) []Notification {
	var out []Notification
	for {
		n, ok := sub.TryNext()
		if !ok {
			return out
		}
		out = append(out, n)
	}
}

func ids(ns []Notification) []int64 {
	out := make([]int64, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestSubscribeStartsEmpty(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	hub.Publish(lap("A", 1))
	sub := hub.Subscribe()

	assert.Equal(t, 1, hub.Count())
	assert.Zero(t, sub.Len(), "earlier notifications are not replayed")
}

func TestUnsubscribeTwiceIsNoop(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	a := hub.Subscribe()
	b := hub.Subscribe()
	require.Equal(t, 2, hub.Count())

	hub.Unsubscribe(a)
	hub.Unsubscribe(a)
	hub.Unsubscribe(nil)

	assert.Equal(t, 1, hub.Count())
	assert.True(t, a.Closed())
	assert.False(t, b.Closed())
}

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	n := hub.Publish(lap("A", 1))
	assert.Equal(t, int64(1), n.ID)
	assert.Equal(t, int64(1), hub.LastID())
}

func TestPublishOrderIsIdenticalAcrossSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	subs := []*Subscription{hub.Subscribe(), hub.Subscribe(), hub.Subscribe()}
	for i := 1; i <= 5; i++ {
		hub.Publish(lap("A", i))
	}

	for _, sub := range subs {
		got := drain(sub)
		require.Len(t, got, 5)
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(got))
		for i, n := range got {
			assert.Equal(t, i+1, n.Data["laps"])
		}
	}
}

func TestUnsubscribedQueueStopsReceiving(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	keep := hub.Subscribe()
	gone := hub.Subscribe()

	hub.Publish(lap("A", 1))
	hub.Unsubscribe(gone)
	hub.Publish(lap("A", 2))

	assert.Len(t, drain(keep), 2)
	assert.Len(t, drain(gone), 1, "pending items stay readable after close")
}

func TestEnqueueOnClosedSubscription(t *testing.T) {
	sub := newSubscription("s", 0)
	sub.close()

	err := sub.enqueue(lap("A", 1))
	assert.True(t, errors.Is(err, ErrSubscriptionClosed))
}

func TestBoundedQueueDropsOldest(t *testing.T) {
	var mu sync.Mutex
	var failures []DeliveryFailure
	reported := make(chan struct{}, 8)

	hub := NewHub(
		WithMaxPending(2),
		WithFailureHook(func(f DeliveryFailure) {
			mu.Lock()
			failures = append(failures, f)
			mu.Unlock()
			reported <- struct{}{}
		}),
	)
	defer hub.Stop()

	slow := hub.Subscribe()
	for i := 1; i <= 3; i++ {
		hub.Publish(lap("A", i))
	}
	<-reported

	assert.Equal(t, []int64{2, 3}, ids(drain(slow)))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	assert.Equal(t, slow.ID, failures[0].SubscriptionID)
	assert.Equal(t, int64(3), failures[0].NotificationID)
	assert.ErrorIs(t, failures[0].Err, ErrSubscriberOverflow)
}

func TestSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	idle := hub.Subscribe()
	active := hub.Subscribe()

	for i := 1; i <= 1000; i++ {
		hub.Publish(lap("A", i))
		_, ok := active.TryNext()
		require.True(t, ok)
	}

	assert.Equal(t, 1000, idle.Len())
	assert.Zero(t, active.Len())
}

func TestConcurrentPublishKeepsQueuesConsistent(t *testing.T) {
	hub := NewHub()
	defer hub.Stop()

	a := hub.Subscribe()
	b := hub.Subscribe()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				hub.Publish(lap(fmt.Sprintf("T%d", w), i))
			}
		}(w)
	}
	wg.Wait()

	gotA := ids(drain(a))
	gotB := ids(drain(b))
	require.Len(t, gotA, 400)
	assert.Equal(t, gotA, gotB)
	for i := 1; i < len(gotA); i++ {
		assert.Less(t, gotA[i-1], gotA[i])
	}
}

func TestStopClosesSubscriptions(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()

	hub.Stop()
	hub.Stop()

	assert.True(t, sub.Closed())
	assert.Zero(t, hub.Count())

	late := hub.Subscribe()
	assert.True(t, late.Closed())
	assert.Zero(t, hub.Count())

	_, open := <-sub.Wait()
	assert.False(t, open)
}
