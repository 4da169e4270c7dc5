package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/newswire/newswire/pkg/feed"
)

// entry wraps an envelope with its enqueue time for wait-duration metrics.
type entry struct {
	env        *feed.Envelope
	enqueuedAt time.Time
}

// ChannelQueue implements Queue using a buffered Go channel. It is the
// default, volatile queue: items queued but not yet dequeued are lost on
// process crash, which is accepted behavior.
type ChannelQueue struct {
	ch      chan entry
	metrics MetricsRecorder

	closed    atomic.Bool
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewChannelQueue creates a channel-backed queue with the given capacity.
func NewChannelQueue(capacity int) (*ChannelQueue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", capacity)
	}
	return &ChannelQueue{
		ch:      make(chan entry, capacity),
		closeCh: make(chan struct{}),
		metrics: nopMetrics{},
	}, nil
}

// SetMetrics sets the metrics recorder for the queue.
func (q *ChannelQueue) SetMetrics(m MetricsRecorder) {
	if m != nil {
		q.metrics = m
	}
}

// Enqueue adds an envelope without blocking.
func (q *ChannelQueue) Enqueue(_ context.Context, env *feed.Envelope) error {
	if env == nil {
		return fmt.Errorf("envelope cannot be nil")
	}
	if q.closed.Load() {
		return &QueueClosedError{}
	}

	select {
	case q.ch <- entry{env: env, enqueuedAt: time.Now()}:
		q.metrics.IncQueueDepth()
		return nil
	default:
		return &QueueFullError{Capacity: cap(q.ch)}
	}
}

// TryDequeue removes the oldest envelope without blocking.
func (q *ChannelQueue) TryDequeue() (*feed.Envelope, bool) {
	select {
	case e := <-q.ch:
		q.metrics.DecQueueDepth()
		q.metrics.RecordQueueWait(time.Since(e.enqueuedAt))
		return e.env, true
	default:
		return nil, false
	}
}

// Dequeue removes the oldest envelope, blocking until one is available.
// Cancellation is observable here: a shutdown request interrupts the wait.
func (q *ChannelQueue) Dequeue(ctx context.Context) (*feed.Envelope, error) {
	// Queued items stay dequeueable after Close, so drain the buffer first.
	if e, ok := q.TryDequeue(); ok {
		return e, nil
	}
	if q.closed.Load() {
		return nil, &QueueClosedError{}
	}

	select {
	case e := <-q.ch:
		q.metrics.DecQueueDepth()
		q.metrics.RecordQueueWait(time.Since(e.enqueuedAt))
		return e.env, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.closeCh:
		// One more non-blocking attempt in case an item raced the close.
		if e, ok := q.TryDequeue(); ok {
			return e, nil
		}
		return nil, &QueueClosedError{}
	}
}

// Len returns the number of queued envelopes.
func (q *ChannelQueue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *ChannelQueue) Cap() int {
	return cap(q.ch)
}

// Close stops the queue from accepting new envelopes. The buffered channel
// is intentionally left open so remaining items can still be drained.
func (q *ChannelQueue) Close() error {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.closeCh)
	})
	return nil
}
