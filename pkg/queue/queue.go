// Package queue provides the bounded signal queue that decouples envelope
// arrival from enrichment processing.
//
// The queue is a FIFO buffer with an explicit capacity and an explicit
// backpressure error: a full queue rejects the submission instead of growing
// unboundedly or blocking the producer. Enqueue and dequeue are safe under
// concurrent invocation; the queue itself provides the necessary mutual
// exclusion.
package queue

import (
	"context"
	"time"

	"github.com/newswire/newswire/pkg/feed"
)

// Queue is a bounded FIFO buffer of signal envelopes.
type Queue interface {
	// Enqueue adds an envelope without blocking. A full queue returns
	// QueueFullError; a closed queue returns QueueClosedError.
	Enqueue(ctx context.Context, env *feed.Envelope) error

	// TryDequeue removes the oldest envelope without blocking.
	// It returns false when the queue is empty.
	TryDequeue() (*feed.Envelope, bool)

	// Dequeue removes the oldest envelope, blocking until one is available,
	// the context is cancelled, or the queue is closed.
	Dequeue(ctx context.Context) (*feed.Envelope, error)

	// Len returns the number of queued envelopes.
	Len() int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops the queue from accepting new envelopes. Already-queued
	// envelopes remain dequeueable so a shutdown drain can finish them.
	Close() error
}

// MetricsRecorder receives queue depth and wait observations.
type MetricsRecorder interface {
	IncQueueDepth()
	DecQueueDepth()
	RecordQueueWait(d time.Duration)
}

// nopMetrics is a no-op implementation of MetricsRecorder.
type nopMetrics struct{}

func (nopMetrics) IncQueueDepth()                  {}
func (nopMetrics) DecQueueDepth()                  {}
func (nopMetrics) RecordQueueWait(_ time.Duration) {}
