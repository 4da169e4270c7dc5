// Package receiver implements the synchronous signal admission path: it
// validates an inbound envelope, counts it, and hands it to the queue.
//
// Submission outcome is reported to the caller immediately. Acceptance means
// the envelope is queued, not processed; rejection names the reason and
// mutates nothing beyond the rejection counter.
package receiver

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/newswire/newswire/pkg/feed"
	"github.com/newswire/newswire/pkg/logger"
	"github.com/newswire/newswire/pkg/queue"
)

// ShuttingDownError is returned when a signal arrives after shutdown began.
type ShuttingDownError struct{}

func (e *ShuttingDownError) Error() string {
	return "receiver is shutting down, signal rejected"
}

// IsShuttingDownError returns true if the error is a ShuttingDownError.
func IsShuttingDownError(err error) bool {
	_, ok := err.(*ShuttingDownError)
	return ok
}

// MetricsRecorder receives admission observations.
type MetricsRecorder interface {
	IncReceived()
	IncRejected(reason string)
}

type nopMetrics struct{}

func (nopMetrics) IncReceived()         {}
func (nopMetrics) IncRejected(_ string) {}

// Receiver admits signal envelopes into the queue.
type Receiver struct {
	queue   queue.Queue
	log     logger.Logger
	metrics MetricsRecorder

	received atomic.Uint64
	closed   atomic.Bool
}

// New creates a receiver in front of the given queue.
func New(q queue.Queue, log logger.Logger) (*Receiver, error) {
	if q == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}
	if log == nil {
		log = logger.Global()
	}
	return &Receiver{
		queue:   q,
		log:     log.WithComponent("receiver"),
		metrics: nopMetrics{},
	}, nil
}

// SetMetrics sets the metrics recorder for the receiver.
func (r *Receiver) SetMetrics(m MetricsRecorder) {
	if m != nil {
		r.metrics = m
	}
}

// Submit validates and enqueues one envelope. The received counter increments
// only after the envelope passes validation, so counts never include
// malformed submissions.
func (r *Receiver) Submit(ctx context.Context, env *feed.Envelope) error {
	if r.closed.Load() {
		r.metrics.IncRejected("shutting_down")
		return &ShuttingDownError{}
	}
	if env == nil {
		r.metrics.IncRejected("invalid")
		return &feed.ValidationError{Field: "envelope", Reason: "cannot be nil"}
	}
	if err := env.Validate(); err != nil {
		r.metrics.IncRejected("invalid")
		r.log.Warn("rejected invalid signal", "error", err)
		return err
	}

	if err := r.queue.Enqueue(ctx, env); err != nil {
		switch {
		case queue.IsQueueFullError(err):
			r.metrics.IncRejected("queue_full")
			r.log.Warn("rejected signal, queue full",
				"id", env.ID,
				"queue_len", r.queue.Len(),
				"queue_cap", r.queue.Cap())
		case queue.IsQueueClosedError(err):
			r.metrics.IncRejected("shutting_down")
			return &ShuttingDownError{}
		case queue.IsDuplicateError(err):
			r.metrics.IncRejected("duplicate")
			r.log.Debug("rejected duplicate signal", "id", env.ID)
		default:
			r.metrics.IncRejected("internal")
			r.log.Error("failed to enqueue signal", "id", env.ID, "error", err)
		}
		return err
	}

	r.received.Add(1)
	r.metrics.IncReceived()
	r.log.Debug("accepted signal",
		"id", env.ID,
		"title", env.Data.Title,
		"queue_len", r.queue.Len())
	return nil
}

// Received returns the count of envelopes accepted since startup.
func (r *Receiver) Received() uint64 {
	return r.received.Load()
}

// Close stops accepting new signals. Already-queued envelopes are unaffected.
func (r *Receiver) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.log.Info("receiver closed", "received_total", r.received.Load())
	return nil
}
