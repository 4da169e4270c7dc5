// Package worker runs the single consumer loop of the enrichment pipeline.
//
// Exactly one worker goroutine drains the queue, so records are processed
// strictly one at a time: one enrichment call, then one upsert. Failures are
// logged and skipped; a failed record never blocks the loop and is never
// partially persisted.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/newswire/newswire/pkg/enrich"
	"github.com/newswire/newswire/pkg/feed"
	"github.com/newswire/newswire/pkg/logger"
	"github.com/newswire/newswire/pkg/queue"
	"github.com/newswire/newswire/pkg/store"
)

// Outcome labels for processed-record metrics.
const (
	OutcomeEnriched     = "enriched"
	OutcomeAdapterError = "adapter_error"
	OutcomePersistError = "persist_error"
)

// Config holds worker configuration.
type Config struct {
	// PollInterval is how long the loop sleeps when the queue is empty.
	PollInterval time.Duration

	// RateLimit caps enrichment calls per second. Zero disables the limiter.
	RateLimit float64

	// RateBurst is the limiter burst size when a rate limit is set.
	RateBurst int
}

// Validate validates the worker configuration.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative, got %v", c.RateLimit)
	}
	return nil
}

// MetricsRecorder receives processing observations.
type MetricsRecorder interface {
	RecordProcessed(outcome string)
	RecordEnrichDuration(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordProcessed(_ string)             {}
func (nopMetrics) RecordEnrichDuration(_ time.Duration) {}

// Worker consumes queued envelopes, enriches them, and persists the result.
type Worker struct {
	config   *Config
	queue    queue.Queue
	analyzer enrich.Analyzer
	gateway  store.Gateway
	log      logger.Logger
	metrics  MetricsRecorder
	limiter  *rate.Limiter
	tracer   trace.Tracer

	// onPersisted is invoked for every successfully stored record.
	onPersisted func(*feed.EnrichedRecord)

	processed atomic.Uint64
	done      chan struct{}
}

// New creates a worker over the given queue, analyzer, and gateway.
func New(config *Config, q queue.Queue, analyzer enrich.Analyzer, gateway store.Gateway, log logger.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	if log == nil {
		log = logger.Global()
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &Worker{
		config:   config,
		queue:    q,
		analyzer: analyzer,
		gateway:  gateway,
		log:      log.WithComponent("worker"),
		metrics:  nopMetrics{},
		limiter:  limiter,
		tracer:   otel.Tracer("newswire/worker"),
		done:     make(chan struct{}),
	}, nil
}

// SetMetrics sets the metrics recorder for the worker.
func (w *Worker) SetMetrics(m MetricsRecorder) {
	if m != nil {
		w.metrics = m
	}
}

// OnPersisted registers a callback invoked after each successful upsert.
// Must be set before Run.
func (w *Worker) OnPersisted(fn func(*feed.EnrichedRecord)) {
	w.onPersisted = fn
}

// Run consumes the queue until the context is cancelled. Cancellation is
// checked before each dequeue, so the loop never starts a record under a
// cancelled context: whatever is still queued stays queued for Drain, and an
// in-flight record is always finished before the loop returns.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	w.log.Info("worker started", "poll_interval", w.config.PollInterval)

	for {
		if ctx.Err() != nil {
			w.log.Info("worker stopped",
				"processed_total", w.processed.Load(),
				"queued", w.queue.Len())
			return
		}

		env, ok := w.queue.TryDequeue()
		if !ok {
			select {
			case <-ctx.Done():
			case <-time.After(w.config.PollInterval):
			}
			continue
		}

		w.process(ctx, env)
	}
}

// Drain processes the remaining queued envelopes after Run has returned.
// It stops when the queue is empty or the context's drain budget expires,
// and returns the number of envelopes left behind.
func (w *Worker) Drain(ctx context.Context) int {
	select {
	case <-w.done:
	case <-ctx.Done():
		return w.queue.Len()
	}

	drained := 0
	for {
		if ctx.Err() != nil {
			remaining := w.queue.Len()
			w.log.Warn("drain budget expired",
				"drained", drained,
				"remaining", remaining)
			return remaining
		}

		env, ok := w.queue.TryDequeue()
		if !ok {
			w.log.Info("queue drained", "drained", drained)
			return 0
		}
		w.process(ctx, env)
		drained++
	}
}

// Processed returns the count of successfully persisted records.
func (w *Worker) Processed() uint64 {
	return w.processed.Load()
}

// process runs one envelope through enrichment and persistence.
func (w *Worker) process(ctx context.Context, env *feed.Envelope) {
	ctx, span := w.tracer.Start(ctx, "process_signal",
		trace.WithAttributes(attribute.String("signal.id", env.ID)))
	defer span.End()

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			// Cancelled mid-wait. The envelope is already dequeued, so make
			// the one attempt anyway rather than dropping it silently.
			w.log.Debug("rate limiter wait interrupted", "id", env.ID)
		}
	}

	start := time.Now()
	enr, err := w.analyzer.Analyze(ctx, env.Data)
	w.metrics.RecordEnrichDuration(time.Since(start))
	if err != nil {
		span.SetStatus(codes.Error, "enrichment failed")
		span.RecordError(err)
		w.metrics.RecordProcessed(OutcomeAdapterError)
		w.log.WarnContext(ctx, "enrichment failed, record dropped",
			"id", env.ID,
			"title", env.Data.Title,
			"kind", string(enrich.KindOf(err)),
			"error", err)
		return
	}

	rec := feed.NewEnrichedRecord(env, &enr, time.Now().UTC())
	if err := w.gateway.Upsert(ctx, rec); err != nil {
		span.SetStatus(codes.Error, "persist failed")
		span.RecordError(err)
		w.metrics.RecordProcessed(OutcomePersistError)
		w.log.ErrorContext(ctx, "persist failed, record dropped",
			"id", env.ID,
			"title", env.Data.Title,
			"error", err)
		return
	}

	w.processed.Add(1)
	w.metrics.RecordProcessed(OutcomeEnriched)
	if w.onPersisted != nil {
		w.onPersisted(rec)
	}
	w.log.InfoContext(ctx, "record enriched",
		"id", env.ID,
		"title", env.Data.Title,
		"sector", rec.Enrichment.Sector,
		"sentiment", rec.Enrichment.Sentiment.String(),
		"confidence", rec.Enrichment.Confidence)
}
