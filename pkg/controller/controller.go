// Package controller ties the pipeline together: it resolves the durable
// process identity, starts the consumer loop, fronts signal submission, and
// coordinates graceful shutdown.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newswire/newswire/pkg/durable"
	"github.com/newswire/newswire/pkg/feed"
	"github.com/newswire/newswire/pkg/logger"
	"github.com/newswire/newswire/pkg/queue"
	"github.com/newswire/newswire/pkg/receiver"
	"github.com/newswire/newswire/pkg/worker"
)

// State is the controller lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ControllerError is a fatal controller failure: the pipeline could not be
// started or attached to its durable identity.
type ControllerError struct {
	Operation string
	Cause     error
}

func (e *ControllerError) Error() string {
	return fmt.Sprintf("controller %s failed: %v", e.Operation, e.Cause)
}

func (e *ControllerError) Unwrap() error {
	return e.Cause
}

// IsControllerError returns true if the error is a ControllerError.
func IsControllerError(err error) bool {
	_, ok := err.(*ControllerError)
	return ok
}

// Config holds controller configuration.
type Config struct {
	// LogicalID is the stable pipeline identity used to find a resumable
	// instance across restarts.
	LogicalID string

	// RecentSize is the capacity of the recent-records ring.
	RecentSize int

	// DrainTimeout bounds the shutdown drain of the queue.
	DrainTimeout time.Duration
}

// Validate validates the controller configuration.
func (c *Config) Validate() error {
	if c.LogicalID == "" {
		return fmt.Errorf("logical id cannot be empty")
	}
	if c.DrainTimeout <= 0 {
		return fmt.Errorf("drain timeout must be positive, got %v", c.DrainTimeout)
	}
	return nil
}

// Controller owns the pipeline components and their lifecycle.
type Controller struct {
	config   *Config
	engine   durable.Engine
	queue    queue.Queue
	receiver *receiver.Receiver
	worker   *worker.Worker
	log      logger.Logger
	recent   *recentRing

	mu          sync.Mutex
	state       State
	effectiveID string
	runCancel   context.CancelFunc
}

// New creates a controller over the given components.
func New(config *Config, engine durable.Engine, q queue.Queue, rcv *receiver.Receiver, w *worker.Worker, log logger.Logger) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if q == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}
	if rcv == nil {
		return nil, fmt.Errorf("receiver cannot be nil")
	}
	if w == nil {
		return nil, fmt.Errorf("worker cannot be nil")
	}
	if log == nil {
		log = logger.Global()
	}

	c := &Controller{
		config:   config,
		engine:   engine,
		queue:    q,
		receiver: rcv,
		worker:   w,
		log:      log.WithComponent("controller"),
		recent:   newRecentRing(config.RecentSize),
	}
	w.OnPersisted(c.recent.add)
	return c, nil
}

// Start resolves the durable identity and launches the consumer loop.
//
// The identity algorithm: describe the logical id; a still-running instance
// is attached to, a missing one is created fresh under the logical id, and a
// terminal or indeterminate one gets a new time-suffixed id. An unreachable
// engine is fatal.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNotStarted {
		return &ControllerError{
			Operation: "start",
			Cause:     fmt.Errorf("controller already %s", c.state),
		}
	}

	status, queryErr := c.engine.Describe(ctx, c.config.LogicalID)
	if queryErr != nil && !durable.IsNotFoundError(queryErr) {
		if durable.IsUnavailableError(queryErr) {
			return &ControllerError{Operation: "start", Cause: queryErr}
		}
		c.log.Warn("instance lookup indeterminate, minting fresh identity",
			"logical_id", c.config.LogicalID,
			"error", queryErr)
	}

	effectiveID := durable.ResolveIdentity(c.config.LogicalID, status, queryErr, time.Now())
	attached := queryErr == nil && status == durable.StatusRunning

	if attached {
		c.log.Info("attached to running instance", "instance_id", effectiveID)
	} else {
		err := c.engine.Create(ctx, effectiveID)
		if durable.IsAlreadyExistsError(err) {
			// Lost the race against a concurrent start; attach instead.
			c.log.Info("instance created concurrently, attaching", "instance_id", effectiveID)
		} else if err != nil {
			return &ControllerError{Operation: "start", Cause: err}
		} else {
			c.log.Info("created instance", "instance_id", effectiveID)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.runCancel = cancel
	c.effectiveID = effectiveID
	c.state = StateRunning
	go c.worker.Run(runCtx)

	c.log.Info("pipeline started",
		"logical_id", c.config.LogicalID,
		"instance_id", effectiveID,
		"queue_cap", c.queue.Cap())
	return nil
}

// Submit passes one envelope to the receiver.
func (c *Controller) Submit(ctx context.Context, env *feed.Envelope) error {
	return c.receiver.Submit(ctx, env)
}

// Received returns the count of accepted signals.
func (c *Controller) Received() uint64 {
	return c.receiver.Received()
}

// Processed returns the count of persisted records.
func (c *Controller) Processed() uint64 {
	return c.worker.Processed()
}

// Recent returns the most recently persisted records, newest first.
func (c *Controller) Recent() []*feed.EnrichedRecord {
	return c.recent.snapshot()
}

// QueueDepth returns the current queue depth.
func (c *Controller) QueueDepth() int {
	return c.queue.Len()
}

// QueueCap returns the queue capacity.
func (c *Controller) QueueCap() int {
	return c.queue.Cap()
}

// State returns the controller lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EffectiveID returns the resolved instance id, empty before Start.
func (c *Controller) EffectiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effectiveID
}
