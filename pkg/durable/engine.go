// Package durable abstracts the durable process-instance engine the pipeline
// runs inside.
//
// An instance is the long-lived execution identity of the pipeline. The
// engine tracks one record per instance id: its status and lifecycle
// timestamps. The pipeline uses this to attach to a still-running instance
// after a restart, or to mint a fresh identity when the previous run ended.
package durable

import (
	"context"
	"fmt"
	"time"
)

// Status is the lifecycle status of a process instance.
type Status int

const (
	StatusUnknown Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusCancelled
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseStatus parses a status string.
func ParseStatus(s string) Status {
	switch s {
	case "running":
		return StatusRunning
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	case "cancelled":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// Terminal reports whether the status is final. A terminal instance id can
// never run again; resuming requires a new identity.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Instance is one persisted process-instance record.
type Instance struct {
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Engine is the durable process-instance store.
type Engine interface {
	// Create registers a new running instance. An existing instance with the
	// same id that is still running returns AlreadyExistsError.
	Create(ctx context.Context, id string) error

	// Describe returns the instance status, or NotFoundError.
	Describe(ctx context.Context, id string) (Status, error)

	// Cancel marks a running instance cancelled. Cancelling a terminal or
	// missing instance is a no-op.
	Cancel(ctx context.Context, id string) error

	// Close releases the engine's resources.
	Close() error
}

// NotFoundError indicates that no instance with the given id exists.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("process instance not found: %s", e.ID)
}

// IsNotFoundError returns true if the error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// AlreadyExistsError indicates that a running instance with the id exists.
type AlreadyExistsError struct {
	ID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("process instance already running: %s", e.ID)
}

// IsAlreadyExistsError returns true if the error is an AlreadyExistsError.
func IsAlreadyExistsError(err error) bool {
	_, ok := err.(*AlreadyExistsError)
	return ok
}

// UnavailableError indicates that the engine backend cannot be reached.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("process engine unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// IsUnavailableError returns true if the error is an UnavailableError.
func IsUnavailableError(err error) bool {
	_, ok := err.(*UnavailableError)
	return ok
}
