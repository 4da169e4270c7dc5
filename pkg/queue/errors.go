package queue

import "fmt"

// QueueFullError is returned when the queue is at capacity. The caller must
// retry or drop; the queue never blocks the submitter.
type QueueFullError struct {
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("signal queue is full (capacity: %d)", e.Capacity)
}

// QueueClosedError is returned when enqueueing to a closed queue.
type QueueClosedError struct{}

func (e *QueueClosedError) Error() string {
	return "signal queue is closed"
}

// DuplicateError is returned when deduplication is enabled and an envelope
// with the same id is already queued.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("envelope %s is already queued", e.ID)
}

// IsQueueFullError returns true if the error is a QueueFullError.
func IsQueueFullError(err error) bool {
	_, ok := err.(*QueueFullError)
	return ok
}

// IsQueueClosedError returns true if the error is a QueueClosedError.
func IsQueueClosedError(err error) bool {
	_, ok := err.(*QueueClosedError)
	return ok
}

// IsDuplicateError returns true if the error is a DuplicateError.
func IsDuplicateError(err error) bool {
	_, ok := err.(*DuplicateError)
	return ok
}
