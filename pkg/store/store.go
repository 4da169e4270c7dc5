// Package store defines the persistence gateway for enriched news records.
//
// The gateway contract is idempotent by construction: writing the same record
// id twice refreshes the enrichment columns and never duplicates a row or
// rewrites the raw fields.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/newswire/newswire/pkg/feed"
)

// Gateway is the persistence interface for enriched records.
type Gateway interface {
	// Initialize prepares the schema. It is idempotent and must be called
	// before any other operation.
	Initialize(ctx context.Context) error

	// Upsert inserts the record or, when the id already exists, updates only
	// the enrichment columns. Raw fields of an existing row are left as they
	// were first written.
	Upsert(ctx context.Context, rec *feed.EnrichedRecord) error

	// Get returns the record with the given id, or NotFoundError.
	Get(ctx context.Context, id string) (*feed.EnrichedRecord, error)

	// Recent returns up to limit records ordered by analysis time descending.
	Recent(ctx context.Context, limit int) ([]*feed.EnrichedRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying storage handle.
	Close() error
}

// NotFoundError indicates that the requested record was not found.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record not found: %s", e.ID)
}

// IsNotFoundError returns true if the error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// PersistenceError indicates a storage backend failure during an operation.
type PersistenceError struct {
	Operation string
	ID        string
	Cause     error
}

func (e *PersistenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("persistence error during %s of %s: %v", e.Operation, e.ID, e.Cause)
	}
	return fmt.Sprintf("persistence error during %s: %v", e.Operation, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// IsPersistenceError returns true if the error is a PersistenceError.
func IsPersistenceError(err error) bool {
	_, ok := err.(*PersistenceError)
	return ok
}

// InvalidRecordError indicates a record that violates the write contract.
type InvalidRecordError struct {
	ID     string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.ID, e.Reason)
}

// IsInvalidRecordError returns true if the error is an InvalidRecordError.
func IsInvalidRecordError(err error) bool {
	_, ok := err.(*InvalidRecordError)
	return ok
}

// MetricsRecorder receives persistence timing observations.
type MetricsRecorder interface {
	RecordPersistDuration(d time.Duration)
}
