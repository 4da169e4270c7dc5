// Package models defines API request and response models.
package models

import "github.com/newswire/newswire/pkg/feed"

// SignalAcceptedResponse is returned when a signal is accepted for processing.
type SignalAcceptedResponse struct {
	// ID is the signal id, as submitted or derived from the guid fallback.
	ID string `json:"id"`

	// Status is always "accepted".
	Status string `json:"status"`
}

// RecentRecordsResponse lists the most recently persisted records, newest first.
type RecentRecordsResponse struct {
	Count   int                    `json:"count"`
	Records []*feed.EnrichedRecord `json:"records"`
}

// StatsResponse reports pipeline counters and state.
type StatsResponse struct {
	// State is the pipeline lifecycle state.
	State string `json:"state"`

	// InstanceID is the resolved durable instance id.
	InstanceID string `json:"instance_id"`

	// Received counts signals accepted by the receiver.
	Received uint64 `json:"received"`

	// Processed counts records persisted by the worker.
	Processed uint64 `json:"processed"`

	// QueueDepth is the current number of queued signals.
	QueueDepth int `json:"queue_depth"`

	// QueueCapacity is the queue bound.
	QueueCapacity int `json:"queue_capacity"`
}
