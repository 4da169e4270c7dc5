package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is one inbound unit of work: a producer-assigned id, the receipt
// timestamp, and the raw news record to enrich. Envelopes are transient and
// are never persisted themselves.
type Envelope struct {
	// ID is producer-assigned and globally unique per logical news item.
	ID string `json:"id"`

	// ReceivedAt is when the producer emitted the envelope.
	ReceivedAt time.Time `json:"timestamp"`

	// Data is the raw news record.
	Data RawRecord `json:"data"`
}

// ValidationError reports a malformed inbound envelope. The envelope is
// rejected synchronously and no state is mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid envelope: field %s %s", e.Field, e.Reason)
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// Validate checks the envelope acceptance constraints.
func (e *Envelope) Validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "id", Reason: "cannot be empty"}
	}
	if e.Data.Title == "" {
		return &ValidationError{Field: "data.title", Reason: "cannot be empty"}
	}
	return nil
}

// wireEnvelope mirrors the inbound JSON contract. Optional fields are
// pointers so that absence is distinguishable from the zero value.
type wireEnvelope struct {
	ID        *string  `json:"id"`
	Timestamp *string  `json:"timestamp"`
	Data      *wireRaw `json:"data"`
}

type wireRaw struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
	PublishedAt *string `json:"published_at"`
	FeedURL     *string `json:"feed_url"`
	GUID        *string `json:"guid"`
	Category    *string `json:"category"`
	Sentiment   *string `json:"sentiment"`
}

// publishedAtLayouts are tried in order when parsing the publication time.
// RSS feeds commonly emit RFC1123Z ("Fri, 6 Jun 2025 08:49:00 +0300").
var publishedAtLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

// ParseEnvelope decodes an inbound JSON envelope and validates required
// field presence explicitly. A missing id or title is rejected; a missing or
// unparseable timestamp falls back to now.
func ParseEnvelope(data []byte, now time.Time) (*Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &ValidationError{Field: "body", Reason: fmt.Sprintf("not valid JSON: %v", err)}
	}

	if w.Data == nil {
		return nil, &ValidationError{Field: "data", Reason: "is required"}
	}

	// Producers set id to the feed item guid; accept the guid directly when
	// the top-level id is absent.
	id := ""
	if w.ID != nil {
		id = *w.ID
	}
	if id == "" && w.Data.GUID != nil {
		id = *w.Data.GUID
	}
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "is required"}
	}
	if w.Data.Title == nil || *w.Data.Title == "" {
		return nil, &ValidationError{Field: "data.title", Reason: "is required"}
	}

	env := &Envelope{
		ID:         id,
		ReceivedAt: now,
		Data: RawRecord{
			Title:       *w.Data.Title,
			PublishedAt: now,
		},
	}

	if w.Timestamp != nil {
		if ts, err := time.Parse(time.RFC3339, *w.Timestamp); err == nil {
			env.ReceivedAt = ts
		}
	}
	if w.Data.Description != nil {
		env.Data.Description = *w.Data.Description
	}
	if w.Data.Link != nil {
		env.Data.Link = *w.Data.Link
	}
	if w.Data.PublishedAt != nil {
		env.Data.PublishedAt = parsePublishedAt(*w.Data.PublishedAt, now)
	}
	// The feed URL doubles as the source identifier on the wire.
	if w.Data.FeedURL != nil {
		env.Data.Source = *w.Data.FeedURL
	}
	if w.Data.Category != nil {
		env.Data.Category = *w.Data.Category
	}
	if w.Data.Sentiment != nil {
		env.Data.OriginalSentiment = *w.Data.Sentiment
	}

	return env, nil
}

// parsePublishedAt parses the publication time best-effort, defaulting to
// now when no known layout matches.
func parsePublishedAt(s string, now time.Time) time.Time {
	for _, layout := range publishedAtLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return now
}
