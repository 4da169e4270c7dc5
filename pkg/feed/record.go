// Package feed defines the data model for the signal enrichment pipeline:
// inbound envelopes, raw news records, and enriched records.
package feed

import (
	"fmt"
	"time"
)

// RawRecord is the immutable raw news item carried by an envelope.
// Fields are write-once: a repeated upsert never changes them.
type RawRecord struct {
	// Title is the news headline. Required.
	Title string `json:"title"`

	// Description is the article summary or lead paragraph.
	Description string `json:"description"`

	// Link is the canonical article URL.
	Link string `json:"link"`

	// PublishedAt is the publication time, best-effort parsed.
	PublishedAt time.Time `json:"published_at"`

	// Source identifies the originating feed or publisher.
	Source string `json:"source"`

	// Category is an optional producer-assigned category.
	Category string `json:"category,omitempty"`

	// OriginalSentiment is an optional sentiment hint from the producer.
	OriginalSentiment string `json:"original_sentiment,omitempty"`
}

// Enrichment holds the structured metadata derived by the reasoning service.
// It is produced only by a successful adapter call, never constructed with
// placeholder values.
type Enrichment struct {
	// Tickers is the ordered list of affected instrument symbols.
	Tickers []string `json:"tickers"`

	// Sector is the primary economic sector. Required.
	Sector string `json:"sector"`

	// Industry is the industry within the sector.
	Industry string `json:"industry"`

	// Sentiment is the derived market sentiment. Required.
	Sentiment Sentiment `json:"sentiment"`

	// Entities is the ordered list of named entities mentioned.
	Entities []string `json:"entities"`

	// Summary is a one-or-two sentence condensed summary.
	Summary string `json:"summary"`

	// Confidence is the model's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Validate checks the enrichment invariants: confidence must lie in [0, 1]
// and the required fields must be present.
func (e *Enrichment) Validate() error {
	if e.Sector == "" {
		return fmt.Errorf("enrichment sector cannot be empty")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("enrichment confidence %v outside [0, 1]", e.Confidence)
	}
	return nil
}

// EnrichedRecord is the only entity written to durable storage: the union of
// the raw fields, the enrichment fields, the envelope id, and the analysis
// timestamp.
type EnrichedRecord struct {
	// ID is the envelope id and the dedup/upsert key.
	ID string `json:"id"`

	Raw        RawRecord  `json:"raw"`
	Enrichment Enrichment `json:"enrichment"`

	// AnalyzedAt is when the adapter call completed.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// NewEnrichedRecord combines an accepted envelope with a validated enrichment.
func NewEnrichedRecord(env *Envelope, enr *Enrichment, analyzedAt time.Time) *EnrichedRecord {
	return &EnrichedRecord{
		ID:         env.ID,
		Raw:        env.Data,
		Enrichment: *enr,
		AnalyzedAt: analyzedAt,
	}
}
