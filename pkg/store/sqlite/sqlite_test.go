package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newswire/newswire/pkg/feed"
	"github.com/newswire/newswire/pkg/store"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := New(filepath.Join(t.TempDir(), "news.db"), nil)
	require.NoError(t, err)
	require.NoError(t, g.Initialize(context.Background()))
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func sampleRecord(id string) *feed.EnrichedRecord {
	return &feed.EnrichedRecord{
		ID: id,
		Raw: feed.RawRecord{
			Title:             "Acme beats estimates",
			Description:       "Record revenue quarter.",
			Link:              "https://example.com/acme",
			PublishedAt:       time.Date(2025, 6, 6, 8, 49, 0, 0, time.UTC),
			Source:            "https://example.com/feed",
			Category:          "earnings",
			OriginalSentiment: "positive",
		},
		Enrichment: feed.Enrichment{
			Tickers:    []string{"ACME"},
			Sector:     "Technology",
			Industry:   "Software",
			Sentiment:  feed.SentimentPositive,
			Entities:   []string{"Acme Corp"},
			Summary:    "Earnings beat should lift the stock.",
			Confidence: 0.85,
		},
		AnalyzedAt: time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC),
	}
}

func TestInitializeIdempotent(t *testing.T) {
	g := newTestGateway(t)
	// Re-initializing an existing schema must not fail.
	require.NoError(t, g.Initialize(context.Background()))
}

func TestUpsertAndGet(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	rec := sampleRecord("item-1")
	require.NoError(t, g.Upsert(ctx, rec))

	got, err := g.Get(ctx, "item-1")
	require.NoError(t, err)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Raw.Title, got.Raw.Title)
	assert.Equal(t, rec.Raw.Link, got.Raw.Link)
	assert.Equal(t, rec.Enrichment.Sector, got.Enrichment.Sector)
	assert.Equal(t, rec.Enrichment.Sentiment, got.Enrichment.Sentiment)
	assert.Equal(t, rec.Enrichment.Tickers, got.Enrichment.Tickers)
	assert.Equal(t, rec.Enrichment.Entities, got.Enrichment.Entities)
	assert.InDelta(t, rec.Enrichment.Confidence, got.Enrichment.Confidence, 1e-9)
	assert.True(t, rec.Raw.PublishedAt.Equal(got.Raw.PublishedAt))
	assert.True(t, rec.AnalyzedAt.Equal(got.AnalyzedAt))
}

func TestUpsertIdempotent(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	rec := sampleRecord("item-1")
	require.NoError(t, g.Upsert(ctx, rec))

	// A repeated write with new enrichment must update in place, not
	// duplicate, and must leave the raw fields as first written.
	updated := sampleRecord("item-1")
	updated.Raw.Title = "changed title that must not win"
	updated.Enrichment.Sector = "Energy"
	updated.Enrichment.Confidence = 0.6
	updated.AnalyzedAt = updated.AnalyzedAt.Add(time.Hour)
	require.NoError(t, g.Upsert(ctx, updated))

	count, err := g.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := g.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme beats estimates", got.Raw.Title)
	assert.Equal(t, "Energy", got.Enrichment.Sector)
	assert.InDelta(t, 0.6, got.Enrichment.Confidence, 1e-9)
	assert.True(t, updated.AnalyzedAt.Equal(got.AnalyzedAt))
}

func TestUpsertInvalidRecord(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  *feed.EnrichedRecord
	}{
		{"nil record", nil},
		{"empty id", func() *feed.EnrichedRecord {
			r := sampleRecord("")
			return r
		}()},
		{"missing sector", func() *feed.EnrichedRecord {
			r := sampleRecord("x")
			r.Enrichment.Sector = ""
			return r
		}()},
		{"confidence out of range", func() *feed.EnrichedRecord {
			r := sampleRecord("x")
			r.Enrichment.Confidence = 1.5
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Upsert(ctx, tt.rec)
			assert.True(t, store.IsInvalidRecordError(err), "got %v", err)
		})
	}
}

func TestGetNotFound(t *testing.T) {
	g := newTestGateway(t)

	_, err := g.Get(context.Background(), "missing")
	assert.True(t, store.IsNotFoundError(err), "got %v", err)
}

func TestRecentOrdering(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		rec := sampleRecord(id)
		rec.AnalyzedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, g.Upsert(ctx, rec))
	}

	records, err := g.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, "mid", records[1].ID)
}

func TestRecentDefaultsLimit(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Upsert(ctx, sampleRecord("a")))
	records, err := g.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestCount(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	count, err := g.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, g.Upsert(ctx, sampleRecord("a")))
	require.NoError(t, g.Upsert(ctx, sampleRecord("b")))

	count, err = g.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("", nil)
	assert.Error(t, err)
}
