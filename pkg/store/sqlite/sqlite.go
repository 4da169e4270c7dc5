// Package sqlite implements the persistence gateway on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/newswire/newswire/pkg/feed"
	"github.com/newswire/newswire/pkg/logger"
	"github.com/newswire/newswire/pkg/store"
)

// schema creates the records table. CREATE IF NOT EXISTS keeps Initialize
// idempotent across restarts.
const schema = `
CREATE TABLE IF NOT EXISTS news_records (
	id                 TEXT PRIMARY KEY,
	title              TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	link               TEXT NOT NULL DEFAULT '',
	published_at       TIMESTAMP NOT NULL,
	source             TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	original_sentiment TEXT NOT NULL DEFAULT '',
	tickers            TEXT NOT NULL DEFAULT '[]',
	sector             TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	analyzed_sentiment TEXT NOT NULL DEFAULT 'unknown',
	entities           TEXT NOT NULL DEFAULT '[]',
	summary            TEXT NOT NULL DEFAULT '',
	confidence         REAL NOT NULL DEFAULT 0,
	analyzed_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_news_records_analyzed_at ON news_records(analyzed_at);
CREATE INDEX IF NOT EXISTS idx_news_records_sector ON news_records(sector);
CREATE INDEX IF NOT EXISTS idx_news_records_industry ON news_records(industry);
CREATE INDEX IF NOT EXISTS idx_news_records_sentiment ON news_records(analyzed_sentiment);
`

// upsertQuery refreshes only the enrichment columns on conflict. The raw
// columns keep their first-written values.
const upsertQuery = `
INSERT INTO news_records (
	id, title, description, link, published_at, source, category,
	original_sentiment, tickers, sector, industry, analyzed_sentiment,
	entities, summary, confidence, analyzed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	tickers            = excluded.tickers,
	sector             = excluded.sector,
	industry           = excluded.industry,
	analyzed_sentiment = excluded.analyzed_sentiment,
	entities           = excluded.entities,
	summary            = excluded.summary,
	confidence         = excluded.confidence,
	analyzed_at        = excluded.analyzed_at
`

const selectColumns = `
	id, title, description, link, published_at, source, category,
	original_sentiment, tickers, sector, industry, analyzed_sentiment,
	entities, summary, confidence, analyzed_at
`

// Gateway is a store.Gateway backed by SQLite.
type Gateway struct {
	db   *sql.DB
	path string
	log  logger.Logger

	metrics store.MetricsRecorder
}

// New opens (or creates) the SQLite database at path. The parent directory
// is created when missing. WAL mode keeps concurrent reads cheap while the
// single writer holds the file.
func New(path string, log logger.Logger) (*Gateway, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if log == nil {
		log = logger.Global()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Gateway{
		db:   db,
		path: path,
		log:  log.WithComponent("store"),
	}, nil
}

// SetMetrics sets the metrics recorder for the gateway.
func (g *Gateway) SetMetrics(m store.MetricsRecorder) {
	g.metrics = m
}

// Initialize creates the schema if it does not exist yet.
func (g *Gateway) Initialize(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, schema); err != nil {
		return &store.PersistenceError{Operation: "initialize", Cause: err}
	}
	g.log.Info("storage initialized", "path", g.path)
	return nil
}

// Upsert writes one enriched record idempotently.
func (g *Gateway) Upsert(ctx context.Context, rec *feed.EnrichedRecord) error {
	if rec == nil {
		return &store.InvalidRecordError{Reason: "record cannot be nil"}
	}
	if rec.ID == "" {
		return &store.InvalidRecordError{Reason: "id cannot be empty"}
	}
	if err := rec.Enrichment.Validate(); err != nil {
		return &store.InvalidRecordError{ID: rec.ID, Reason: err.Error()}
	}

	tickers, err := json.Marshal(rec.Enrichment.Tickers)
	if err != nil {
		return &store.InvalidRecordError{ID: rec.ID, Reason: fmt.Sprintf("tickers not serializable: %v", err)}
	}
	entities, err := json.Marshal(rec.Enrichment.Entities)
	if err != nil {
		return &store.InvalidRecordError{ID: rec.ID, Reason: fmt.Sprintf("entities not serializable: %v", err)}
	}

	start := time.Now()
	_, err = g.db.ExecContext(ctx, upsertQuery,
		rec.ID,
		rec.Raw.Title,
		rec.Raw.Description,
		rec.Raw.Link,
		rec.Raw.PublishedAt.UTC(),
		rec.Raw.Source,
		rec.Raw.Category,
		rec.Raw.OriginalSentiment,
		string(tickers),
		rec.Enrichment.Sector,
		rec.Enrichment.Industry,
		rec.Enrichment.Sentiment.String(),
		string(entities),
		rec.Enrichment.Summary,
		rec.Enrichment.Confidence,
		rec.AnalyzedAt.UTC(),
	)
	if err != nil {
		return &store.PersistenceError{Operation: "upsert", ID: rec.ID, Cause: err}
	}
	if g.metrics != nil {
		g.metrics.RecordPersistDuration(time.Since(start))
	}
	return nil
}

// Get returns one record by id.
func (g *Gateway) Get(ctx context.Context, id string) (*feed.EnrichedRecord, error) {
	row := g.db.QueryRowContext(ctx,
		"SELECT"+selectColumns+"FROM news_records WHERE id = ?", id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, &store.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, &store.PersistenceError{Operation: "get", ID: id, Cause: err}
	}
	return rec, nil
}

// Recent returns up to limit records, newest analysis first.
func (g *Gateway) Recent(ctx context.Context, limit int) ([]*feed.EnrichedRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := g.db.QueryContext(ctx,
		"SELECT"+selectColumns+"FROM news_records ORDER BY analyzed_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, &store.PersistenceError{Operation: "recent", Cause: err}
	}
	defer rows.Close()

	var records []*feed.EnrichedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &store.PersistenceError{Operation: "recent", Cause: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.PersistenceError{Operation: "recent", Cause: err}
	}
	return records, nil
}

// Count returns the number of stored records.
func (g *Gateway) Count(ctx context.Context) (int64, error) {
	var count int64
	err := g.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news_records").Scan(&count)
	if err != nil {
		return 0, &store.PersistenceError{Operation: "count", Cause: err}
	}
	return count, nil
}

// Close closes the database handle.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*feed.EnrichedRecord, error) {
	var (
		rec       feed.EnrichedRecord
		tickers   string
		entities  string
		sentiment string
	)

	err := s.Scan(
		&rec.ID,
		&rec.Raw.Title,
		&rec.Raw.Description,
		&rec.Raw.Link,
		&rec.Raw.PublishedAt,
		&rec.Raw.Source,
		&rec.Raw.Category,
		&rec.Raw.OriginalSentiment,
		&tickers,
		&rec.Enrichment.Sector,
		&rec.Enrichment.Industry,
		&sentiment,
		&entities,
		&rec.Enrichment.Summary,
		&rec.Enrichment.Confidence,
		&rec.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tickers), &rec.Enrichment.Tickers); err != nil {
		return nil, fmt.Errorf("failed to decode tickers: %w", err)
	}
	if err := json.Unmarshal([]byte(entities), &rec.Enrichment.Entities); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}
	rec.Enrichment.Sentiment = feed.ParseSentiment(sentiment)
	return &rec, nil
}
