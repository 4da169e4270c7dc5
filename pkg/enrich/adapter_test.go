package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newswire/newswire/pkg/feed"
)

// completionServer returns an httptest server that answers every chat
// completion with the given message content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "test-model",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestAnalyzer(t *testing.T, baseURL string) *OpenAIAnalyzer {
	t.Helper()
	a, err := NewOpenAIAnalyzer(&Config{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "test-model",
		Temperature:    0.1,
		MaxTokens:      512,
		RequestTimeout: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	return a
}

func testRecord() feed.RawRecord {
	return feed.RawRecord{
		Title:       "Acme Corp beats quarterly earnings estimates",
		Description: "Acme reported record revenue.",
		Source:      "https://example.com/feed",
		PublishedAt: time.Now(),
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{APIKey: "k", Model: "m", RequestTimeout: time.Second}, false},
		{"missing api key", Config{Model: "m", RequestTimeout: time.Second}, true},
		{"missing model", Config{APIKey: "k", RequestTimeout: time.Second}, true},
		{"zero timeout", Config{APIKey: "k", Model: "m"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	srv := completionServer(t, `{
		"tickers": ["ACME"],
		"sector": "Technology",
		"industry": "Software",
		"sentiment": "positive",
		"entities": ["Acme Corp"],
		"summary": "Earnings beat should lift the stock.",
		"confidence": 0.87
	}`)
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL+"/v1")
	enr, err := a.Analyze(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if enr.Sector != "Technology" {
		t.Errorf("Sector = %q, want Technology", enr.Sector)
	}
	if enr.Sentiment != feed.SentimentPositive {
		t.Errorf("Sentiment = %v, want positive", enr.Sentiment)
	}
	if enr.Confidence != 0.87 {
		t.Errorf("Confidence = %v, want 0.87", enr.Confidence)
	}
	if len(enr.Tickers) != 1 || enr.Tickers[0] != "ACME" {
		t.Errorf("Tickers = %v, want [ACME]", enr.Tickers)
	}
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	srv := completionServer(t, "the stock will probably go up")
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL+"/v1")
	_, err := a.Analyze(context.Background(), testRecord())
	if KindOf(err) != KindMalformedResponse {
		t.Errorf("expected malformed_response error, got %v", err)
	}
}

func TestAnalyzeInvalidFields(t *testing.T) {
	// Missing required fields are malformed responses; invalid_field is
	// reserved for values that are present but out of range.
	tests := []struct {
		name     string
		content  string
		wantKind ErrorKind
	}{
		{"missing sector", `{"sentiment": "neutral", "confidence": 0.5}`, KindMalformedResponse},
		{"empty sector", `{"sector": "", "sentiment": "neutral", "confidence": 0.5}`, KindMalformedResponse},
		{"missing sentiment", `{"sector": "Energy", "confidence": 0.5}`, KindMalformedResponse},
		{"missing confidence", `{"sector": "Energy", "sentiment": "neutral"}`, KindMalformedResponse},
		{"confidence above one", `{"sector": "Energy", "sentiment": "neutral", "confidence": 1.4}`, KindInvalidField},
		{"negative confidence", `{"sector": "Energy", "sentiment": "neutral", "confidence": -0.1}`, KindInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.content)
			defer srv.Close()

			a := newTestAnalyzer(t, srv.URL+"/v1")
			_, err := a.Analyze(context.Background(), testRecord())
			if KindOf(err) != tt.wantKind {
				t.Errorf("expected %s error, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestAnalyzeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL+"/v1")
	_, err := a.Analyze(context.Background(), testRecord())
	if KindOf(err) != KindTransport {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestAnalyzeUnknownSentiment(t *testing.T) {
	srv := completionServer(t, `{"sector": "Energy", "sentiment": "mixed", "confidence": 0.5}`)
	defer srv.Close()

	a := newTestAnalyzer(t, srv.URL+"/v1")
	enr, err := a.Analyze(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if enr.Sentiment != feed.SentimentUnknown {
		t.Errorf("Sentiment = %v, want unknown", enr.Sentiment)
	}
}

func TestParseEnrichmentDefaultsSlices(t *testing.T) {
	enr, err := parseEnrichment(`{"sector": "Energy", "sentiment": "neutral", "confidence": 0.5}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if enr.Tickers == nil || enr.Entities == nil {
		t.Error("expected non-nil ticker and entity slices")
	}
}
