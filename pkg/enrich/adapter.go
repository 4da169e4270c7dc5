// Package enrich analyzes raw news records with an LLM and returns a
// structured enrichment.
//
// The adapter makes exactly one attempt per record. Failure classification
// (transport, malformed response, invalid field) is the adapter's whole error
// contract; retry policy belongs to the caller.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/newswire/newswire/pkg/feed"
	"github.com/newswire/newswire/pkg/logger"
)

// Analyzer produces an enrichment for one raw news record.
type Analyzer interface {
	Analyze(ctx context.Context, rec feed.RawRecord) (feed.Enrichment, error)
}

// Config holds configuration for the OpenAI-backed analyzer.
type Config struct {
	// APIKey authenticates against the completion API.
	APIKey string

	// BaseURL overrides the API endpoint, for self-hosted gateways and
	// compatible local servers. Empty uses the default endpoint.
	BaseURL string

	// Model is the completion model name.
	Model string

	// Temperature keeps the analysis near-deterministic.
	Temperature float32

	// MaxTokens bounds the completion length.
	MaxTokens int

	// RequestTimeout bounds one analysis call.
	RequestTimeout time.Duration
}

// Validate validates the analyzer configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key cannot be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout)
	}
	return nil
}

// OpenAIAnalyzer implements Analyzer against an OpenAI-compatible
// chat-completion API.
type OpenAIAnalyzer struct {
	client *openai.Client
	config *Config
	log    logger.Logger
}

// NewOpenAIAnalyzer creates an analyzer with the given configuration.
func NewOpenAIAnalyzer(config *Config, log logger.Logger) (*OpenAIAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Global()
	}

	clientCfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientCfg.BaseURL = config.BaseURL
	}

	return &OpenAIAnalyzer{
		client: openai.NewClientWithConfig(clientCfg),
		config: config,
		log:    log.WithComponent("enrich"),
	}, nil
}

// wireEnrichment mirrors the model's JSON answer. Required fields are
// pointers so a missing field is distinguishable from a zero value.
type wireEnrichment struct {
	Tickers    []string `json:"tickers"`
	Sector     *string  `json:"sector"`
	Industry   string   `json:"industry"`
	Sentiment  *string  `json:"sentiment"`
	Entities   []string `json:"entities"`
	Summary    string   `json:"summary"`
	Confidence *float64 `json:"confidence"`
}

// Analyze sends one record for analysis and validates the structured answer.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, rec feed.RawRecord) (feed.Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       a.config.Model,
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(rec)},
		},
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return feed.Enrichment{}, &AdapterError{
			Kind:   KindTransport,
			Detail: "completion request failed",
			Err:    err,
		}
	}
	if len(resp.Choices) == 0 {
		return feed.Enrichment{}, &AdapterError{
			Kind:   KindTransport,
			Detail: "completion returned no choices",
		}
	}

	content := resp.Choices[0].Message.Content
	enr, err := parseEnrichment(content)
	if err != nil {
		return feed.Enrichment{}, err
	}

	a.log.DebugContext(ctx, "analyzed record",
		"title", rec.Title,
		"sector", enr.Sector,
		"sentiment", enr.Sentiment.String(),
		"confidence", enr.Confidence,
		"duration_ms", time.Since(start).Milliseconds())
	return enr, nil
}

// parseEnrichment decodes and validates the model's JSON answer.
func parseEnrichment(content string) (feed.Enrichment, error) {
	var w wireEnrichment
	if err := json.Unmarshal([]byte(content), &w); err != nil {
		return feed.Enrichment{}, &AdapterError{
			Kind:   KindMalformedResponse,
			Detail: "response is not valid JSON",
			Err:    err,
		}
	}

	// A parseable answer missing a required field is still a malformed
	// response; invalid_field is reserved for present-but-out-of-range values.
	if w.Sector == nil || *w.Sector == "" {
		return feed.Enrichment{}, &AdapterError{
			Kind:   KindMalformedResponse,
			Detail: "sector is missing",
		}
	}
	if w.Sentiment == nil || *w.Sentiment == "" {
		return feed.Enrichment{}, &AdapterError{
			Kind:   KindMalformedResponse,
			Detail: "sentiment is missing",
		}
	}
	if w.Confidence == nil {
		return feed.Enrichment{}, &AdapterError{
			Kind:   KindMalformedResponse,
			Detail: "confidence is missing",
		}
	}
	if *w.Confidence < 0 || *w.Confidence > 1 {
		return feed.Enrichment{}, &AdapterError{
			Kind:   KindInvalidField,
			Detail: fmt.Sprintf("confidence %v is outside [0, 1]", *w.Confidence),
		}
	}

	enr := feed.Enrichment{
		Tickers:    w.Tickers,
		Sector:     *w.Sector,
		Industry:   w.Industry,
		Sentiment:  feed.ParseSentiment(*w.Sentiment),
		Entities:   w.Entities,
		Summary:    w.Summary,
		Confidence: *w.Confidence,
	}
	if enr.Tickers == nil {
		enr.Tickers = []string{}
	}
	if enr.Entities == nil {
		enr.Entities = []string{}
	}
	return enr, nil
}
