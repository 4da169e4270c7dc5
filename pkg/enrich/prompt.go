package enrich

import (
	"fmt"
	"strings"
	"time"

	"github.com/newswire/newswire/pkg/feed"
)

// systemPrompt fixes the analysis contract: the model must answer with a
// single JSON object using exactly these fields.
const systemPrompt = `You are a financial news analyst. Analyze the given news item and respond with a single JSON object, no prose, using exactly these fields:
{
  "tickers": ["list of stock ticker symbols mentioned or directly affected"],
  "sector": "the single most relevant market sector",
  "industry": "the single most relevant industry within that sector",
  "sentiment": "positive, negative, or neutral, judged from an investor's perspective",
  "entities": ["companies, people, and organizations named in the item"],
  "summary": "one to two sentence summary of the market impact",
  "confidence": 0.0
}
Rules:
- "sector" must be one of: Technology, Healthcare, Financials, Energy, Industrials, Consumer Discretionary, Consumer Staples, Materials, Utilities, Real Estate, Communication Services, Other.
- "confidence" is your confidence in the analysis, between 0.0 and 1.0.
- Use an empty list when no tickers or entities apply. Never invent ticker symbols.`

// buildUserPrompt renders one news record for analysis.
func buildUserPrompt(rec feed.RawRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", rec.Title)
	if rec.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", rec.Description)
	}
	if rec.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", rec.Source)
	}
	if rec.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", rec.Category)
	}
	if !rec.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", rec.PublishedAt.Format(time.RFC3339))
	}
	return b.String()
}
