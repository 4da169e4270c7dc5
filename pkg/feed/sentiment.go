package feed

// Sentiment classifies the market tone of an enriched news item.
type Sentiment int

const (
	SentimentUnknown Sentiment = iota
	SentimentPositive
	SentimentNegative
	SentimentNeutral
)

// String returns the string representation of Sentiment.
func (s Sentiment) String() string {
	switch s {
	case SentimentPositive:
		return "positive"
	case SentimentNegative:
		return "negative"
	case SentimentNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Symbol returns a single-rune display marker for the sentiment.
// The mapping is total: every variant, including unknown, has a marker.
func (s Sentiment) Symbol() string {
	switch s {
	case SentimentPositive:
		return "▲"
	case SentimentNegative:
		return "▼"
	case SentimentNeutral:
		return "■"
	default:
		return "?"
	}
}

// ParseSentiment maps a wire string onto a Sentiment variant. Strings the
// model may produce but we do not recognize map onto SentimentUnknown, which
// is a first-class variant rather than an error.
func ParseSentiment(s string) Sentiment {
	switch s {
	case "positive", "bullish":
		return SentimentPositive
	case "negative", "bearish":
		return SentimentNegative
	case "neutral":
		return SentimentNeutral
	default:
		return SentimentUnknown
	}
}

// MarshalJSON encodes the sentiment as its string form.
func (s Sentiment) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a sentiment from its string form.
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	*s = ParseSentiment(str)
	return nil
}
