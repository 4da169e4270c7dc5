package durable

import (
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestResolveIdentity(t *testing.T) {
	now := time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC)
	suffixed := "news-feed-pipeline-" + strconv.FormatInt(now.Unix(), 10)

	tests := []struct {
		name     string
		status   Status
		queryErr error
		want     string
	}{
		{"running instance attaches", StatusRunning, nil, "news-feed-pipeline"},
		{"unseen id starts fresh", StatusUnknown, &NotFoundError{ID: "news-feed-pipeline"}, "news-feed-pipeline"},
		{"completed instance mints new id", StatusCompleted, nil, suffixed},
		{"failed instance mints new id", StatusFailed, nil, suffixed},
		{"cancelled instance mints new id", StatusCancelled, nil, suffixed},
		{"indeterminate lookup mints new id", StatusUnknown, errors.New("engine timeout"), suffixed},
		{"unknown status mints new id", StatusUnknown, nil, suffixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveIdentity("news-feed-pipeline", tt.status, tt.queryErr, now)
			if got != tt.want {
				t.Errorf("ResolveIdentity() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusUnknown, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
	}{
		{"running", StatusRunning},
		{"completed", StatusCompleted},
		{"failed", StatusFailed},
		{"cancelled", StatusCancelled},
		{"bogus", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseStatus(tt.input); got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	// String and ParseStatus must round-trip for every named status.
	for _, s := range []Status{StatusRunning, StatusCompleted, StatusFailed, StatusCancelled} {
		if ParseStatus(s.String()) != s {
			t.Errorf("round trip failed for %v", s)
		}
	}
}
