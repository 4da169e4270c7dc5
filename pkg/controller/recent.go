package controller

import (
	"sync"

	"github.com/newswire/newswire/pkg/feed"
)

// recentRing is a fixed-size ring of the most recently persisted records,
// newest first. Readers get copies of the slice header; records themselves
// are immutable once persisted.
type recentRing struct {
	mu   sync.RWMutex
	buf  []*feed.EnrichedRecord
	next int
	full bool
}

func newRecentRing(size int) *recentRing {
	if size <= 0 {
		size = 10
	}
	return &recentRing{buf: make([]*feed.EnrichedRecord, size)}
}

func (r *recentRing) add(rec *feed.EnrichedRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = rec
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// snapshot returns the held records, newest first.
func (r *recentRing) snapshot() []*feed.EnrichedRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.buf)
	}

	out := make([]*feed.EnrichedRecord, 0, count)
	for i := 1; i <= count; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
