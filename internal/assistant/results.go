package assistant

import (
	"sync"
	"time"

	"github.com/LeEricCH/cohere-slack-starter-app/internal/cohere"
)

const (
	citationMaxEntries = 64
	citationTTL        = 30 * time.Minute
)

type citationEntry struct {
	docs       []cohere.Document
	recordedAt time.Time
}

// CitationStore holds each answer's supporting documents so a later
// detail-view click can resolve a selected index back to the full record.
// Entries are keyed by the response message that produced them: concurrent
// answers in different threads never see each other's documents. Retention
// is bounded — a fixed cap with oldest-first eviction plus a TTL.
type CitationStore struct {
	mu      sync.Mutex
	entries map[string]citationEntry

	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewCitationStore creates a store with default retention bounds.
func NewCitationStore() *CitationStore {
	return &CitationStore{
		entries:    make(map[string]citationEntry),
		maxEntries: citationMaxEntries,
		ttl:        citationTTL,
		now:        time.Now,
	}
}

func citationKey(channel, responseTS string) string {
	return channel + "|" + responseTS
}

// Record stores the documents supporting the answer at (channel,
// responseTS), replacing any previous snapshot for that response.
func (s *CitationStore) Record(channel, responseTS string, docs []cohere.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)

	snapshot := make([]cohere.Document, len(docs))
	copy(snapshot, docs)
	s.entries[citationKey(channel, responseTS)] = citationEntry{docs: snapshot, recordedAt: now}
}

// Resolve returns the document at index for the given response, or
// ErrCitationNotFound when the response's citations are unknown, expired,
// or the index is out of range.
func (s *CitationStore) Resolve(channel, responseTS string, index int) (*cohere.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[citationKey(channel, responseTS)]
	if !ok || s.now().Sub(entry.recordedAt) > s.ttl {
		return nil, ErrCitationNotFound
	}
	if index < 0 || index >= len(entry.docs) {
		return nil, ErrCitationNotFound
	}
	doc := entry.docs[index]
	return &doc, nil
}

// evictLocked drops expired entries, then the oldest entries until the
// store is under its cap.
func (s *CitationStore) evictLocked(now time.Time) {
	for key, entry := range s.entries {
		if now.Sub(entry.recordedAt) > s.ttl {
			delete(s.entries, key)
		}
	}
	for len(s.entries) >= s.maxEntries {
		oldestKey := ""
		var oldestAt time.Time
		for key, entry := range s.entries {
			if oldestKey == "" || entry.recordedAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.recordedAt
			}
		}
		delete(s.entries, oldestKey)
	}
}
