package memory

import (
	"context"
	"sync"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// DefaultTranscriptLimit is the number of entries kept per identity.
const DefaultTranscriptLimit = 40

// TranscriptStore implements ports.TranscriptStore in memory,
// keeping only the newest entries of each identity.
type TranscriptStore struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]domain.TranscriptEntry
}

// NewTranscriptStore creates a store capped at limit entries per identity.
// A non-positive limit selects DefaultTranscriptLimit.
func NewTranscriptStore(limit int) *TranscriptStore {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	return &TranscriptStore{limit: limit, entries: make(map[string][]domain.TranscriptEntry)}
}

// Append adds an entry, dropping the oldest ones past the limit.
func (s *TranscriptStore) Append(ctx context.Context, identity string, entry domain.TranscriptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.entries[identity], entry)
	if over := len(list) - s.limit; over > 0 {
		list = append([]domain.TranscriptEntry(nil), list[over:]...)
	}
	s.entries[identity] = list
	return nil
}

// Transcript returns a copy of the entries of identity, oldest first.
func (s *TranscriptStore) Transcript(ctx context.Context, identity string) ([]domain.TranscriptEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), s.entries[identity]...), nil
}

// Clear drops every entry of identity.
func (s *TranscriptStore) Clear(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, identity)
	return nil
}
