package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// ResultStore implements ports.ResultStore in memory.
// Results are never evicted.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.AssessmentResult
}

// NewResultStore creates an empty result store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.AssessmentResult)}
}

// SaveResult stores result, replacing any previous result of the same identity.
func (s *ResultStore) SaveResult(ctx context.Context, result *domain.AssessmentResult) error {
	r := *result
	r.Answers = append([]domain.Answer(nil), result.Answers...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.Identity] = r
	return nil
}

// LoadResult returns the last result stored for identity.
func (s *ResultStore) LoadResult(ctx context.Context, identity string) (*domain.AssessmentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[identity]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	r.Answers = append([]domain.Answer(nil), r.Answers...)
	return &r, nil
}

// ListResults returns every stored result ordered by identity.
func (s *ResultStore) ListResults(ctx context.Context) ([]*domain.AssessmentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.AssessmentResult, 0, len(s.results))
	for _, r := range s.results {
		r.Answers = append([]domain.Answer(nil), r.Answers...)
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}
