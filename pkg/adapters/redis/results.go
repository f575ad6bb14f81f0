package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/claytonlovin/Botinho/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ResultStore implements ports.ResultStore with a single hash keyed by
// identity. Entries never expire.
type ResultStore struct {
	client *backend.Client
	key    string
}

// NewResultStore creates a result store under prefix (DefaultPrefix when empty).
func NewResultStore(client *backend.Client, prefix string) *ResultStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ResultStore{client: client, key: prefix + "results"}
}

func (s *ResultStore) SaveResult(ctx context.Context, result *domain.AssessmentResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, result.Identity, data).Err(); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

func (s *ResultStore) LoadResult(ctx context.Context, identity string) (*domain.AssessmentResult, error) {
	val, err := s.client.HGet(ctx, s.key, identity).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	var r domain.AssessmentResult
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// ListResults returns every stored result ordered by identity.
func (s *ResultStore) ListResults(ctx context.Context) ([]*domain.AssessmentResult, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	out := make([]*domain.AssessmentResult, 0, len(all))
	for identity, raw := range all {
		var r domain.AssessmentResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result of %s: %w", identity, err)
		}
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}
