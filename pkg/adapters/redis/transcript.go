package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claytonlovin/Botinho/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTranscriptLimit caps the entries kept per identity.
const DefaultTranscriptLimit = 40

// TranscriptStore implements ports.TranscriptStore as a capped list per identity.
type TranscriptStore struct {
	rdb    backend.Cmdable
	prefix string
	limit  int
	ttl    time.Duration
}

// NewTranscriptStore creates a transcript store. A limit <= 0 uses
// DefaultTranscriptLimit; ttl > 0 refreshes the expiry on every append.
func NewTranscriptStore(rdb backend.Cmdable, prefix string, limit int, ttl time.Duration) *TranscriptStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	return &TranscriptStore{rdb: rdb, prefix: prefix, limit: limit, ttl: ttl}
}

func (s *TranscriptStore) key(identity string) string {
	return s.prefix + "transcript:" + identity
}

// Append pushes entry and trims the list to the newest entries.
func (s *TranscriptStore) Append(ctx context.Context, identity string, entry domain.TranscriptEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal transcript entry: %w", err)
	}
	key := s.key(identity)

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, int64(-s.limit), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append transcript: %w", err)
	}
	return nil
}

func (s *TranscriptStore) Transcript(ctx context.Context, identity string) ([]domain.TranscriptEntry, error) {
	rows, err := s.rdb.LRange(ctx, s.key(identity), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	entries := make([]domain.TranscriptEntry, 0, len(rows))
	for i, row := range rows {
		var e domain.TranscriptEntry
		if err := json.Unmarshal([]byte(row), &e); err != nil {
			return nil, fmt.Errorf("unmarshal transcript entry at index %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *TranscriptStore) Clear(ctx context.Context, identity string) error {
	if err := s.rdb.Del(ctx, s.key(identity)).Err(); err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	return nil
}
