package ports

import (
	"context"
	"testing"
	"time"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	identity := "contract-" + time.Now().Format("20060102150405") + "@c.us"
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(identity, "root", now)
		s.Push()
		s.CurrentNodeID = "menu"
		s.Visit = domain.VisitPlayed
		s.Assessment = domain.Assessment{
			Status:          domain.StatusActive,
			CurrentQuestion: 2,
			StartedAt:       now,
			LastActivityAt:  now,
			Answers:         []domain.Answer{{QuestionID: 1, Modality: domain.ModalityText, Content: "hi", Score: 80, AnsweredAt: now}},
		}

		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "menu", loaded.CurrentNodeID)
		assert.Equal(t, []string{"root"}, loaded.History)
		assert.Equal(t, domain.VisitPlayed, loaded.Visit)
		assert.Equal(t, 2, loaded.Assessment.CurrentQuestion)
		require.Len(t, loaded.Assessment.Answers, 1)
		assert.Equal(t, 80, loaded.Assessment.Answers[0].Score)
	})

	t.Run("Load isolates stored copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, identity)
		require.NoError(t, err)
		loaded.History = append(loaded.History, "mutated")

		again, err := store.Load(ctx, identity)
		require.NoError(t, err)
		assert.NotContains(t, again.History, "mutated")
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, identity)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+identity)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, identity))

		_, err := store.Load(ctx, identity)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, ids, identity)

		assert.NoError(t, store.Delete(ctx, identity), "deleting twice is not an error")
	})
}

// RunResultStoreContract verifies a ResultStore implementation.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Missing", func(t *testing.T) {
		_, err := store.LoadResult(ctx, "nobody@c.us")
		assert.ErrorIs(t, err, domain.ErrResultNotFound)
	})

	t.Run("Save overwrites and lists", func(t *testing.T) {
		first := &domain.AssessmentResult{Identity: "a@c.us", StartedAt: now, FinishedAt: now.Add(time.Minute), Duration: time.Minute, TotalScore: 400, AverageScore: 80, Level: domain.LevelUpperIntermediate}
		require.NoError(t, store.SaveResult(ctx, first))

		second := *first
		second.AverageScore = 91
		second.Level = domain.LevelAdvanced
		require.NoError(t, store.SaveResult(ctx, &second))
		require.NoError(t, store.SaveResult(ctx, &domain.AssessmentResult{Identity: "b@c.us", AverageScore: 20, Level: domain.LevelBeginner}))

		got, err := store.LoadResult(ctx, "a@c.us")
		require.NoError(t, err)
		assert.Equal(t, 91, got.AverageScore)
		assert.Equal(t, domain.LevelAdvanced, got.Level)
		assert.Equal(t, time.Minute, got.Duration)

		all, err := store.ListResults(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

// RunTranscriptStoreContract verifies a TranscriptStore implementation
// bounded to limit entries.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore, limit int) {
	ctx := context.Background()
	identity := "transcript@c.us"

	t.Run("Append keeps the newest entries", func(t *testing.T) {
		for i := 0; i < limit+5; i++ {
			require.NoError(t, store.Append(ctx, identity, domain.TranscriptEntry{
				Role:    domain.RoleUser,
				Content: string(rune('a' + i%26)),
				At:      time.Now(),
			}))
		}
		entries, err := store.Transcript(ctx, identity)
		require.NoError(t, err)
		require.Len(t, entries, limit)
		assert.Equal(t, string(rune('a'+(limit+4)%26)), entries[len(entries)-1].Content)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, identity))
		entries, err := store.Transcript(ctx, identity)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
