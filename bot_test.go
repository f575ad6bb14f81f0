package botinho_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claytonlovin/Botinho"
	"github.com/claytonlovin/Botinho/internal/dialog"
	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const ana = "5511988887777@c.us"

type mockScorer struct{ mock.Mock }

func (m *mockScorer) Evaluate(ctx context.Context, q domain.Question, s domain.Submission) (domain.Evaluation, error) {
	args := m.Called(ctx, q, s)
	return args.Get(0).(domain.Evaluation), args.Error(1)
}

type chat struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (c *chat) SendText(ctx context.Context, identity, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, domain.Message{Text: text})
	return nil
}

func (c *chat) SendMedia(ctx context.Context, identity, media, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, domain.Message{Text: caption, Media: media})
	return nil
}

func (c *chat) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msgs[len(c.msgs)-1].Text
}

func fixedClock() func() time.Time {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func say(t *testing.T, bot *botinho.Bot, out *chat, text string) {
	t.Helper()
	_, err := bot.Route(context.Background(), ports.Inbound{Identity: ana, Text: text}, out)
	require.NoError(t, err)
}

func TestNew_RequiresScorer(t *testing.T) {
	_, err := botinho.New(nil)
	assert.ErrorContains(t, err, "scorer is required")
}

func TestNew_InvalidTreeDocument(t *testing.T) {
	_, err := botinho.New(&mockScorer{}, botinho.WithTreeDocument([]byte(`{"id": "r", "type": "input"}`)))
	assert.ErrorContains(t, err, "failed to load tree")
}

func TestBot_FullAssessment(t *testing.T) {
	scorer := &mockScorer{}
	for _, score := range []int{80, 70, 90, 60, 100} {
		scorer.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.Evaluation{Score: score, Feedback: "ok"}, nil).Once()
	}

	var events []domain.AssessmentEventType
	hooks := domain.Hooks{
		OnAssessment: func(_ context.Context, e *domain.AssessmentEvent) { events = append(events, e.Type) },
	}
	transcripts := memory.NewTranscriptStore(0)
	bot, err := botinho.New(scorer,
		botinho.WithClock(fixedClock()),
		botinho.WithHooks(hooks),
		botinho.WithTranscriptStore(transcripts),
	)
	require.NoError(t, err)
	out := &chat{}

	say(t, bot, out, "oi")
	assert.Contains(t, out.last(), "Escolha uma opção")

	say(t, bot, out, "1")
	assert.Contains(t, out.last(), "*Pergunta 1/5*")

	say(t, bot, out, "Hi, I am Ana and I live in São Paulo.")
	say(t, bot, out, "I am a software developer.")
	say(t, bot, out, "My biggest dream is to travel around the world.")
	say(t, bot, out, "I want to work abroad with English.")
	say(t, bot, out, "I like reading books about history.")

	reply := out.last()
	assert.Contains(t, reply, "Escolha uma opção", "the walk resumes at the root")

	result, err := bot.Result(context.Background(), ana)
	require.NoError(t, err)
	assert.Equal(t, 400, result.TotalScore)
	assert.Equal(t, 80, result.AverageScore)
	assert.Equal(t, domain.LevelUpperIntermediate, result.Level)
	assert.Equal(t, domain.ModalityAudio, result.Answers[2].Modality)
	assert.Equal(t, "My biggest dream is to travel around the world.", result.Answers[2].Content)

	s, err := bot.Load(context.Background(), ana)
	require.NoError(t, err)
	assert.Equal(t, "root", s.CurrentNodeID)

	assert.Equal(t, domain.EventAssessmentStarted, events[0])
	assert.Equal(t, domain.EventAssessmentCompleted, events[len(events)-1])
	scorer.AssertExpectations(t)

	// Results outlive the session.
	require.NoError(t, bot.Remove(context.Background(), ana))
	_, err = bot.Load(context.Background(), ana)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = bot.Result(context.Background(), ana)
	assert.NoError(t, err)
}

func TestBot_RateLimitNotifiesQuotaHook(t *testing.T) {
	scorer := &mockScorer{}
	scorer.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Evaluation{}, domain.ErrRateLimited).Once()

	var blocked []bool
	bot, err := botinho.New(scorer,
		botinho.WithClock(fixedClock()),
		botinho.WithHooks(domain.Hooks{OnQuotaChange: func(b bool) { blocked = append(blocked, b) }}),
	)
	require.NoError(t, err)
	out := &chat{}

	say(t, bot, out, "oi")
	say(t, bot, out, "1")
	say(t, bot, out, "Hello, I am Ana.")

	assert.Contains(t, out.last(), "Estamos processando muita informação")
	assert.False(t, bot.QuotaAvailable())
	assert.Equal(t, []bool{true}, blocked)

	s, err := bot.Load(context.Background(), ana)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, s.Assessment.Status)
	assert.Empty(t, s.Assessment.Answers)
}

func TestBot_InvalidChoiceKeepsPosition(t *testing.T) {
	bot, err := botinho.New(&mockScorer{})
	require.NoError(t, err)
	out := &chat{}

	say(t, bot, out, "oi")
	say(t, bot, out, "7")
	assert.Equal(t, dialog.MsgInvalidOption, out.last())

	s, err := bot.Load(context.Background(), ana)
	require.NoError(t, err)
	assert.Equal(t, "root", s.CurrentNodeID)
	assert.Empty(t, s.History)
}

func TestBot_EvictIdle(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	bot, err := botinho.New(&mockScorer{}, botinho.WithClock(clock))
	require.NoError(t, err)
	say(t, bot, &chat{}, "oi")

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	n, err := bot.EvictIdle(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := bot.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBot_CustomTree(t *testing.T) {
	doc := `
id: start
title: Mini
message: Escolha 1
children:
  - choice: 1
    id: done
    message: Fim
`
	bot, err := botinho.New(&mockScorer{}, botinho.WithTreeDocument([]byte(doc)))
	require.NoError(t, err)
	assert.Equal(t, "Mini", bot.Tree().Title)

	out := &chat{}
	say(t, bot, out, "oi")
	say(t, bot, out, "1")
	assert.Equal(t, "Fim", strings.TrimSpace(out.last()))
}

func TestLoadTree_SeedsEmptyRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTreeRepository()

	tr, err := botinho.LoadTree(ctx, repo, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Fluxo principal", tr.Title)
	assert.Equal(t, "Fluxo principal", repo.Title())

	raw, err := repo.GetTree(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{"), "trees are stored as JSON")

	// A second load reads what was stored.
	again, err := botinho.LoadTree(ctx, repo, []byte(`{"id": "ignored"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, tr.Len(), again.Len())
}

func TestSeedTree_RejectsInvalidDocument(t *testing.T) {
	repo := memory.NewTreeRepository()
	_, err := botinho.SeedTree(context.Background(), repo, []byte(`{"id": "r", "type": "options"}`), nil)
	assert.ErrorContains(t, err, "has no transitions")

	_, err = repo.GetTree(context.Background())
	assert.ErrorIs(t, err, domain.ErrTreeNotFound)
}
