package botinho

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claytonlovin/Botinho/internal/assessment"
	"github.com/claytonlovin/Botinho/internal/dialog"
	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/internal/quota"
	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
	"github.com/claytonlovin/Botinho/pkg/registry"
	"github.com/claytonlovin/Botinho/pkg/session"
)

// Bot is the high-level entry point of the library. It wires the dialog
// tree, the assessment engine and the session registry together.
type Bot struct {
	tree        *tree.Tree
	guard       *quota.Guard
	engine      *assessment.Engine
	manager     *session.Manager
	results     ports.ResultStore
	transcripts ports.TranscriptStore
	logger      *slog.Logger
}

type settings struct {
	tree        *tree.Tree
	document    []byte
	registry    *registry.Registry
	sessions    ports.SessionStore
	results     ports.ResultStore
	transcripts ports.TranscriptStore
	locker      ports.DistributedLocker
	hooks       domain.Hooks
	logger      *slog.Logger
	now         func() time.Time

	questions     []domain.Question
	cooldown      time.Duration
	inactivity    time.Duration
	fallbackScore *int
	transcriptMin int
	maxInput      int
	tempDir       string
}

// Option defines a functional option for configuring the Bot.
type Option func(*settings)

// WithTree uses an already loaded tree.
func WithTree(t *tree.Tree) Option {
	return func(s *settings) { s.tree = t }
}

// WithTreeDocument loads the tree from a YAML or JSON document.
// Ignored when WithTree is given. Defaults to the embedded tree.
func WithTreeDocument(doc []byte) Option {
	return func(s *settings) { s.document = doc }
}

// WithRegistry sets the validator registry used to load the tree document.
func WithRegistry(r *registry.Registry) Option {
	return func(s *settings) { s.registry = r }
}

// WithSessionStore configures where sessions are kept (memory by default).
func WithSessionStore(store ports.SessionStore) Option {
	return func(s *settings) { s.sessions = store }
}

// WithResultStore configures where assessment results are kept (memory by default).
func WithResultStore(store ports.ResultStore) Option {
	return func(s *settings) { s.results = store }
}

// WithTranscriptStore enables conversation transcripts.
func WithTranscriptStore(store ports.TranscriptStore) Option {
	return func(s *settings) { s.transcripts = store }
}

// WithLocker adds a distributed lock around each turn, for deployments
// where several processes share the session store.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *settings) { s.locker = l }
}

// WithHooks registers observability hooks.
func WithHooks(h domain.Hooks) Option {
	return func(s *settings) { s.hooks = h }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock overrides time.Now everywhere. Meant for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithQuestions replaces the assessment questions.
func WithQuestions(qs []domain.Question) Option {
	return func(s *settings) { s.questions = qs }
}

// WithQuotaCooldown sets how long oracle calls stay blocked after a rate limit.
func WithQuotaCooldown(d time.Duration) Option {
	return func(s *settings) { s.cooldown = d }
}

// WithInactivityLimit sets the idle time after which an assessment times out.
func WithInactivityLimit(d time.Duration) Option {
	return func(s *settings) { s.inactivity = d }
}

// WithFallbackScore sets the score given when the oracle reply is unreadable.
func WithFallbackScore(score int) Option {
	return func(s *settings) { s.fallbackScore = &score }
}

// WithTranscriptMinLength sets how long a text answer to an audio question must
// be to count as a transcript.
func WithTranscriptMinLength(n int) Option {
	return func(s *settings) { s.transcriptMin = n }
}

// WithMaxInputSize caps inbound text, in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *settings) { s.maxInput = n }
}

// WithTempDir sets where downloaded audio is staged.
func WithTempDir(dir string) Option {
	return func(s *settings) { s.tempDir = dir }
}

// New builds a Bot that scores answers with scorer.
func New(scorer ports.Scorer, opts ...Option) (*Bot, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	s := &settings{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.sessions == nil {
		s.sessions = memory.NewStore()
	}
	if s.results == nil {
		s.results = memory.NewResultStore()
	}

	t := s.tree
	if t == nil {
		doc := s.document
		if doc == nil {
			doc = tree.DefaultDocument()
		}
		var err error
		if t, err = tree.Load(doc, s.registry); err != nil {
			return nil, fmt.Errorf("failed to load tree: %w", err)
		}
	}

	guardOpts := []quota.Option{quota.WithClock(s.now), quota.WithLogger(s.logger)}
	if s.cooldown > 0 {
		guardOpts = append(guardOpts, quota.WithCooldown(s.cooldown))
	}
	if s.hooks.OnQuotaChange != nil {
		guardOpts = append(guardOpts, quota.WithObserver(s.hooks.OnQuotaChange))
	}
	guard := quota.New(guardOpts...)

	engineOpts := []assessment.Option{
		assessment.WithGuard(guard),
		assessment.WithClock(s.now),
		assessment.WithLogger(s.logger),
		assessment.WithHooks(s.hooks),
	}
	if s.questions != nil {
		engineOpts = append(engineOpts, assessment.WithQuestions(s.questions))
	}
	if s.transcripts != nil {
		engineOpts = append(engineOpts, assessment.WithTranscripts(s.transcripts))
	}
	if s.inactivity > 0 {
		engineOpts = append(engineOpts, assessment.WithInactivityLimit(s.inactivity))
	}
	if s.fallbackScore != nil {
		engineOpts = append(engineOpts, assessment.WithFallbackScore(*s.fallbackScore))
	}
	if s.transcriptMin > 0 {
		engineOpts = append(engineOpts, assessment.WithTranscriptMinLength(s.transcriptMin))
	}
	engine := assessment.New(scorer, s.results, engineOpts...)

	machine := dialog.New(t, engine,
		dialog.WithClock(s.now),
		dialog.WithLogger(s.logger),
		dialog.WithHooks(s.hooks),
	)

	managerOpts := []session.Option{session.WithClock(s.now), session.WithLogger(s.logger)}
	if s.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(s.locker))
	}
	if s.transcripts != nil {
		managerOpts = append(managerOpts, session.WithTranscripts(s.transcripts))
	}
	if s.maxInput > 0 {
		managerOpts = append(managerOpts, session.WithMaxInputSize(s.maxInput))
	}
	if s.tempDir != "" {
		managerOpts = append(managerOpts, session.WithTempDir(s.tempDir))
	}

	return &Bot{
		tree:        t,
		guard:       guard,
		engine:      engine,
		manager:     session.NewManager(s.sessions, machine, managerOpts...),
		results:     s.results,
		transcripts: s.transcripts,
		logger:      s.logger.With("tree", t.Title),
	}, nil
}

// Route handles one inbound message. See session.Manager.Route.
func (b *Bot) Route(ctx context.Context, in ports.Inbound, out ports.Sender) (*domain.Reply, error) {
	return b.manager.Route(ctx, in, out)
}

// Load returns a snapshot of the session of identity.
func (b *Bot) Load(ctx context.Context, identity string) (*domain.Session, error) {
	return b.manager.Load(ctx, identity)
}

// List returns the identities with a session.
func (b *Bot) List(ctx context.Context) ([]string, error) {
	return b.manager.List(ctx)
}

// Remove discards the session and transcript of identity. Results are kept.
func (b *Bot) Remove(ctx context.Context, identity string) error {
	return b.manager.Remove(ctx, identity)
}

// EvictIdle removes sessions untouched for longer than maxIdle.
func (b *Bot) EvictIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	return b.manager.EvictIdle(ctx, maxIdle)
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (b *Bot) RunEviction(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.EvictIdle(ctx, maxIdle)
			if err != nil {
				b.logger.Error("idle eviction failed", "err", err)
				continue
			}
			if n > 0 {
				b.logger.Info("evicted idle sessions", "count", n)
			}
		}
	}
}

// Result returns the stored assessment result of identity.
func (b *Bot) Result(ctx context.Context, identity string) (*domain.AssessmentResult, error) {
	return b.results.LoadResult(ctx, identity)
}

// Tree returns the dialog tree.
func (b *Bot) Tree() *tree.Tree { return b.tree }

// Manager returns the session registry.
func (b *Bot) Manager() *session.Manager { return b.manager }

// Results returns the result store.
func (b *Bot) Results() ports.ResultStore { return b.results }

// Transcripts returns the transcript store, nil when disabled.
func (b *Bot) Transcripts() ports.TranscriptStore { return b.transcripts }

// QuotaAvailable reports whether scoring calls are currently allowed.
func (b *Bot) QuotaAvailable() bool { return b.guard.IsAvailable() }
