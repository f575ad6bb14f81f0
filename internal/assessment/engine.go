// Package assessment sequences the proficiency assessment: it asks the fixed
// questions, enforces the answer modality, detects idle users, pauses under
// oracle rate limits and aggregates scores into a level.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/internal/quota"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
)

const (
	DefaultInactivityLimit     = 5 * time.Minute
	DefaultFallbackScore       = 70
	DefaultTranscriptMinLength = 20
)

// Outcome is the result of one assessment turn.
type Outcome struct {
	Text string
	// Done reports that the assessment branch ended (completed or cancelled)
	// and the dialog walk should resume.
	Done bool
	// Effects are the store writes of the turn. The caller runs them once
	// Text was delivered.
	Effects []domain.Effect
}

// Commit runs the effects of o.
func (o Outcome) Commit(ctx context.Context) error {
	r := domain.Reply{Effects: o.Effects}
	return r.Commit(ctx)
}

// Engine runs assessments. It holds no per-identity state: callers own the
// domain.Assessment and serialize turns per identity.
type Engine struct {
	questions   []domain.Question
	scorer      ports.Scorer
	results     ports.ResultStore
	transcripts ports.TranscriptStore
	guard       *quota.Guard

	now             func() time.Time
	logger          *slog.Logger
	hooks           domain.Hooks
	inactivityLimit time.Duration
	fallbackScore   int
	transcriptMin   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithQuestions replaces DefaultQuestions.
func WithQuestions(qs []domain.Question) Option {
	return func(e *Engine) { e.questions = qs }
}

// WithGuard shares a quota guard. Engines create a private one otherwise.
func WithGuard(g *quota.Guard) Option {
	return func(e *Engine) { e.guard = g }
}

// WithTranscripts lets a started assessment clear the identity's transcript.
func WithTranscripts(s ports.TranscriptStore) Option {
	return func(e *Engine) { e.transcripts = s }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithHooks registers observability callbacks.
func WithHooks(h domain.Hooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithInactivityLimit overrides DefaultInactivityLimit.
func WithInactivityLimit(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.inactivityLimit = d
		}
	}
}

// WithFallbackScore sets the score given when the oracle output is unparseable.
func WithFallbackScore(score int) Option {
	return func(e *Engine) { e.fallbackScore = clamp(score) }
}

// WithTranscriptMinLength sets how long a text answer to an audio question
// must be to count as a transcript of a spoken answer.
func WithTranscriptMinLength(n int) Option {
	return func(e *Engine) { e.transcriptMin = n }
}

// New creates an Engine.
func New(scorer ports.Scorer, results ports.ResultStore, opts ...Option) *Engine {
	e := &Engine{
		questions:       DefaultQuestions(),
		scorer:          scorer,
		results:         results,
		now:             time.Now,
		logger:          logging.NewNop(),
		inactivityLimit: DefaultInactivityLimit,
		fallbackScore:   DefaultFallbackScore,
		transcriptMin:   DefaultTranscriptMinLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.guard == nil {
		e.guard = quota.New(quota.WithClock(e.now), quota.WithLogger(e.logger))
	}
	return e
}

// Questions returns the question count.
func (e *Engine) Questions() int { return len(e.questions) }

// Start resets st to the first question and returns its prompt. Clearing
// the transcript is left to the returned effects.
func (e *Engine) Start(ctx context.Context, identity string, st *domain.Assessment) Outcome {
	now := e.now()
	*st = domain.Assessment{
		Status:          domain.StatusActive,
		CurrentQuestion: 1,
		StartedAt:       now,
		LastActivityAt:  now,
	}

	e.logger.Info("assessment started", "identity", identity)
	e.emit(ctx, identity, domain.EventAssessmentStarted, st, 0)

	out := e.CurrentPrompt(ctx, identity, st)
	if e.transcripts != nil {
		reset := func(ctx context.Context) error {
			if err := e.transcripts.Clear(ctx, identity); err != nil {
				return fmt.Errorf("failed to clear transcript: %w", err)
			}
			return nil
		}
		out.Effects = append([]domain.Effect{reset}, out.Effects...)
	}
	return out
}

// CurrentPrompt renders the current question. Past the last question it
// finishes the assessment and returns the summary instead.
func (e *Engine) CurrentPrompt(ctx context.Context, identity string, st *domain.Assessment) Outcome {
	if st.CurrentQuestion < 1 {
		return Outcome{Text: msgNotStarted}
	}
	if st.CurrentQuestion > len(e.questions) {
		return e.finish(ctx, identity, st)
	}
	return Outcome{Text: renderQuestion(e.questions[st.CurrentQuestion-1], len(e.questions))}
}

// ProcessTurn handles one inbound turn of identity. It never returns an
// error: every failure becomes a user-facing message.
func (e *Engine) ProcessTurn(ctx context.Context, identity string, st *domain.Assessment, turn domain.Turn) Outcome {
	if turn.Audio == nil {
		if out, ok := e.command(ctx, identity, st, turn.Text); ok {
			return out
		}
	}

	if st.Status == domain.StatusPaused {
		if !e.guard.IsAvailable() {
			return Outcome{Text: msgRateLimited}
		}
		st.Status = domain.StatusActive
		st.LastActivityAt = e.now()
		e.logger.Info("assessment resumed", "identity", identity, "question", st.CurrentQuestion)
		e.emit(ctx, identity, domain.EventAssessmentResumed, st, 0)
		out := e.CurrentPrompt(ctx, identity, st)
		out.Text = msgResumed + "\n\n" + out.Text
		return out
	}

	if !st.IsActive() {
		return Outcome{Text: msgNotStarted}
	}

	if !e.guard.IsAvailable() {
		e.pause(ctx, identity, st)
		e.oracleEvent(ctx, identity, st, "", 0, domain.OracleRefused)
		return Outcome{Text: msgRateLimited}
	}

	if e.now().Sub(st.LastActivityAt) > e.inactivityLimit {
		st.Status = domain.StatusTimedOut
		e.logger.Info("assessment timed out", "identity", identity, "question", st.CurrentQuestion, "err", domain.ErrAssessmentTimeout)
		e.emit(ctx, identity, domain.EventAssessmentTimedOut, st, 0)
		return Outcome{Text: msgTimeout}
	}

	q := e.questions[st.CurrentQuestion-1]
	sub, reply := e.submission(q, turn)
	if reply != "" {
		return Outcome{Text: reply}
	}

	return e.score(ctx, identity, st, q, sub)
}

func (e *Engine) command(ctx context.Context, identity string, st *domain.Assessment, text string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "iniciar", "start", "começar":
		return e.Start(ctx, identity, st), true
	case "parar", "stop", "cancelar", "voltar", "back":
		*st = domain.Assessment{}
		e.logger.Info("assessment cancelled", "identity", identity)
		e.emit(ctx, identity, domain.EventAssessmentCancelled, st, 0)
		return Outcome{Text: msgCancelled, Done: true}, true
	case "ajuda", "help":
		return Outcome{Text: msgHelp}, true
	case "status":
		if st.IsActive() || st.Status == domain.StatusPaused {
			return Outcome{Text: renderStatus(st, len(e.questions))}, true
		}
		return Outcome{Text: msgNoStatus}, true
	case "resultado", "result":
		return Outcome{Text: e.ResultText(ctx, identity)}, true
	}
	return Outcome{}, false
}

// ResultText renders the stored result of identity.
func (e *Engine) ResultText(ctx context.Context, identity string) string {
	r, err := e.results.LoadResult(ctx, identity)
	if err != nil {
		if !errors.Is(err, domain.ErrResultNotFound) {
			e.logger.Error("failed to load assessment result", "identity", identity, "err", err)
		}
		return msgNoResult
	}
	return renderResult(r)
}

// submission decides the effective modality of turn for question q.
// A non-empty reply means the turn is rejected with that message.
func (e *Engine) submission(q domain.Question, turn domain.Turn) (domain.Submission, string) {
	text := strings.TrimSpace(turn.Text)
	audio := turn.Audio != nil || turn.Modality == domain.ModalityAudio || hasAudioMarker(text)

	if !audio && text == "" {
		return domain.Submission{}, msgEmptyAnswer
	}

	switch q.Modality {
	case domain.ModalityText:
		if audio {
			return domain.Submission{}, renderWrongModality(q)
		}
	case domain.ModalityAudio:
		if !audio {
			if !e.looksLikeTranscript(text) {
				return domain.Submission{}, renderWrongModality(q)
			}
			audio = true
		}
	}

	sub := domain.Submission{Modality: domain.ModalityText, Text: text}
	if audio {
		sub.Modality = domain.ModalityAudio
		sub.Audio = turn.Audio
	}
	return sub, ""
}

func (e *Engine) looksLikeTranscript(text string) bool {
	if utf8.RuneCountInString(text) > e.transcriptMin {
		return true
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "áudio") || strings.Contains(lower, "audio")
}

func hasAudioMarker(text string) bool {
	return strings.Contains(text, "[Enviou áudio]") ||
		strings.Contains(text, "temp_audio_") ||
		strings.HasPrefix(text, "audio:")
}

func (e *Engine) score(ctx context.Context, identity string, st *domain.Assessment, q domain.Question, sub domain.Submission) Outcome {
	started := e.now()
	eval, err := e.scorer.Evaluate(ctx, q, sub)
	elapsed := e.now().Sub(started)

	switch {
	case err == nil:
		e.oracleEvent(ctx, identity, st, sub.Modality, elapsed, domain.OracleOK)
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrQuotaExceeded):
		e.oracleEvent(ctx, identity, st, sub.Modality, elapsed, domain.OracleRateLimited)
		e.guard.MarkExceeded()
		e.pause(ctx, identity, st)
		return Outcome{Text: msgRateLimited}
	case errors.Is(err, domain.ErrMalformedResponse):
		e.oracleEvent(ctx, identity, st, sub.Modality, elapsed, domain.OracleMalformed)
		e.logger.Warn("oracle response malformed, using fallback score",
			"identity", identity, "question", q.ID, "score", e.fallbackScore, "err", err)
		eval = domain.Evaluation{Score: e.fallbackScore}
	default:
		e.oracleEvent(ctx, identity, st, sub.Modality, elapsed, domain.OracleFailed)
		e.logger.Error("oracle call failed", "identity", identity, "question", q.ID, "err", err)
		return Outcome{Text: msgOracleFailed}
	}

	content := eval.Content
	if sub.Audio == nil || content == "" {
		// Text answers and transcript stand-ins keep what the user wrote.
		content = sub.Text
	}
	if content == "" {
		content = "Áudio processado"
	}

	now := e.now()
	st.Answers = append(st.Answers, domain.Answer{
		QuestionID: q.ID,
		Modality:   sub.Modality,
		Content:    content,
		Score:      clamp(eval.Score),
		Feedback:   eval.Feedback,
		AnsweredAt: now,
	})
	e.emit(ctx, identity, domain.EventAssessmentAnswered, st, clamp(eval.Score))
	st.CurrentQuestion++
	st.LastActivityAt = now

	if st.CurrentQuestion > len(e.questions) {
		return e.finish(ctx, identity, st)
	}
	out := e.CurrentPrompt(ctx, identity, st)
	out.Text = msgRecorded + "\n\n" + out.Text
	return out
}

func (e *Engine) pause(ctx context.Context, identity string, st *domain.Assessment) {
	st.Status = domain.StatusPaused
	e.logger.Warn("assessment paused by oracle quota", "identity", identity, "question", st.CurrentQuestion)
	e.emit(ctx, identity, domain.EventAssessmentPaused, st, 0)
}

// finish freezes st and returns the summary. The result is stored by the
// returned effect.
func (e *Engine) finish(ctx context.Context, identity string, st *domain.Assessment) Outcome {
	now := e.now()
	result := Summarize(identity, st, now)
	st.Status = domain.StatusCompleted

	save := func(ctx context.Context) error {
		if err := e.results.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("failed to store assessment result: %w", err)
		}
		e.logger.Info("assessment finished", "identity", identity, "score", result.AverageScore, "level", result.Level)
		if e.hooks.OnAssessment != nil {
			e.hooks.OnAssessment(ctx, &domain.AssessmentEvent{
				Timestamp: now,
				Identity:  identity,
				Type:      domain.EventAssessmentCompleted,
				Score:     result.AverageScore,
				Level:     result.Level,
			})
		}
		return nil
	}
	return Outcome{Text: renderFinished(result), Done: true, Effects: []domain.Effect{save}}
}

// Summarize derives the result of an assessment finished at end.
func Summarize(identity string, st *domain.Assessment, end time.Time) *domain.AssessmentResult {
	total := 0
	for _, a := range st.Answers {
		total += a.Score
	}
	avg := 0
	if n := len(st.Answers); n > 0 {
		avg = int(math.Round(float64(total) / float64(n)))
	}
	return &domain.AssessmentResult{
		Identity:     identity,
		StartedAt:    st.StartedAt,
		FinishedAt:   end,
		Duration:     end.Sub(st.StartedAt),
		Answers:      append([]domain.Answer(nil), st.Answers...),
		TotalScore:   total,
		AverageScore: avg,
		Level:        domain.LevelFor(avg),
	}
}

func (e *Engine) emit(ctx context.Context, identity string, typ domain.AssessmentEventType, st *domain.Assessment, score int) {
	if e.hooks.OnAssessment == nil {
		return
	}
	e.hooks.OnAssessment(ctx, &domain.AssessmentEvent{
		Timestamp:  e.now(),
		Identity:   identity,
		Type:       typ,
		QuestionID: st.CurrentQuestion,
		Score:      score,
	})
}

func (e *Engine) oracleEvent(ctx context.Context, identity string, st *domain.Assessment, m domain.Modality, d time.Duration, outcome domain.OracleOutcome) {
	if e.hooks.OnOracleCall == nil {
		return
	}
	e.hooks.OnOracleCall(ctx, &domain.OracleEvent{
		Identity:   identity,
		QuestionID: st.CurrentQuestion,
		Modality:   m,
		Duration:   d,
		Outcome:    outcome,
	})
}

func clamp(score int) int {
	return max(0, min(100, score))
}
