// Package gemini implements the scoring oracle on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/claytonlovin/Botinho/internal/audio"
	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-1.5-flash"

// Generator is the slice of the genai client the scorer needs.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the connection settings of the Gemini client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Scorer implements ports.Scorer.
type Scorer struct {
	gen    Generator
	model  string
	logger *slog.Logger
}

type Option func(*Scorer)

// WithLogger configures a logger for the Scorer.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) { s.logger = l }
}

// New connects to the Gemini API.
func New(ctx context.Context, cfg Config, opts ...Option) (*Scorer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return NewWithGenerator(client.Models, cfg.Model, opts...), nil
}

// NewWithGenerator builds a Scorer over an existing generator.
func NewWithGenerator(gen Generator, model string, opts ...Option) *Scorer {
	if model == "" {
		model = DefaultModel
	}
	s := &Scorer{gen: gen, model: model, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate scores one submission. Audio clips are sent inline; text and
// transcript stand-ins are sent as a prompt.
func (s *Scorer) Evaluate(ctx context.Context, q domain.Question, sub domain.Submission) (domain.Evaluation, error) {
	var contents []*genai.Content
	switch {
	case sub.Audio != nil:
		data, err := os.ReadFile(sub.Audio.Path)
		if err != nil {
			return domain.Evaluation{}, fmt.Errorf("failed to read audio: %w", err)
		}
		mimeType := sub.Audio.MIMEType
		if mimeType == "" {
			mimeType = audio.MIMEType(sub.Audio.Path)
		}
		contents = []*genai.Content{genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(audioPrompt(q)),
		}, genai.RoleUser)}
	case sub.Modality == domain.ModalityAudio:
		contents = genai.Text(transcriptPrompt(q, sub.Text))
	default:
		contents = genai.Text(textPrompt(q, sub.Text))
	}

	resp, err := s.gen.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return domain.Evaluation{}, classify(err)
	}
	if resp == nil {
		return domain.Evaluation{}, fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}

	eval, err := parseEvaluation(resp.Text())
	if err != nil {
		s.logger.Warn("unparseable oracle verdict", "question", q.ID, "modality", sub.Modality, "err", err)
		return domain.Evaluation{}, err
	}
	if sub.Audio == nil && sub.Modality == domain.ModalityAudio {
		eval.Content = sub.Text
	}
	return eval, nil
}

// classify maps upstream throttling to domain.ErrRateLimited. API errors are
// judged by their status; other errors by their text.
func classify(err error) error {
	if rateLimited(err) {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}

func rateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}

	msg := err.Error()
	for _, marker := range []string{"Error 429", "RESOURCE_EXHAUSTED", "exceeded your current quota", "Too Many Requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
