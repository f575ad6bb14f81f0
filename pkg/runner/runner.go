package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
)

// DefaultIdentity is the chat identity used for local conversations.
const DefaultIdentity = "console@c.us"

// Router routes one inbound message and delivers the replies through out.
type Router interface {
	Route(ctx context.Context, in ports.Inbound, out ports.Sender) (*domain.Reply, error)
}

// Runner handles the conversation loop using the provided IOHandler.
type Runner struct {
	router   Router
	handler  IOHandler
	identity string
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithIdentity sets the chat identity the lines are sent as.
func WithIdentity(id string) Option {
	return func(r *Runner) { r.identity = id }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner.
func New(router Router, handler IOHandler, opts ...Option) *Runner {
	r := &Runner{
		router:   router,
		handler:  handler,
		identity: DefaultIdentity,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Identity returns the identity the runner talks as.
func (r *Runner) Identity() string { return r.identity }

// Run reads turns until the input ends or ctx is cancelled. Routing failures
// are reported to the user and the loop continues; a failing handler stops it.
func (r *Runner) Run(ctx context.Context) error {
	for {
		line, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		if _, err := r.router.Route(ctx, r.inbound(line), r.handler); err != nil {
			if errors.Is(err, domain.ErrTransport) {
				return err
			}
			r.logger.Error("route failed", "identity", r.identity, "err", err)
			if err := r.handler.SystemOutput(ctx, fmt.Sprintf("erro: %v", err)); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) inbound(line Line) ports.Inbound {
	in := ports.Inbound{Identity: r.identity, Text: line.Text}
	if line.Audio != "" {
		in.HasMedia = true
		in.MediaKind = ports.MediaVoice
		in.Media = FileMedia(line.Audio)
	}
	return in
}
