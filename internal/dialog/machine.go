// Package dialog walks a session through the dialog tree one turn at a time.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claytonlovin/Botinho/internal/assessment"
	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/domain"
)

// MsgInvalidOption is the reply to input that matches no choice.
const MsgInvalidOption = "Desculpe, opção inválida. Tente novamente."

// Machine is the per-turn state machine over a shared tree. It is stateless:
// all per-identity state lives in the domain.Session passed to each call.
type Machine struct {
	tree   *tree.Tree
	engine *assessment.Engine
	now    func() time.Time
	logger *slog.Logger
	hooks  domain.Hooks
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithHooks registers observability callbacks.
func WithHooks(h domain.Hooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// New creates a Machine over t delegating handoff nodes to engine.
func New(t *tree.Tree, engine *assessment.Engine, opts ...Option) *Machine {
	m := &Machine{
		tree:   t,
		engine: engine,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tree returns the tree the machine walks.
func (m *Machine) Tree() *tree.Tree { return m.tree }

// Begin anchors s at the root and returns the root's entry output.
func (m *Machine) Begin(ctx context.Context, s *domain.Session) domain.Reply {
	s.History = []string{}
	return m.enter(ctx, s, m.tree.Root)
}

// Advance applies one inbound turn to s and returns the reply to deliver.
//
// The reply is always deliverable. A non-nil error only classifies a rejected
// turn (domain.ErrUnknownChoice or domain.ErrInvalidInput); s is left
// unchanged in that case.
func (m *Machine) Advance(ctx context.Context, s *domain.Session, turn domain.Turn) (domain.Reply, error) {
	s.UpdatedAt = m.now()

	node, ok := m.tree.Lookup(s.CurrentNodeID)
	if !ok {
		m.logger.Warn("session points at an unknown node, restarting", "identity", s.Identity, "node", s.CurrentNodeID)
		return m.Begin(ctx, s), nil
	}

	if node.Base().Activity && s.Visit != domain.VisitPlayed {
		// The playback was never delivered; this turn is not a choice.
		return m.enter(ctx, s, node), nil
	}

	input := strings.TrimSpace(turn.Text)
	switch n := node.(type) {
	case *domain.OptionsNode:
		return m.options(ctx, s, n, input)
	case *domain.InputNode:
		if n.Validator != nil && !n.Validator.Validate(input) {
			return say(n.ErrorMessage), fmt.Errorf("%w: node %s", domain.ErrInvalidInput, n.ID)
		}
		return m.forward(ctx, s, m.orRoot(n.Next)), nil
	case *domain.HandoffNode:
		return m.handoff(ctx, s, n, turn), nil
	case *domain.TerminalNode:
		return m.Begin(ctx, s), nil
	default:
		return domain.Reply{}, fmt.Errorf("unsupported node kind %q", node.Kind())
	}
}

func (m *Machine) options(ctx context.Context, s *domain.Session, n *domain.OptionsNode, input string) (domain.Reply, error) {
	if n.Validator != nil {
		if !n.Validator.Validate(input) {
			return say(n.ErrorMessage), fmt.Errorf("%w: node %s", domain.ErrInvalidInput, n.ID)
		}
		return m.forward(ctx, s, m.orRoot(n.Next)), nil
	}

	choice, ok := n.Find(input)
	if !ok {
		return say(MsgInvalidOption), fmt.Errorf("%w: %q at node %s", domain.ErrUnknownChoice, input, n.ID)
	}

	if choice.Action == domain.ActionBack {
		return m.back(ctx, s), nil
	}
	return m.forward(ctx, s, choice.Target), nil
}

func (m *Machine) back(ctx context.Context, s *domain.Session) domain.Reply {
	prev := m.tree.Root
	if id, ok := s.Pop(); ok {
		if n, found := m.tree.Lookup(id); found {
			prev = n
		}
	}
	return m.enter(ctx, s, prev)
}

func (m *Machine) forward(ctx context.Context, s *domain.Session, target domain.Node) domain.Reply {
	s.Push()
	return m.enter(ctx, s, target)
}

// handoff forwards the turn to the assessment and resumes the walk once it ends.
func (m *Machine) handoff(ctx context.Context, s *domain.Session, n *domain.HandoffNode, turn domain.Turn) domain.Reply {
	out := m.engine.ProcessTurn(ctx, s.Identity, &s.Assessment, turn)
	reply := say(out.Text)
	reply.Defer(out.Effects...)
	if out.Done {
		reply.Append(m.forward(ctx, s, m.orRoot(n.Next)))
	}
	return reply
}

// enter moves s to n and renders the entry output of n.
func (m *Machine) enter(ctx context.Context, s *domain.Session, n domain.Node) domain.Reply {
	h := n.Base()
	s.CurrentNodeID = h.ID

	m.logger.Debug("node enter", "identity", s.Identity, "node", h.ID, "kind", n.Kind())
	if m.hooks.OnNodeEnter != nil {
		m.hooks.OnNodeEnter(ctx, &domain.NodeEvent{Timestamp: m.now(), Identity: s.Identity, NodeID: h.ID, Kind: n.Kind()})
	}

	var reply domain.Reply
	switch {
	case n.Kind() == domain.KindHandoff:
		reply.Say(h.Prompt)
		out := m.engine.Start(ctx, s.Identity, &s.Assessment)
		reply.Say(out.Text)
		reply.Defer(out.Effects...)
	case h.Media != "":
		reply.Attach(h.Media, h.Prompt)
	default:
		reply.Say(h.Prompt)
	}
	// The playback is part of this reply; it is delivered before the session is committed.
	s.Visit = domain.VisitPlayed
	return reply
}

func (m *Machine) orRoot(n domain.Node) domain.Node {
	if n == nil {
		return m.tree.Root
	}
	return n
}

func say(text string) domain.Reply {
	var r domain.Reply
	r.Say(text)
	return r
}

// AcceptsAudio reports whether the node s is at consumes audio answers.
func (m *Machine) AcceptsAudio(s *domain.Session) bool {
	n, ok := m.tree.Lookup(s.CurrentNodeID)
	return ok && n.Kind() == domain.KindHandoff
}
