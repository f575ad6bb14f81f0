// Package quota implements the circuit breaker guarding the scoring oracle.
package quota

import (
	"log/slog"
	"sync"
	"time"

	"github.com/claytonlovin/Botinho/internal/logging"
)

// DefaultCooldown is how long the oracle stays off-limits after a rate limit.
const DefaultCooldown = time.Hour

// Guard refuses oracle calls for a cooldown window after the upstream
// reported a quota or rate-limit failure. It is safe for concurrent use.
type Guard struct {
	mu        sync.Mutex
	blocked   bool
	blockedAt time.Time

	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger
	onChange func(blocked bool)
}

// Option configures a Guard.
type Option func(*Guard)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.cooldown = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithObserver registers a callback invoked whenever the guard blocks or resets.
func WithObserver(fn func(blocked bool)) Option {
	return func(g *Guard) { g.onChange = fn }
}

// New creates an open Guard.
func New(opts ...Option) *Guard {
	g := &Guard{
		cooldown: DefaultCooldown,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsAvailable reports whether an oracle call may be attempted.
// A block whose cooldown elapsed is cleared here; no oracle call is made to check.
func (g *Guard) IsAvailable() bool {
	g.mu.Lock()
	if !g.blocked {
		g.mu.Unlock()
		return true
	}
	if g.now().Sub(g.blockedAt) < g.cooldown {
		g.mu.Unlock()
		return false
	}
	g.blocked = false
	g.blockedAt = time.Time{}
	g.mu.Unlock()

	g.logger.Info("quota cooldown elapsed, oracle available again")
	g.notify(false)
	return true
}

// MarkExceeded blocks the oracle for the cooldown window starting now.
func (g *Guard) MarkExceeded() {
	g.mu.Lock()
	wasBlocked := g.blocked
	g.blocked = true
	g.blockedAt = g.now()
	g.mu.Unlock()

	g.logger.Warn("oracle quota exceeded, blocking calls", "cooldown", g.cooldown)
	if !wasBlocked {
		g.notify(true)
	}
}

// BlockedUntil returns the end of the current block, or the zero time when open.
func (g *Guard) BlockedUntil() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.blocked {
		return time.Time{}
	}
	return g.blockedAt.Add(g.cooldown)
}

func (g *Guard) notify(blocked bool) {
	if g.onChange != nil {
		g.onChange(blocked)
	}
}
