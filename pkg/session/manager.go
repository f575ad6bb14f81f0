package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/claytonlovin/Botinho/internal/audio"
	"github.com/claytonlovin/Botinho/internal/dialog"
	"github.com/claytonlovin/Botinho/internal/logging"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
)

const (
	// MsgSessionClosed answers the exit command.
	MsgSessionClosed = "Sessão encerrada. Até logo!"

	msgInputRejected = "⚠️ Não consegui ler sua mensagem. Tente enviar um texto mais curto."
	msgAudioFailed   = "🤖 Erro ao processar seu áudio. Pode tentar novamente?"

	// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
	DefaultLockTTL = 30 * time.Second
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager is the session registry. It creates a session on first contact,
// routes every later turn through the dialog machine and removes sessions on
// request or when idle. All work for one identity is serialized; different
// identities proceed in parallel.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store       ports.SessionStore
	machine     *dialog.Machine
	transcripts ports.TranscriptStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker   ports.DistributedLocker // Optional distributed locker
	lockTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time
	maxInput int
	tempDir  string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTranscripts records every turn in s.
func WithTranscripts(s ports.TranscriptStore) Option {
	return func(m *Manager) { m.transcripts = s }
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(m *Manager) { m.maxInput = n }
}

// WithTempDir sets where inbound audio is staged. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(m *Manager) { m.tempDir = dir }
}

// NewManager creates a Session Manager over store and machine.
func NewManager(store ports.SessionStore, machine *dialog.Machine, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		machine:  machine,
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(), // Default to no-op
		now:      time.Now,
		maxInput: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(identity) after unlocking.
func (m *Manager) acquire(identity string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[identity]
	if !exists {
		entry = &lockEntry{}
		m.locks[identity] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[identity]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, identity)
	}
}

// WithLock executes a function while holding the lock for the identity.
func (m *Manager) WithLock(ctx context.Context, identity string, fn func(context.Context) error) error {
	entry := m.acquire(identity)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(identity)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, identity, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"identity", identity,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Route processes one inbound message and delivers the replies through out.
//
// On first contact it creates the session, sends the root prompt and returns
// nil: the caller must not send anything else. Otherwise it returns the
// reply that was delivered. State is committed only after a successful
// delivery, so a transport failure (domain.ErrTransport) leaves the session,
// the transcript and the stored results as they were and the same message
// can be retried.
func (m *Manager) Route(ctx context.Context, in ports.Inbound, out ports.Sender) (*domain.Reply, error) {
	if IsGroup(in.Identity) {
		r := reply(GroupReply(in.Text))
		return &r, m.deliver(ctx, out, in.Identity, r)
	}

	text, err := SanitizeInput(in.Text, m.maxInput)
	if err != nil {
		m.logger.Warn("inbound message rejected", "identity", in.Identity, "err", err)
		r := reply(msgInputRejected)
		return &r, m.deliver(ctx, out, in.Identity, r)
	}

	if isExit(text) {
		var r domain.Reply
		err := m.WithLock(ctx, in.Identity, func(ctx context.Context) error {
			if err := m.remove(ctx, in.Identity); err != nil {
				return err
			}
			r = reply(MsgSessionClosed)
			return m.deliver(ctx, out, in.Identity, r)
		})
		if err != nil {
			return nil, err
		}
		return &r, nil
	}

	var result *domain.Reply
	err = m.WithLock(ctx, in.Identity, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, in.Identity)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return m.create(ctx, in.Identity, out)
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		r, err := m.advance(ctx, s, in, text)
		if err != nil {
			return err
		}
		if err := m.deliver(ctx, out, in.Identity, r); err != nil {
			return err
		}
		if err := m.store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.commit(ctx, in.Identity, &r)

		userLine := text
		if in.IsAudio() {
			userLine = "[Enviou áudio]"
		}
		m.record(ctx, in.Identity, domain.RoleUser, userLine)
		m.record(ctx, in.Identity, domain.RoleBot, r.Text())
		result = &r
		return nil
	})
	return result, err
}

// create anchors a new session at the root. The session exists only once
// the root prompt was delivered.
func (m *Manager) create(ctx context.Context, identity string, out ports.Sender) error {
	s := domain.NewSession(identity, m.machine.Tree().Root.Base().ID, m.now())
	r := m.machine.Begin(ctx, s)
	if err := m.deliver(ctx, out, identity, r); err != nil {
		return err
	}
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	m.commit(ctx, identity, &r)
	m.logger.Info("session created", "identity", identity)
	m.record(ctx, identity, domain.RoleBot, r.Text())
	return nil
}

func (m *Manager) advance(ctx context.Context, s *domain.Session, in ports.Inbound, text string) (domain.Reply, error) {
	turn := domain.Turn{Text: text}

	var (
		r   domain.Reply
		err error
	)
	if in.IsAudio() && in.Media != nil && m.machine.AcceptsAudio(s) {
		data, mimeType, dlErr := in.Media.Download(ctx)
		if dlErr != nil {
			m.logger.Error("failed to download audio", "identity", s.Identity, "err", dlErr)
			return reply(msgAudioFailed), nil
		}
		err = audio.WithTempFile(m.tempDir, data, audio.Extension(mimeType), func(path string) error {
			turn.Audio = &domain.AudioClip{Path: path, MIMEType: audio.MIMEType(path)}
			var advErr error
			r, advErr = m.machine.Advance(ctx, s, turn)
			return advErr
		})
	} else {
		if in.IsAudio() {
			turn.Modality = domain.ModalityAudio
		}
		r, err = m.machine.Advance(ctx, s, turn)
	}

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnknownChoice), errors.Is(err, domain.ErrInvalidInput):
		m.logger.Debug("turn rejected", "identity", s.Identity, "node", s.CurrentNodeID, "err", err)
	default:
		return domain.Reply{}, fmt.Errorf("failed to advance session: %w", err)
	}
	return r, nil
}

func (m *Manager) deliver(ctx context.Context, out ports.Sender, identity string, r domain.Reply) error {
	for _, msg := range r.Messages {
		var err error
		if msg.Media != "" {
			err = out.SendMedia(ctx, identity, msg.Media, msg.Text)
		} else {
			err = out.SendText(ctx, identity, msg.Text)
		}
		if err != nil {
			m.logger.Error("failed to deliver reply", "identity", identity, "err", err)
			return fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
	}
	return nil
}

// commit applies the deferred writes of a delivered reply. The session is
// already saved, so failures are logged and the turn stands.
func (m *Manager) commit(ctx context.Context, identity string, r *domain.Reply) {
	if err := r.Commit(ctx); err != nil {
		m.logger.Error("failed to apply turn effects", "identity", identity, "err", err)
	}
}

func (m *Manager) record(ctx context.Context, identity, role, content string) {
	if m.transcripts == nil || content == "" {
		return
	}
	entry := domain.TranscriptEntry{Role: role, Content: content, At: m.now()}
	if err := m.transcripts.Append(ctx, identity, entry); err != nil {
		m.logger.Warn("failed to record transcript", "identity", identity, "err", err)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, identity string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, identity, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, identity)
		return err
	})
	return s, err
}

// Remove discards the session and transcript of identity.
// Stored assessment results are kept.
func (m *Manager) Remove(ctx context.Context, identity string) error {
	return m.WithLock(ctx, identity, func(ctx context.Context) error {
		return m.remove(ctx, identity)
	})
}

func (m *Manager) remove(ctx context.Context, identity string) error {
	if err := m.store.Delete(ctx, identity); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if m.transcripts != nil {
		if err := m.transcripts.Clear(ctx, identity); err != nil {
			m.logger.Warn("failed to clear transcript", "identity", identity, "err", err)
		}
	}
	m.logger.Info("session removed", "identity", identity)
	return nil
}

// EvictIdle removes sessions not updated within maxIdle and returns how many were removed.
func (m *Manager) EvictIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	evicted := 0
	for _, id := range ids {
		err := m.WithLock(ctx, id, func(ctx context.Context) error {
			s, err := m.store.Load(ctx, id)
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if m.now().Sub(s.UpdatedAt) <= maxIdle {
				return nil
			}
			evicted++
			return m.remove(ctx, id)
		})
		if err != nil {
			return evicted, err
		}
	}
	if evicted > 0 {
		m.logger.Info("idle sessions evicted", "count", evicted)
	}
	return evicted, nil
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

func isExit(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "sair", "exit", "quit":
		return true
	}
	return false
}

func reply(text string) domain.Reply {
	var r domain.Reply
	r.Say(text)
	return r
}
