// Package cli wires configuration, stores, the scoring oracle and the
// transports into a running bot for the botinho command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/claytonlovin/Botinho"
	"github.com/claytonlovin/Botinho/internal/config"
	"github.com/claytonlovin/Botinho/internal/metrics"
	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/adapters/file"
	"github.com/claytonlovin/Botinho/pkg/adapters/gemini"
	httpAdapter "github.com/claytonlovin/Botinho/pkg/adapters/http"
	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	redisAdapter "github.com/claytonlovin/Botinho/pkg/adapters/redis"
	"github.com/claytonlovin/Botinho/pkg/adapters/sqlite"
	"github.com/claytonlovin/Botinho/pkg/persistence/middleware"
	"github.com/claytonlovin/Botinho/pkg/ports"
	"github.com/claytonlovin/Botinho/pkg/registry"
)

// App is a fully wired bot process.
type App struct {
	Bot     *botinho.Bot
	Metrics *metrics.Metrics
	Streams *httpAdapter.StreamManager
	Config  *config.Config
	Logger  *slog.Logger

	closers []func() error
}

// Stores groups the persistence adapters selected by the configuration.
type Stores struct {
	Sessions    ports.SessionStore
	Results     ports.ResultStore
	Transcripts ports.TranscriptStore
	Locker      ports.DistributedLocker
	Backend     string

	close func() error
}

// Close releases the connections held by the stores.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores picks redis when BOTINHO_REDIS_URL is set, a session directory
// when BOTINHO_SESSION_DIR is set and memory otherwise. Transcripts are
// redacted and encrypted on top of the backend when configured.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	stores, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mws, err := transcriptMiddleware(cfg)
	if err != nil {
		return nil, errors.Join(err, stores.Close())
	}
	stores.Transcripts = middleware.Chain(stores.Transcripts, mws...)
	return stores, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch {
	case cfg.RedisURL != "":
		client, err := redisAdapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Sessions: redisAdapter.NewFromClient(client,
				redisAdapter.WithPrefix(cfg.RedisPrefix),
				redisAdapter.WithTTL(cfg.SessionTTL),
			),
			Results:     redisAdapter.NewResultStore(client, cfg.RedisPrefix),
			Transcripts: redisAdapter.NewTranscriptStore(client, cfg.RedisPrefix, cfg.TranscriptLimit, cfg.SessionTTL),
			Locker:      redisAdapter.NewLocker(client, cfg.RedisPrefix),
			Backend:     "redis",
			close:       client.Close,
		}, nil
	case cfg.SessionDir != "":
		return &Stores{
			Sessions:    file.New(cfg.SessionDir),
			Results:     memory.NewResultStore(),
			Transcripts: memory.NewTranscriptStore(cfg.TranscriptLimit),
			Backend:     "file",
		}, nil
	default:
		return &Stores{
			Sessions:    memory.NewStore(),
			Results:     memory.NewResultStore(),
			Transcripts: memory.NewTranscriptStore(cfg.TranscriptLimit),
			Backend:     "memory",
		}, nil
	}
}

// transcriptMiddleware masks PII first so the encrypted payload is already redacted.
func transcriptMiddleware(cfg *config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if cfg.RedactPII {
		pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}

	if cfg.TranscriptKey != "" {
		active, err := middleware.ParseKey(cfg.TranscriptKey)
		if err != nil {
			return nil, fmt.Errorf("invalid BOTINHO_TRANSCRIPT_KEY: %w", err)
		}
		encCfg := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.TranscriptFallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid BOTINHO_TRANSCRIPT_FALLBACK_KEYS: %w", err)
			}
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(encCfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

// ReadTreeFile reads BOTINHO_TREE_FILE, or returns nil when unset.
func ReadTreeFile(cfg *config.Config) ([]byte, error) {
	if cfg.TreeFile == "" {
		return nil, nil
	}
	doc, err := os.ReadFile(cfg.TreeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	return doc, nil
}

// OpenTree loads the dialog tree. With BOTINHO_TREE_DB the tree comes from
// sqlite, seeded from BOTINHO_TREE_FILE (or the embedded tree) on first use.
// Without it the tree file is read directly.
func OpenTree(ctx context.Context, cfg *config.Config) (*tree.Tree, error) {
	seed, err := ReadTreeFile(cfg)
	if err != nil {
		return nil, err
	}
	reg := registry.Default()

	if cfg.TreeDB == "" {
		if seed == nil {
			seed = tree.DefaultDocument()
		}
		return tree.Load(seed, reg)
	}

	repo, err := sqlite.Open(cfg.TreeDB)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return botinho.LoadTree(ctx, repo, seed, reg)
}

// NewScorer builds the Gemini scorer.
func NewScorer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gemini.Scorer, error) {
	return gemini.New(ctx, gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, gemini.WithLogger(logger))
}

// Build wires a bot from cfg. A nil scorer selects Gemini.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, scorer ports.Scorer) (*App, error) {
	if scorer == nil {
		g, err := NewScorer(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		scorer = g
	}

	t, err := OpenTree(ctx, cfg)
	if err != nil {
		return nil, err
	}

	stores, err := OpenStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	streams := httpAdapter.NewStreamManager()

	opts := []botinho.Option{
		botinho.WithTree(t),
		botinho.WithSessionStore(stores.Sessions),
		botinho.WithResultStore(stores.Results),
		botinho.WithTranscriptStore(stores.Transcripts),
		botinho.WithLogger(logger),
		botinho.WithHooks(metrics.Merge(m.Hooks(), streams.Hooks())),
		botinho.WithQuotaCooldown(cfg.QuotaCooldown),
		botinho.WithInactivityLimit(cfg.InactivityLimit),
		botinho.WithFallbackScore(cfg.FallbackScore),
		botinho.WithTranscriptMinLength(cfg.TranscriptMinLength),
		botinho.WithMaxInputSize(cfg.MaxInputSize),
		botinho.WithTempDir(cfg.TempDir),
	}
	if stores.Locker != nil {
		opts = append(opts, botinho.WithLocker(stores.Locker))
	}

	bot, err := botinho.New(scorer, opts...)
	if err != nil {
		return nil, errors.Join(err, stores.Close())
	}

	logger.Info("bot ready", "tree", t.Title, "nodes", t.Len(), "store", stores.Backend)
	return &App{
		Bot:     bot,
		Metrics: m,
		Streams: streams,
		Config:  cfg,
		Logger:  logger,
		closers: []func() error{stores.Close},
	}, nil
}

// Close releases every resource of the app.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Handler returns the HTTP surface of the app.
func (a *App) Handler() http.Handler {
	mgr := a.Bot.Manager()
	return httpAdapter.NewHandler(httpAdapter.Deps{
		Router:      mgr,
		Sessions:    mgr,
		Results:     a.Bot.Results(),
		Transcripts: a.Bot.Transcripts(),
		Tree:        a.Bot.Tree(),
		Metrics:     a.Metrics.Handler(),
		Streams:     a.Streams,
		Version:     botinho.Version,
		Logger:      a.Logger,
	})
}
