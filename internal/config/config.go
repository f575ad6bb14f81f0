// Package config loads the bot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is every setting of a bot process. Variables are read as named in
// the envconfig tags; a .env file in the working directory is loaded first.
type Config struct {
	Env       string `envconfig:"BOTINHO_ENV" default:"development"`
	LogLevel  string `envconfig:"BOTINHO_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"BOTINHO_LOG_FORMAT" default:"text"`

	// Scoring oracle
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Storage. Sessions, results and transcripts live in memory unless
	// RedisURL or SessionDir is set.
	RedisURL    string        `envconfig:"BOTINHO_REDIS_URL"`
	RedisPrefix string        `envconfig:"BOTINHO_REDIS_PREFIX" default:"botinho:"`
	SessionTTL  time.Duration `envconfig:"BOTINHO_SESSION_TTL" default:"0"`
	SessionDir  string        `envconfig:"BOTINHO_SESSION_DIR"`
	TreeDB      string        `envconfig:"BOTINHO_TREE_DB"`
	TreeFile    string        `envconfig:"BOTINHO_TREE_FILE"`
	TempDir     string        `envconfig:"BOTINHO_TEMP_DIR"`

	// Transcript protection. The key is base64 AES-256; fallback keys are
	// only used to read entries written before a rotation.
	TranscriptKey          string   `envconfig:"BOTINHO_TRANSCRIPT_KEY"`
	TranscriptFallbackKeys []string `envconfig:"BOTINHO_TRANSCRIPT_FALLBACK_KEYS"`
	RedactPII              bool     `envconfig:"BOTINHO_REDACT_PII" default:"false"`

	HTTPAddr      string        `envconfig:"BOTINHO_HTTP_ADDR" default:":8080"`
	IdleTimeout   time.Duration `envconfig:"BOTINHO_IDLE_TIMEOUT" default:"24h"`
	EvictInterval time.Duration `envconfig:"BOTINHO_EVICT_INTERVAL" default:"10m"`

	// Assessment
	InactivityLimit     time.Duration `envconfig:"BOTINHO_INACTIVITY_LIMIT" default:"5m"`
	QuotaCooldown       time.Duration `envconfig:"BOTINHO_QUOTA_COOLDOWN" default:"1h"`
	FallbackScore       int           `envconfig:"BOTINHO_FALLBACK_SCORE" default:"70"`
	TranscriptMinLength int           `envconfig:"BOTINHO_TRANSCRIPT_MIN_LENGTH" default:"20"`
	TranscriptLimit     int           `envconfig:"BOTINHO_TRANSCRIPT_LIMIT" default:"40"`
	MaxInputSize        int           `envconfig:"BOTINHO_MAX_INPUT_SIZE" default:"4096"`
}

// Load reads the given dotenv files (".env" when none) and then the
// environment. Missing dotenv files are ignored; real variables win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []string

	if c.FallbackScore < 0 || c.FallbackScore > 100 {
		errs = append(errs, fmt.Sprintf("BOTINHO_FALLBACK_SCORE must be within 0..100, got %d", c.FallbackScore))
	}
	if c.InactivityLimit <= 0 {
		errs = append(errs, "BOTINHO_INACTIVITY_LIMIT must be positive")
	}
	if c.QuotaCooldown <= 0 {
		errs = append(errs, "BOTINHO_QUOTA_COOLDOWN must be positive")
	}
	if c.TranscriptMinLength < 0 {
		errs = append(errs, "BOTINHO_TRANSCRIPT_MIN_LENGTH cannot be negative")
	}
	if c.TranscriptLimit <= 0 {
		errs = append(errs, "BOTINHO_TRANSCRIPT_LIMIT must be positive")
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, "BOTINHO_MAX_INPUT_SIZE must be positive")
	}
	if c.SessionTTL < 0 || c.IdleTimeout < 0 || c.EvictInterval < 0 {
		errs = append(errs, "durations cannot be negative")
	}
	if c.RedisURL != "" && c.SessionDir != "" {
		errs = append(errs, "BOTINHO_REDIS_URL and BOTINHO_SESSION_DIR are mutually exclusive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("BOTINHO_LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}
