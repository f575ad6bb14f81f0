package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/persistence/middleware"
	"github.com/claytonlovin/Botinho/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, cfg middleware.EncryptionConfig, next ports.TranscriptStore) ports.TranscriptStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewTranscriptStore(10)
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)

	ctx := context.Background()
	entry := domain.TranscriptEntry{Role: domain.RoleUser, Content: "my name is Ana", At: time.Now()}

	if err := secure.Append(ctx, "ana@c.us", entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// The underlying store only sees ciphertext.
	stored, err := underlying.Transcript(ctx, "ana@c.us")
	if err != nil {
		t.Fatalf("Underlying transcript failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("Expected 1 stored entry, got %d", len(stored))
	}
	if strings.Contains(stored[0].Content, "Ana") {
		t.Fatalf("Expected content to be hidden, found: %q", stored[0].Content)
	}
	if stored[0].Role != domain.RoleUser {
		t.Errorf("Role should stay readable, got %q", stored[0].Role)
	}

	entries, err := secure.Transcript(ctx, "ana@c.us")
	if err != nil {
		t.Fatalf("Transcript via middleware failed: %v", err)
	}
	if entries[0].Content != "my name is Ana" {
		t.Errorf("Expected decrypted content, got %q", entries[0].Content)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewTranscriptStore(10)
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := encrypted(t, middleware.EncryptionConfig{ActiveKey: oldKey}, underlying)
	if err := secureOld.Append(ctx, "r@c.us", domain.TranscriptEntry{Role: domain.RoleUser, Content: "old"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	secureNew := encrypted(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	}, underlying)
	if err := secureNew.Append(ctx, "r@c.us", domain.TranscriptEntry{Role: domain.RoleBot, Content: "new"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := secureNew.Transcript(ctx, "r@c.us")
	if err != nil {
		t.Fatalf("Transcript with rotated key failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Content != "old" || entries[1].Content != "new" {
		t.Errorf("Decryption with fallback key failed: %+v", entries)
	}

	// The old key alone cannot read entries sealed with the new one.
	if _, err := secureOld.Transcript(ctx, "r@c.us"); err == nil {
		t.Error("Expected failure when reading new-key entries with old-key middleware")
	}
}

func TestEncryptionMiddleware_PlainEntryRejected(t *testing.T) {
	underlying := memory.NewTranscriptStore(10)
	ctx := context.Background()
	if err := underlying.Append(ctx, "p@c.us", domain.TranscriptEntry{Content: "plain"}); err != nil {
		t.Fatal(err)
	}

	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlying)
	if _, err := secure.Transcript(ctx, "p@c.us"); err == nil {
		t.Error("Expected plain entries to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	secure := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, memory.NewTranscriptStore(5))
	ports.RunTranscriptStoreContract(t, secure, 5)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key) + "\n")
	if err != nil {
		t.Fatalf("ParseKey failed: %v", err)
	}
	if string(got) != string(key) {
		t.Error("ParseKey returned a different key")
	}

	if _, err := middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("Expected error for a short key")
	}
	if _, err := middleware.ParseKey("%%%"); err == nil {
		t.Error("Expected error for invalid base64")
	}
}
