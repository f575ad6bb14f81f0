package middleware_test

import (
	"context"
	"testing"

	"github.com/claytonlovin/Botinho/pkg/adapters/memory"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/persistence/middleware"
	"github.com/claytonlovin/Botinho/pkg/ports"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewTranscriptStore(10)
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	if err != nil {
		t.Fatalf("NewPIIMiddleware failed: %v", err)
	}
	secure := mw(underlying)
	ctx := context.Background()

	tests := []struct {
		in   string
		want string
	}{
		{"meu email é ana.silva@example.com", "meu email é ***"},
		{"CPF 123.456.789-09", "CPF ***"},
		{"telefone (11) 91234-5678 obrigado", "telefone *** obrigado"},
		{"I like reading books", "I like reading books"},
	}

	for _, tt := range tests {
		if err := secure.Append(ctx, "pii@c.us", domain.TranscriptEntry{Role: domain.RoleUser, Content: tt.in}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	stored, err := underlying.Transcript(ctx, "pii@c.us")
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	for i, tt := range tests {
		if stored[i].Content != tt.want {
			t.Errorf("entry %d: expected %q, got %q", i, tt.want, stored[i].Content)
		}
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestChain_MasksBeforeEncrypting(t *testing.T) {
	underlying := memory.NewTranscriptStore(10)
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}
	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()

	if err := store.Append(ctx, "c@c.us", domain.TranscriptEntry{Content: "ana@example.com"}); err != nil {
		t.Fatal(err)
	}
	entries, err := store.Transcript(ctx, "c@c.us")
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Content != middleware.Mask {
		t.Errorf("Expected masked content, got %q", entries[0].Content)
	}
	if err := store.Clear(ctx, "c@c.us"); err != nil {
		t.Fatal(err)
	}
}

func TestPIIMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	if err != nil {
		t.Fatal(err)
	}
	ports.RunTranscriptStoreContract(t, mw(memory.NewTranscriptStore(5)), 5)
}
