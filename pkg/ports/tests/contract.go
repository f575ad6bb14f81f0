package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
)

// TreeRepositoryContractTest is a reusable suite that verifies if an adapter complies with ports.TreeRepository.
// The repository must start empty.
func TreeRepositoryContractTest(t *testing.T, repo ports.TreeRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetTree_Empty", func(t *testing.T) {
		_, err := repo.GetTree(ctx)
		if !errors.Is(err, domain.ErrTreeNotFound) {
			t.Fatalf("expected ErrTreeNotFound, got %v", err)
		}
	})

	t.Run("SaveTree_Roundtrip", func(t *testing.T) {
		doc := []byte(`{"id":"root","type":"options","message":"Olá"}`)
		if err := repo.SaveTree(ctx, "Fluxo principal", doc); err != nil {
			t.Fatalf("unexpected error saving tree: %v", err)
		}
		got, err := repo.GetTree(ctx)
		if err != nil {
			t.Fatalf("unexpected error getting tree: %v", err)
		}
		if string(got) != string(doc) {
			t.Errorf("content mismatch. got %q, want %q", got, doc)
		}
	})

	t.Run("SaveTree_Overwrites", func(t *testing.T) {
		doc := []byte(`{"id":"root","type":"terminal","message":"Tchau"}`)
		if err := repo.SaveTree(ctx, "", doc); err != nil {
			t.Fatalf("unexpected error saving tree: %v", err)
		}
		got, err := repo.GetTree(ctx)
		if err != nil {
			t.Fatalf("unexpected error getting tree: %v", err)
		}
		if string(got) != string(doc) {
			t.Errorf("content mismatch. got %q, want %q", got, doc)
		}
	})
}
