package botinho

import (
	"context"
	"errors"
	"fmt"

	"github.com/claytonlovin/Botinho/internal/tree"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/claytonlovin/Botinho/pkg/ports"
	"github.com/claytonlovin/Botinho/pkg/registry"
)

// LoadTree reads the tree document from repo. An empty repository is seeded
// with seed, or the embedded default tree when seed is nil.
func LoadTree(ctx context.Context, repo ports.TreeRepository, seed []byte, reg *registry.Registry) (*tree.Tree, error) {
	raw, err := repo.GetTree(ctx)
	if errors.Is(err, domain.ErrTreeNotFound) {
		if seed == nil {
			seed = tree.DefaultDocument()
		}
		if raw, err = SeedTree(ctx, repo, seed, reg); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read tree: %w", err)
	}
	return tree.Load(raw, reg)
}

// SeedTree validates doc and stores its JSON form in repo, replacing what
// was there. It returns the stored bytes.
func SeedTree(ctx context.Context, repo ports.TreeRepository, doc []byte, reg *registry.Registry) ([]byte, error) {
	if _, err := tree.Load(doc, reg); err != nil {
		return nil, err
	}
	d, err := tree.Decode(doc)
	if err != nil {
		return nil, err
	}
	raw, err := d.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree: %w", err)
	}
	if err := repo.SaveTree(ctx, d.Title, raw); err != nil {
		return nil, fmt.Errorf("failed to save tree: %w", err)
	}
	return raw, nil
}
