package memory

import (
	"context"
	"sync"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// TreeRepository implements ports.TreeRepository in memory.
type TreeRepository struct {
	mu    sync.RWMutex
	title string
	raw   []byte
}

// NewTreeRepository creates an empty repository.
func NewTreeRepository() *TreeRepository {
	return &TreeRepository{}
}

// NewTreeRepositoryFrom creates a repository holding raw.
func NewTreeRepositoryFrom(title string, raw []byte) *TreeRepository {
	return &TreeRepository{title: title, raw: append([]byte(nil), raw...)}
}

// GetTree returns the stored document.
func (r *TreeRepository) GetTree(ctx context.Context) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.raw == nil {
		return nil, domain.ErrTreeNotFound
	}
	return append([]byte(nil), r.raw...), nil
}

// SaveTree replaces the stored document.
func (r *TreeRepository) SaveTree(ctx context.Context, title string, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
	r.raw = append([]byte(nil), raw...)
	return nil
}

// Title returns the title of the stored document.
func (r *TreeRepository) Title() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.title
}
