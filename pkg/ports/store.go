package ports

import (
	"context"

	"github.com/claytonlovin/Botinho/pkg/domain"
)

// SessionStore persists session snapshots keyed by identity.
type SessionStore interface {
	// Save persists the session under session.Identity.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for identity.
	// Returns domain.ErrSessionNotFound if the identity has no session.
	Load(ctx context.Context, identity string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, identity string) error

	// List returns the identities with a stored session.
	List(ctx context.Context) ([]string, error)
}

// ResultStore retains completed assessment results keyed by identity.
// Results are never evicted by session removal.
type ResultStore interface {
	SaveResult(ctx context.Context, result *domain.AssessmentResult) error

	// LoadResult returns domain.ErrResultNotFound when identity has no result.
	LoadResult(ctx context.Context, identity string) (*domain.AssessmentResult, error)

	ListResults(ctx context.Context) ([]*domain.AssessmentResult, error)
}

// TranscriptStore keeps a bounded conversation transcript per identity.
type TranscriptStore interface {
	Append(ctx context.Context, identity string, entry domain.TranscriptEntry) error
	Transcript(ctx context.Context, identity string) ([]domain.TranscriptEntry, error)
	Clear(ctx context.Context, identity string) error
}

// TreeRepository is the persistence boundary of the dialog tree document.
// It is read once at startup and written only by out-of-band editing.
type TreeRepository interface {
	// GetTree returns the raw tree document (JSON or YAML).
	// Returns domain.ErrTreeNotFound if nothing was saved yet.
	GetTree(ctx context.Context) ([]byte, error)

	// SaveTree replaces the stored document.
	SaveTree(ctx context.Context, title string, raw []byte) error
}
