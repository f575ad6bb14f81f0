// Package sqlite stores the dialog tree document in a SQLite database.
//
// The document lives as a single JSON blob in row 1 of the fluxo table, the
// layout the tree editor writes to.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/claytonlovin/Botinho/pkg/domain"
	_ "modernc.org/sqlite"
)

// DefaultTitle is stored when SaveTree receives an empty title.
const DefaultTitle = "Fluxo principal"

const schema = `CREATE TABLE IF NOT EXISTS fluxo (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	titulo TEXT NOT NULL,
	json_data TEXT NOT NULL
)`

// TreeRepository implements ports.TreeRepository on SQLite.
type TreeRepository struct {
	db *sql.DB
}

// Open opens (creating when missing) the database at path.
func Open(path string) (*TreeRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create fluxo table: %w", err)
	}
	return &TreeRepository{db: db}, nil
}

// Close releases the underlying connection.
func (r *TreeRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// GetTree returns the stored document.
func (r *TreeRepository) GetTree(ctx context.Context) ([]byte, error) {
	_, raw, err := r.load(ctx)
	return raw, err
}

// Title returns the title of the stored document.
func (r *TreeRepository) Title(ctx context.Context) (string, error) {
	title, _, err := r.load(ctx)
	return title, err
}

func (r *TreeRepository) load(ctx context.Context) (string, []byte, error) {
	var (
		title string
		data  string
	)
	err := r.db.QueryRowContext(ctx, `SELECT titulo, json_data FROM fluxo WHERE id = 1`).Scan(&title, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, domain.ErrTreeNotFound
		}
		return "", nil, fmt.Errorf("get tree: %w", err)
	}
	return title, []byte(data), nil
}

// SaveTree replaces the document in row 1.
func (r *TreeRepository) SaveTree(ctx context.Context, title string, raw []byte) error {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fluxo (id, titulo, json_data) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET titulo = excluded.titulo, json_data = excluded.json_data`,
		title, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save tree: %w", err)
	}
	return nil
}
