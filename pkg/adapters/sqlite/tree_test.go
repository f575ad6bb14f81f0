package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/claytonlovin/Botinho/pkg/adapters/sqlite"
	contract "github.com/claytonlovin/Botinho/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, path string) *sqlite.TreeRepository {
	t.Helper()
	repo, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestTreeRepository_Contract(t *testing.T) {
	contract.TreeRepositoryContractTest(t, open(t, filepath.Join(t.TempDir(), "botinho.db")))
}

func TestTreeRepository_TitleAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botinho.db")
	ctx := context.Background()

	repo := open(t, path)
	require.NoError(t, repo.SaveTree(ctx, "", []byte(`{"id":"root"}`)))

	title, err := repo.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, sqlite.DefaultTitle, title)
	require.NoError(t, repo.Close())

	reopened := open(t, path)
	raw, err := reopened.GetTree(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"root"}`, string(raw))
}
