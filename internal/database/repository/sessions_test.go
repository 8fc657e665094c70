package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tripline/internal/database"
)

func openSessionDB(t *testing.T) *SessionRepo {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSessionRepo(db)
}

func TestCurrentEmptyStore(t *testing.T) {
	t.Parallel()

	repo := openSessionDB(t)
	s, err := repo.Current(context.Background())
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestEnsureDefaultSeedsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openSessionDB(t)

	require.NoError(t, repo.EnsureDefault(ctx, "", "admin")) // nothing configured, nothing seeded
	s, err := repo.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, s)

	require.NoError(t, repo.EnsureDefault(ctx, "fma1000", "admin"))
	require.NoError(t, repo.EnsureDefault(ctx, "someone-else", "customer")) // existing row wins
	s, err = repo.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "fma1000", s.UserID)
}

func TestSaveReplacesIdentity(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := openSessionDB(t)

	require.NoError(t, repo.Save(ctx, "fma1000", "admin"))
	s, err := repo.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "fma1000", s.UserID)
	require.Equal(t, "admin", s.Role)
	require.NotEmpty(t, s.ID)

	require.NoError(t, repo.Save(ctx, "cust42", "customer"))
	s, err = repo.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "cust42", s.UserID)

	require.NoError(t, repo.Clear(ctx))
	s, err = repo.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, s)
}
