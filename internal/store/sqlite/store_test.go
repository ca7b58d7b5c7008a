package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestUser inserts a member and returns it.
func newTestUser(t *testing.T, s *Store, id, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: "x",
		Role:         domain.RoleMember,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	tables := []string{
		"users", "genres", "languages", "authors", "books", "book_genres",
		"statuses", "book_instances", "logs",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_SeedsStatusesOnce(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := Open(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer s2.Close()

	statuses, err := s2.AllStatuses(context.Background())
	require.NoError(t, err)

	var names []string
	for _, st := range statuses {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"Available", "Maintenance", "On Loan", "Reserved"}, names)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.CreateGenre(ctx, &domain.Genre{Name: "Fantasy"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	genres, err := s.AllGenres(ctx)
	require.NoError(t, err)
	assert.Empty(t, genres)
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		return s.WithTx(ctx, func(ctx context.Context) error {
			return s.CreateGenre(ctx, &domain.Genre{Name: "Poetry"})
		})
	})
	require.NoError(t, err)

	genres, err := s.AllGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 1)
}

func TestFoldFunction(t *testing.T) {
	s := newTestStore(t)

	var folded string
	require.NoError(t, s.db.QueryRow("SELECT fold('Ça Été CRIME')").Scan(&folded))
	assert.Equal(t, "ca ete crime", folded)
}
