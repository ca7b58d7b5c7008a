package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/audit"
	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/service"
	"github.com/NickLinnik/LocalLibrary/internal/store/sqlite"
)

func newSeedCatalog(t *testing.T) (*service.Catalog, *domain.User) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	now := time.Now()
	lib := &domain.User{ID: "usr-lib", Username: "libby", PasswordHash: "x", Role: domain.RoleLibrarian, CreatedAt: now}
	require.NoError(t, st.CreateUser(ctx, lib))
	require.NoError(t, st.CreateUser(ctx, &domain.User{ID: "usr-mel", Username: "mel", PasswordHash: "x", Role: domain.RoleMember, CreatedAt: now}))

	c := service.NewCatalog(st, audit.NewRecorder(st, logger), nil, nil, service.CatalogOptions{
		CounterWord: "Crime",
		GenreSuffix: " [Book with the most genres]",
	}, logger)
	return c, lib
}

func loadFixture(t *testing.T) *fixture {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "library.yaml"))
	require.NoError(t, err)
	defer f.Close()

	fx, err := decodeFixture(f)
	require.NoError(t, err)
	return fx
}

func TestDecodeFixture(t *testing.T) {
	fx := loadFixture(t)

	assert.Len(t, fx.Authors, 2)
	require.Len(t, fx.Books, 3)
	assert.Equal(t, "9780547773742", fx.Books[0].ISBN)
	assert.Equal(t, "2026-11-01", fx.Books[0].Copies[1].DueBack)

	_, err := decodeFixture(strings.NewReader("publishers: [Ace]\n"))
	assert.Error(t, err)
}

func TestApplyFixture(t *testing.T) {
	c, lib := newSeedCatalog(t)
	ctx := context.Background()
	fx := loadFixture(t)

	stats, err := applyFixture(ctx, c, lib, fx)
	require.NoError(t, err)
	assert.Equal(t, seedStats{Genres: 2, Languages: 2, Authors: 2, Books: 3, Copies: 3}, stats)

	counters, err := c.Counters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counters.Books)
	assert.Equal(t, 3, counters.Instances)
	assert.Equal(t, 1, counters.InstancesAvailable)

	// A second run reuses everything.
	stats, err = applyFixture(ctx, c, lib, fx)
	require.NoError(t, err)
	assert.Equal(t, seedStats{Skipped: 3}, stats)
}

func TestApplyFixture_UnknownReferences(t *testing.T) {
	c, lib := newSeedCatalog(t)
	ctx := context.Background()

	_, err := applyFixture(ctx, c, lib, &fixture{
		Books: []fixtureBook{{Title: "Orphan", Author: "nobody"}},
	})
	assert.ErrorContains(t, err, `unknown author key "nobody"`)

	_, err = applyFixture(ctx, c, lib, &fixture{
		Authors: []fixtureAuthor{{Key: "h", FirstName: "Frank", LastName: "Herbert"}},
		Books: []fixtureBook{{
			Title: "Dune", Author: "h", ISBN: "9780441013593", Summary: "Spice.",
			Genres: []string{"SF"}, Language: "English",
			Copies: []fixtureCopy{{Imprint: "Ace", Status: "Lost"}},
		}},
	})
	assert.ErrorContains(t, err, `unknown status "Lost"`)
}
