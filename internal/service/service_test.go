package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/audit"
	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/search"
	"github.com/NickLinnik/LocalLibrary/internal/store/sqlite"
)

// fixedNow is the clock every catalog test runs at.
var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeIndexer struct {
	mu      sync.Mutex
	indexed map[int64]string
	docs    map[int64]domain.Book
	deleted []int64
	rebuilt int
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: make(map[int64]string), docs: make(map[int64]domain.Book)}
}

func (f *fakeIndexer) IndexBook(_ context.Context, b *domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[b.ID] = b.Summary
	f.docs[b.ID] = *b
	return nil
}

func (f *fakeIndexer) doc(id int64) domain.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id]
}

func (f *fakeIndexer) DeleteBook(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndexer) Rebuild(_ context.Context, books []domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = make(map[int64]string, len(books))
	for _, b := range books {
		f.indexed[b.ID] = b.Summary
	}
	f.rebuilt++
	return nil
}

// Search matches summaries exactly, enough to exercise hit loading.
func (f *fakeIndexer) Search(_ context.Context, p search.Params) (*search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &search.Result{Query: p.Query}
	for id, summary := range f.indexed {
		if summary == p.Query {
			res.Hits = append(res.Hits, search.Hit{BookID: id})
		}
	}
	res.Total = uint64(len(res.Hits))
	return res, nil
}

type countingObserver struct {
	mu        sync.Mutex
	mutations map[string]int
	logins    map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{mutations: map[string]int{}, logins: map[string]int{}}
}

func (c *countingObserver) Mutation(model, operation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutations[model+"/"+operation]++
}

func (c *countingObserver) Login(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins[outcome]++
}

type fixture struct {
	ctx       context.Context
	store     *sqlite.Store
	catalog   *Catalog
	indexer   *fakeIndexer
	observer  *countingObserver
	librarian *domain.User
	member    *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	f := &fixture{
		ctx:      context.Background(),
		store:    st,
		indexer:  newFakeIndexer(),
		observer: newCountingObserver(),
	}
	f.catalog = NewCatalog(st, audit.NewRecorder(st, nil), f.indexer, f.observer,
		CatalogOptions{
			CounterWord: "Crime",
			GenreSuffix: " [Book with the most genres]",
			Now:         func() time.Time { return fixedNow },
		}, slog.New(slog.DiscardHandler))

	f.librarian = f.user(t, "usr-lib", "librarian", domain.RoleLibrarian)
	f.member = f.user(t, "usr-mem", "member", domain.RoleMember)
	return f
}

func (f *fixture) user(t *testing.T, id, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Username: username, PasswordHash: "x", Role: role, CreatedAt: fixedNow}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) logCount(t *testing.T) int {
	t.Helper()
	n, err := f.store.CountLogs(f.ctx)
	require.NoError(t, err)
	return n
}

func (f *fixture) status(t *testing.T, kind domain.StatusKind) *domain.Status {
	t.Helper()
	st, err := f.store.StatusByKind(f.ctx, kind)
	require.NoError(t, err)
	return st
}

// seedBook creates a language, an author, genres and one book through the
// catalog and returns the book.
func (f *fixture) seedBook(t *testing.T, title, isbn string, genres ...string) *domain.Book {
	t.Helper()
	lang, err := f.catalog.Languages.Create(f.ctx, f.librarian, LanguageForm{Name: "English " + isbn})
	require.NoError(t, err)
	author, err := f.catalog.Authors.Create(f.ctx, f.librarian, AuthorForm{FirstName: "Ann", LastName: "Author " + isbn})
	require.NoError(t, err)

	if len(genres) == 0 {
		genres = []string{"Fiction " + isbn}
	}
	var genreIDs []int64
	for _, name := range genres {
		g, err := f.catalog.Genres.Create(f.ctx, f.librarian, GenreForm{Name: name})
		require.NoError(t, err)
		genreIDs = append(genreIDs, g.ID)
	}

	b, err := f.catalog.Books.Create(f.ctx, f.librarian, BookForm{
		Title:      title,
		AuthorID:   author.ID,
		Summary:    "A summary of " + title,
		ISBN:       isbn,
		GenreIDs:   genreIDs,
		LanguageID: lang.ID,
	})
	require.NoError(t, err)
	return b
}
