package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

func date(s string) *time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func int64Ptr(v int64) *int64 { return &v }

func TestGenres_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := &domain.Genre{Name: "Science Fiction"}
	require.NoError(t, s.CreateGenre(ctx, g))
	assert.NotZero(t, g.ID)

	g.Name = "Sci-Fi"
	require.NoError(t, s.UpdateGenre(ctx, g))

	got, err := s.GetGenre(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", got.Name)

	require.NoError(t, s.DeleteGenre(ctx, g.ID))
	_, err = s.GetGenre(ctx, g.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteGenre(ctx, g.ID), store.ErrNotFound)
}

func TestListGenres_Paginates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Drama", "Crime", "Action", "Biography", "Epic"} {
		require.NoError(t, s.CreateGenre(ctx, &domain.Genre{Name: name}))
	}

	page, total, err := s.ListGenres(ctx, store.ListParams{}, store.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Crime", page[0].Name)
	assert.Equal(t, "Drama", page[1].Name)
}

func TestAuthors_ListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	authors := []*domain.Author{
		{FirstName: "Isaac", LastName: "Asimov", DateOfBirth: date("1920-01-02")},
		{FirstName: "Émile", LastName: "Zola", DateOfBirth: date("1840-04-02")},
		{FirstName: "Anon", LastName: "Ymous"},
	}
	for _, a := range authors {
		require.NoError(t, s.CreateAuthor(ctx, a))
	}

	all, total, err := s.ListAuthors(ctx, store.ListParams{}, store.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "Asimov", all[0].LastName)
	assert.Equal(t, "Zola", all[2].LastName)

	byName, _, err := s.ListAuthors(ctx, store.ListParams{Query: "emile"}, store.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Zola", byName[0].LastName)

	born, _, err := s.ListAuthors(ctx, store.ListParams{BornFrom: date("1900-01-01")}, store.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, born, 1)
	assert.Equal(t, "Asimov", born[0].LastName)

	upTo, _, err := s.ListAuthors(ctx, store.ListParams{BornTo: date("1900-01-01")}, store.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, upTo, 1)
	assert.Equal(t, "Zola", upTo[0].LastName)
}

func TestBooks_CreateWithGenresAndRelations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &domain.Author{FirstName: "Frank", LastName: "Herbert"}
	require.NoError(t, s.CreateAuthor(ctx, a))
	lang := &domain.Language{Name: "English"}
	require.NoError(t, s.CreateLanguage(ctx, lang))
	g1 := &domain.Genre{Name: "Science Fiction"}
	g2 := &domain.Genre{Name: "Adventure"}
	require.NoError(t, s.CreateGenre(ctx, g1))
	require.NoError(t, s.CreateGenre(ctx, g2))

	b := &domain.Book{
		Title:      "Dune",
		Summary:    "Spice.",
		ISBN:       "9780441013593",
		AuthorID:   &a.ID,
		LanguageID: &lang.ID,
		GenreIDs:   []int64{g1.ID, g2.ID},
	}
	require.NoError(t, s.CreateBook(ctx, b))

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "Herbert", got.Author.LastName)
	require.NotNil(t, got.Language)
	assert.Equal(t, "English", got.Language.Name)
	assert.Equal(t, "Adventure, Science Fiction", got.DisplayGenre())
	assert.ElementsMatch(t, []int64{g1.ID, g2.ID}, got.GenreIDs)

	got.GenreIDs = []int64{g1.ID}
	require.NoError(t, s.UpdateBook(ctx, got))
	got, err = s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{g1.ID}, got.GenreIDs)

	byGenre, err := s.BooksByGenre(ctx, g1.ID)
	require.NoError(t, err)
	assert.Len(t, byGenre, 1)
	byAuthor, err := s.BooksByAuthor(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)
}

func TestBooks_ISBNUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &domain.Book{Title: "One", ISBN: "1111111111111"}
	require.NoError(t, s.CreateBook(ctx, first))

	inUse, err := s.ISBNInUse(ctx, "1111111111111", 0)
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = s.ISBNInUse(ctx, "1111111111111", first.ID)
	require.NoError(t, err)
	assert.False(t, inUse, "a book does not clash with itself")

	err = s.CreateBook(ctx, &domain.Book{Title: "Two", ISBN: "1111111111111"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestBooks_TitleFilterIgnoresCaseAndAccents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, &domain.Book{Title: "Crime and Punishment", ISBN: "1000000000001"}))
	require.NoError(t, s.CreateBook(ctx, &domain.Book{Title: "Les Misérables", ISBN: "1000000000002"}))
	require.NoError(t, s.CreateBook(ctx, &domain.Book{Title: "Dune", ISBN: "1000000000003"}))

	books, total, err := s.ListBooks(ctx, store.ListParams{Query: "MISERABLES"}, store.Page{Number: 1, Size: 15})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "Les Misérables", books[0].Title)

	books, total, err = s.ListBooks(ctx, store.ListParams{}, store.Page{Number: 1, Size: 15})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "Crime and Punishment", books[0].Title)
}

func TestBooks_DeleteRestrictedByInstances(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	withCopy := &domain.Book{Title: "Kept", ISBN: "2000000000001"}
	require.NoError(t, s.CreateBook(ctx, withCopy))
	require.NoError(t, s.CreateInstance(ctx, &domain.BookInstance{
		ID: "6f1c1b57-2d0b-4a53-9b0e-9a3c7f3c2f01", BookID: &withCopy.ID, Imprint: "1st",
	}))
	bare := &domain.Book{Title: "Gone", ISBN: "2000000000002"}
	require.NoError(t, s.CreateBook(ctx, bare))

	assert.ErrorIs(t, s.DeleteBook(ctx, withCopy.ID), store.ErrReferenced)
	assert.NoError(t, s.DeleteBook(ctx, bare.ID))

	_, err := s.GetBook(ctx, withCopy.ID)
	assert.NoError(t, err)
}

func TestAuthorDelete_NullsBookAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &domain.Author{FirstName: "A", LastName: "B"}
	require.NoError(t, s.CreateAuthor(ctx, a))
	b := &domain.Book{Title: "Orphan", ISBN: "3000000000001", AuthorID: &a.ID}
	require.NoError(t, s.CreateBook(ctx, b))

	require.NoError(t, s.DeleteAuthor(ctx, a.ID))

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AuthorID)
	assert.Nil(t, got.Author)
}

func TestStatuses_UniqueName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.CreateStatus(ctx, &domain.Status{Name: "Available"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	onLoan, err := s.StatusByKind(ctx, domain.StatusOnLoan)
	require.NoError(t, err)
	assert.Equal(t, "On Loan", onLoan.Name)
}

func TestBookSummaryUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &domain.Book{Title: "T", ISBN: "4000000000001", Summary: "old"}
	require.NoError(t, s.CreateBook(ctx, b))
	require.NoError(t, s.UpdateBookSummary(ctx, b.ID, "new"))

	got, err := s.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Summary)
	assert.ErrorIs(t, s.UpdateBookSummary(ctx, 999, "x"), store.ErrNotFound)
}

func TestBooks_UnknownLanguageIsInvalidReference(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateBook(context.Background(), &domain.Book{Title: "T", ISBN: "5000000000001", LanguageID: int64Ptr(42)})
	assert.ErrorIs(t, err, store.ErrInvalidReference)
}
