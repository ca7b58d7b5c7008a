package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

func TestResource_CreateUpdateDeleteAreAudited(t *testing.T) {
	f := newFixture(t)

	g, err := f.catalog.Genres.Create(f.ctx, f.librarian, GenreForm{Name: "Horror"})
	require.NoError(t, err)
	_, err = f.catalog.Genres.Update(f.ctx, f.librarian, g.ID, GenreForm{Name: "Gothic Horror"})
	require.NoError(t, err)
	require.NoError(t, f.catalog.Genres.Delete(f.ctx, f.librarian, g.ID))

	logs, total, err := f.store.ListLogs(f.ctx, store.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Equal(t, 3, total)

	var ops []domain.Operation
	for _, l := range logs {
		assert.Equal(t, domain.KindGenre, l.Model)
		assert.Equal(t, f.librarian.ID, l.UserID)
		assert.True(t, l.Date.Equal(fixedNow))
		ops = append(ops, l.Operation)
	}
	assert.ElementsMatch(t, []domain.Operation{domain.OpCreate, domain.OpUpdate, domain.OpDelete}, ops)

	assert.Equal(t, 1, f.observer.mutations["Genre/Create"])
	assert.Equal(t, 1, f.observer.mutations["Genre/Update"])
	assert.Equal(t, 1, f.observer.mutations["Genre/Delete"])
}

func TestResource_ValidationFailurePersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Genres.Create(f.ctx, f.librarian, GenreForm{Name: ""})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
	assert.Equal(t, "This field is required.", domainerrors.FieldsOf(err)["name"])

	assert.Equal(t, 0, f.logCount(t))
	all, err := f.store.AllGenres(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestResource_RequiresPermission(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Genres.Create(f.ctx, f.member, GenreForm{Name: "Horror"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = f.catalog.Genres.Create(f.ctx, nil, GenreForm{Name: "Horror"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	assert.Equal(t, 0, f.logCount(t))
}

func TestResource_MissingIDIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Books.Get(f.ctx, 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.catalog.Authors.Update(f.ctx, f.librarian, 999, AuthorForm{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = f.catalog.Genres.Delete(f.ctx, f.librarian, 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.catalog.Instances.Get(f.ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestResource_ListPaginates(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"A", "B", "C"} {
		_, err := f.catalog.Genres.Create(f.ctx, f.librarian, GenreForm{Name: name})
		require.NoError(t, err)
	}

	res, err := f.catalog.Genres.List(f.ctx, store.ListParams{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, PageSizeGenres, f.catalog.Genres.PageSize())

	res, err = f.catalog.Genres.List(f.ctx, store.ListParams{Query: "b"}, 1)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "B", res.Items[0].Name)
}

func TestBooks_DuplicateISBNIsFieldError(t *testing.T) {
	f := newFixture(t)
	b := f.seedBook(t, "Dune", "9780441013593")

	_, err := f.catalog.Books.Create(f.ctx, f.librarian, BookForm{
		Title:      "Dune again",
		AuthorID:   *b.AuthorID,
		Summary:    "copy",
		ISBN:       "9780441013593",
		GenreIDs:   b.GenreIDs,
		LanguageID: *b.LanguageID,
	})
	require.Error(t, err)
	assert.Equal(t, "already in use", domainerrors.FieldsOf(err)["isbn"])

	// Re-saving a book under its own ISBN is fine.
	_, err = f.catalog.Books.Update(f.ctx, f.librarian, b.ID, BookForm{
		Title:      "Dune",
		AuthorID:   *b.AuthorID,
		Summary:    "edited",
		ISBN:       "9780441013593",
		GenreIDs:   b.GenreIDs,
		LanguageID: *b.LanguageID,
	})
	require.NoError(t, err)
}

func TestBooks_FormRules(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Books.Create(f.ctx, f.librarian, BookForm{Title: "X", ISBN: "123"})
	require.Error(t, err)
	fields := domainerrors.FieldsOf(err)
	assert.Equal(t, "Enter a 13 digit ISBN.", fields["isbn"])
	assert.Equal(t, "This field is required.", fields["author"])
	assert.Equal(t, "This field is required.", fields["summary"])
	assert.Equal(t, "This field is required.", fields["language_of_origin"])
	assert.Contains(t, fields, "genre")
}

func TestBooks_DeleteWithInstancesIsReferenced(t *testing.T) {
	f := newFixture(t)
	withCopy := f.seedBook(t, "Kept", "9780000000001")
	withoutCopy := f.seedBook(t, "Gone", "9780000000002")

	_, err := f.catalog.Instances.Create(f.ctx, f.librarian, InstanceForm{
		BookID:     withCopy.ID,
		LanguageID: *withCopy.LanguageID,
		Imprint:    "First edition",
	})
	require.NoError(t, err)

	before := f.logCount(t)
	err = f.catalog.Books.Delete(f.ctx, f.librarian, withCopy.ID)
	assert.ErrorIs(t, err, domainerrors.ErrReferenced)
	assert.Equal(t, before, f.logCount(t), "a refused delete leaves no log row")

	require.NoError(t, f.catalog.Books.Delete(f.ctx, f.librarian, withoutCopy.ID))
	assert.Contains(t, f.indexer.deleted, withoutCopy.ID)
}

func TestBooks_IndexedAfterCommit(t *testing.T) {
	f := newFixture(t)
	b := f.seedBook(t, "Dune", "9780441013593")

	assert.Equal(t, "A summary of Dune", f.indexer.indexed[b.ID])
}

func TestBooks_ReindexedWhenRelatedRowsChange(t *testing.T) {
	f := newFixture(t)
	b := f.seedBook(t, "Dune", "9780441013593", "Space opera")
	authorID := *b.AuthorID
	genreID := b.GenreIDs[0]

	_, err := f.catalog.Genres.Update(f.ctx, f.librarian, genreID, GenreForm{Name: "Planetary romance"})
	require.NoError(t, err)
	require.Len(t, f.indexer.doc(b.ID).Genres, 1)
	assert.Equal(t, "Planetary romance", f.indexer.doc(b.ID).Genres[0].Name)

	_, err = f.catalog.Authors.Update(f.ctx, f.librarian, authorID, AuthorForm{FirstName: "Frank", LastName: "Herbert"})
	require.NoError(t, err)
	require.NotNil(t, f.indexer.doc(b.ID).Author)
	assert.Equal(t, "Herbert", f.indexer.doc(b.ID).Author.LastName)

	require.NoError(t, f.catalog.Authors.Delete(f.ctx, f.librarian, authorID))
	assert.Nil(t, f.indexer.doc(b.ID).Author)

	require.NoError(t, f.catalog.Genres.Delete(f.ctx, f.librarian, genreID))
	assert.Empty(t, f.indexer.doc(b.ID).Genres)
	assert.Equal(t, "A summary of Dune", f.indexer.indexed[b.ID])
}

func TestAuthors_DatesParsed(t *testing.T) {
	f := newFixture(t)

	a, err := f.catalog.Authors.Create(f.ctx, f.librarian, AuthorForm{
		FirstName:   "Mary",
		LastName:    "Shelley",
		DateOfBirth: "1797-08-30",
		DateOfDeath: "1851-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "1797-08-30", domain.FormatDate(a.DateOfBirth))

	_, err = f.catalog.Authors.Create(f.ctx, f.librarian, AuthorForm{
		FirstName:   "Bad",
		LastName:    "Date",
		DateOfBirth: "30/08/1797",
	})
	assert.Equal(t, "Enter a valid date (YYYY-MM-DD).", domainerrors.FieldsOf(err)["date_of_birth"])
}

func TestStatuses_DuplicateNameIsFieldError(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.Statuses.Create(f.ctx, f.librarian, StatusForm{Name: "Available"})
	require.Error(t, err)
	assert.Equal(t, "already in use", domainerrors.FieldsOf(err)["name"])
}

func TestInstances_UnknownStatusIsFieldError(t *testing.T) {
	f := newFixture(t)
	b := f.seedBook(t, "Dune", "9780441013593")

	_, err := f.catalog.Instances.Create(f.ctx, f.librarian, InstanceForm{
		BookID:     b.ID,
		LanguageID: *b.LanguageID,
		Imprint:    "Ace",
		StatusID:   9999,
	})
	require.Error(t, err)
	assert.Contains(t, domainerrors.FieldsOf(err), "status")
}

func TestBrowse_Details(t *testing.T) {
	f := newFixture(t)
	b := f.seedBook(t, "Dune", "9780441013593", "Science Fiction", "Adventure")

	ad, err := f.catalog.AuthorDetail(f.ctx, *b.AuthorID)
	require.NoError(t, err)
	require.Len(t, ad.Books, 1)
	assert.Equal(t, "Dune", ad.Books[0].Title)

	gd, err := f.catalog.GenreDetail(f.ctx, b.GenreIDs[0])
	require.NoError(t, err)
	assert.Len(t, gd.Books, 1)

	bi, err := f.catalog.Instances.Create(f.ctx, f.librarian, InstanceForm{
		BookID:     b.ID,
		LanguageID: *b.LanguageID,
		Imprint:    "Ace",
	})
	require.NoError(t, err)

	bd, err := f.catalog.BookDetail(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, bd.Copies, 1)
	assert.Equal(t, bi.ID, bd.Copies[0].ID)

	ch, err := f.catalog.Choices(f.ctx)
	require.NoError(t, err)
	assert.Len(t, ch.Books, 1)
	assert.Len(t, ch.Genres, 2)
	assert.Len(t, ch.Statuses, 4)
	assert.Len(t, ch.Users, 2)
}

func TestCounters(t *testing.T) {
	f := newFixture(t)
	f.seedBook(t, "Crime and Punishment", "9780000000001")
	f.seedBook(t, "Dune", "9780000000002")

	c, err := f.catalog.Counters(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Books)
	assert.Equal(t, 2, c.Authors)
	assert.Equal(t, 1, c.BooksWithWord)
	assert.Equal(t, "Crime", f.catalog.CounterWord())
}

func TestLogs_StaffOnly(t *testing.T) {
	f := newFixture(t)
	f.seedBook(t, "Dune", "9780441013593")

	_, err := f.catalog.Logs(f.ctx, f.member, 1)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = f.catalog.Logs(f.ctx, nil, 1)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	res, err := f.catalog.Logs(f.ctx, f.librarian, 1)
	require.NoError(t, err)
	// language, author, genre, book
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, "librarian", res.Items[0].Username)
}

func TestSearchAndReindex(t *testing.T) {
	f := newFixture(t)
	dune := f.seedBook(t, "Dune", "9780441013593")
	gone := f.seedBook(t, "Gone", "9780000000002")

	res, err := f.catalog.Search(f.ctx, "A summary of Dune", 1)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, dune.ID, res.Items[0].ID)
	assert.Equal(t, PageSizeSearch, res.Size)

	// A hit for a book deleted behind the index's back is skipped.
	require.NoError(t, f.store.DeleteBook(f.ctx, gone.ID))
	res, err = f.catalog.Search(f.ctx, "A summary of Gone", 1)
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	n, err := f.catalog.Reindex(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.indexer.rebuilt)
	assert.NotContains(t, f.indexer.indexed, gone.ID)
}
