package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	index, err := Open(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func testBooks() []domain.Book {
	return []domain.Book{
		{
			ID:       1,
			Title:    "Dune",
			Summary:  "<p>Desert planet politics.</p>",
			ISBN:     "9780441013593",
			Author:   &domain.Author{FirstName: "Frank", LastName: "Herbert"},
			Language: &domain.Language{Name: "English"},
			Genres:   []domain.Genre{{Name: "Science Fiction"}},
		},
		{
			ID:       2,
			Title:    "Crime and Punishment",
			Summary:  "A student in Saint Petersburg.",
			ISBN:     "9780140449136",
			Author:   &domain.Author{FirstName: "Fyodor", LastName: "Dostoevsky"},
			Language: &domain.Language{Name: "Russian"},
			Genres:   []domain.Genre{{Name: "Classics"}},
		},
		{
			ID:      3,
			Title:   "Émile",
			Summary: "A treatise on education.",
			ISBN:    "9782080700513",
			Author:  &domain.Author{FirstName: "Jean-Jacques", LastName: "Rousseau"},
		},
	}
}

func hitIDs(r *Result) []int64 {
	ids := make([]int64, 0, len(r.Hits))
	for _, h := range r.Hits {
		ids = append(ids, h.BookID)
	}
	return ids
}

func TestOpen_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, index.Fresh())
}

func TestIndex_IndexAndDelete(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	books := testBooks()

	require.NoError(t, index.IndexBook(ctx, &books[0]))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Re-indexing replaces rather than duplicates.
	require.NoError(t, index.IndexBook(ctx, &books[0]))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, index.DeleteBook(ctx, books[0].ID))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearch_Fields(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, testBooks()))

	tests := []struct {
		query string
		want  int64
	}{
		{"dune", 1},
		{"herbert", 1},
		{"science fiction", 1},
		{"desert", 1},
		{"dostoevsky", 2},
		{"crimes", 2},
		{"russian", 2},
		{"9780140449136", 2},
		{"emile", 3},
		{"ÉMILE", 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := index.Search(ctx, Params{Query: tt.query})
			require.NoError(t, err)
			require.NotEmpty(t, res.Hits)
			assert.Equal(t, tt.want, res.Hits[0].BookID)
		})
	}
}

func TestSearch_DisplayFields(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, testBooks()))

	res, err := index.Search(ctx, Params{Query: "rousseau"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Émile", res.Hits[0].Title)
	assert.Equal(t, "Rousseau, Jean-Jacques", res.Hits[0].Author)
}

func TestSearch_BlankQuery(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, testBooks()))

	res, err := index.Search(ctx, Params{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Zero(t, res.Total)
}

func TestSearch_Pagination(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	books := make([]domain.Book, 0, 30)
	for i := range 30 {
		books = append(books, domain.Book{
			ID:    int64(i + 1),
			Title: fmt.Sprintf("Galaxy volume %d", i+1),
			ISBN:  fmt.Sprintf("97800000000%02d", i),
		})
	}
	require.NoError(t, index.IndexBooks(ctx, books))

	first, err := index.Search(ctx, Params{Query: "galaxy", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(30), first.Total)
	assert.Len(t, first.Hits, 10)

	second, err := index.Search(ctx, Params{Query: "galaxy", Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, second.Hits, 10)
	assert.NotEqual(t, hitIDs(first), hitIDs(second))
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	books := testBooks()
	require.NoError(t, index.IndexBooks(ctx, books))

	require.NoError(t, index.Rebuild(ctx, books[:1]))
	assert.False(t, index.Fresh())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	res, err := index.Search(ctx, Params{Query: "dostoevsky"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestOpen_Reopens(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	books := testBooks()
	require.NoError(t, index.IndexBook(ctx, &books[0]))
	require.NoError(t, index.Close())

	index, err = Open(Options{DataPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	assert.False(t, index.Fresh())

	res, err := index.Search(ctx, Params{Query: "dune"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, hitIDs(res))
}

func TestMemoryIndex(t *testing.T) {
	index, err := Open(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	ctx := context.Background()
	require.NoError(t, index.Rebuild(ctx, testBooks()))
	res, err := index.Search(ctx, Params{Query: "herbert"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, hitIDs(res))
}

func TestNewBookDocument(t *testing.T) {
	b := testBooks()[2]
	doc := NewBookDocument(&b)

	assert.Equal(t, "3", doc.ID)
	assert.Equal(t, "emile", doc.Title)
	assert.Equal(t, "Émile", doc.DisplayTitle)
	assert.Equal(t, "rousseau, jean-jacques", doc.Author)
	assert.Empty(t, doc.Language)
	assert.Nil(t, doc.Genres)
}
