package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

func day(s string) *time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func ref(v int64) *int64 { return &v }

func book(id, author int64, genres ...int64) domain.Book {
	return domain.Book{ID: id, Title: "b", AuthorID: ref(author), GenreIDs: genres}
}

func authorIDs[T any](rows []T, get func(T) domain.Author) []int64 {
	var ids []int64
	for _, r := range rows {
		ids = append(ids, get(r).ID)
	}
	return ids
}

func TestProlificAuthors_TiesIncluded(t *testing.T) {
	authors := []domain.Author{{ID: 1}, {ID: 2}, {ID: 3}}
	books := []domain.Book{
		book(1, 1), book(2, 1), book(3, 1),
		book(4, 2), book(5, 2), book(6, 2),
		book(7, 3),
	}

	got := ProlificAuthors(authors, books)
	assert.Equal(t, []int64{1, 2}, authorIDs(got, func(r AuthorBooks) domain.Author { return r.Author }))
	assert.Equal(t, 3, got[0].Books)
}

func TestProlificAuthors_Empty(t *testing.T) {
	assert.Empty(t, ProlificAuthors(nil, nil))
}

func TestExtremalAuthors(t *testing.T) {
	authors := []domain.Author{
		{ID: 1, DateOfBirth: day("1900-01-01")},
		{ID: 2, DateOfBirth: day("1950-06-01")},
		{ID: 3},
		{ID: 4, DateOfBirth: day("1900-01-01")},
		{ID: 5, DateOfBirth: day("1980-01-01")},
	}

	got := ExtremalAuthors(authors)
	require.Len(t, got, 3)
	assert.Equal(t, ExtremalAuthor{Author: authors[0], Comment: CommentOldest}, got[0])
	assert.Equal(t, ExtremalAuthor{Author: authors[3], Comment: CommentOldest}, got[1])
	assert.Equal(t, ExtremalAuthor{Author: authors[4], Comment: CommentYoungest}, got[2])

	for _, row := range got {
		assert.NotEqual(t, int64(3), row.Author.ID, "undated authors are excluded")
	}
}

func TestExtremalAuthors_SingleAuthorIsBoth(t *testing.T) {
	got := ExtremalAuthors([]domain.Author{{ID: 1, DateOfBirth: day("1920-01-02")}, {ID: 2}})
	require.Len(t, got, 2)
	assert.Equal(t, CommentOldest, got[0].Comment)
	assert.Equal(t, CommentYoungest, got[1].Comment)
}

func TestExtremalAuthors_NoneDated(t *testing.T) {
	assert.Empty(t, ExtremalAuthors([]domain.Author{{ID: 1}}))
}

func TestLoanCounts(t *testing.T) {
	instances := []domain.BookInstance{
		{ID: "1", BorrowerID: "u2", Borrower: "bob"},
		{ID: "2", BorrowerID: "u1", Borrower: "ann"},
		{ID: "3", BorrowerID: "u2", Borrower: "bob"},
		{ID: "4"},
		{ID: "5", BorrowerID: "u3", Borrower: "cat"},
	}

	assert.Equal(t, []UserLoans{
		{UserID: "u2", Username: "bob", Loans: 2},
		{UserID: "u1", Username: "ann", Loans: 1},
		{UserID: "u3", Username: "cat", Loans: 1},
	}, LoanCounts(instances))
}

func TestTopLoanedBooks(t *testing.T) {
	authors := []domain.Author{{ID: 1}, {ID: 2}, {ID: 3}}
	books := []domain.Book{book(10, 1), book(11, 1), book(12, 1), book(20, 2), book(30, 3)}
	instances := []domain.BookInstance{
		{BookID: ref(10), BorrowerID: "u"},
		{BookID: ref(10), BorrowerID: "u"},
		{BookID: ref(11), BorrowerID: "u"},
		{BookID: ref(11), BorrowerID: "v"},
		{BookID: ref(12), BorrowerID: "v"},
		{BookID: ref(12)},
		{BookID: ref(20)},
		{BookID: ref(30), BorrowerID: "w"},
	}

	got := TopLoanedBooks(authors, books, instances)
	require.Len(t, got, 3)
	assert.Equal(t, int64(10), got[0].Book.ID)
	assert.Equal(t, int64(11), got[1].Book.ID)
	assert.Equal(t, 2, got[0].Loans)
	assert.Equal(t, int64(3), got[2].Author.ID, "author 2 has nothing on loan")
}

func TestTopLoanedBooks_NoLoans(t *testing.T) {
	authors := []domain.Author{{ID: 1}}
	books := []domain.Book{book(1, 1), book(2, 1)}
	shelved := []domain.BookInstance{{ID: "a", BookID: ref(1)}, {ID: "b", BookID: ref(2)}}

	assert.Empty(t, TopLoanedBooks(authors, books, shelved))
}

func TestBooksWithoutInstances(t *testing.T) {
	books := []domain.Book{{ID: 1}, {ID: 2}, {ID: 3}}
	instances := []domain.BookInstance{{BookID: ref(2)}, {}}

	got := BooksWithoutInstances(books, instances)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestAnnotateMostGenres_Idempotent(t *testing.T) {
	books := []domain.Book{
		{ID: 1, Summary: "a", GenreIDs: []int64{1, 2}},
		{ID: 2, Summary: "b", GenreIDs: []int64{1}},
		{ID: 3, Summary: "c", GenreIDs: []int64{2, 3}},
	}

	first := AnnotateMostGenres(books, MostGenresSuffix)
	assert.Equal(t, []SummaryChange{
		{BookID: 1, Summary: "a" + MostGenresSuffix},
		{BookID: 3, Summary: "c" + MostGenresSuffix},
	}, first)

	apply := func(changes []SummaryChange) {
		for _, c := range changes {
			for i := range books {
				if books[i].ID == c.BookID {
					books[i].Summary = c.Summary
				}
			}
		}
	}
	apply(first)

	assert.Empty(t, AnnotateMostGenres(books, MostGenresSuffix))
	assert.Equal(t, "a"+MostGenresSuffix, books[0].Summary)
}

func TestMostGenreBooks_NoGenres(t *testing.T) {
	assert.Empty(t, MostGenreBooks([]domain.Book{{ID: 1}}))
	assert.Empty(t, AnnotateMostGenres([]domain.Book{{ID: 1}, {ID: 2}}, MostGenresSuffix))
}

type fakeSource struct {
	authors   []domain.Author
	books     []domain.Book
	instances []domain.BookInstance
}

func (f fakeSource) AllAuthors(context.Context) ([]domain.Author, error) { return f.authors, nil }
func (f fakeSource) AllBooks(context.Context) ([]domain.Book, error)     { return f.books, nil }
func (f fakeSource) AllInstances(context.Context) ([]domain.BookInstance, error) {
	return f.instances, nil
}

func TestBuild(t *testing.T) {
	src := fakeSource{
		authors:   []domain.Author{{ID: 1, DateOfBirth: day("1920-01-02")}},
		books:     []domain.Book{book(1, 1, 5), book(2, 1)},
		instances: []domain.BookInstance{{BookID: ref(1), BorrowerID: "u", Borrower: "ann"}},
	}

	set, err := Build(context.Background(), src)
	require.NoError(t, err)

	for _, name := range Names {
		_, ok := set.Get(name)
		assert.True(t, ok, name)
	}
	_, ok := set.Get("nope")
	assert.False(t, ok)

	assert.Len(t, set.ProlificAuthors, 1)
	assert.Len(t, set.LoanCounts, 1)
	assert.Len(t, set.BooksWithoutInstances, 1)
	assert.Len(t, set.MostGenres, 1)
}
