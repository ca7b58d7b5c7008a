// Package report computes the catalog's aggregate reports in memory.
//
// Every extremum is tie-inclusive: all rows sharing the maximum (or minimum)
// are returned, in the order the input lists them.
package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

// MostGenresSuffix is appended to the summary of the books with the most genres.
const MostGenresSuffix = " [Book with the most genres]"

// Comment tags for ExtremalAuthors rows.
const (
	CommentOldest   = "oldest"
	CommentYoungest = "youngest"
)

// AuthorBooks pairs an author with how many books they wrote.
type AuthorBooks struct {
	Author domain.Author `json:"author"`
	Books  int           `json:"num_books"`
}

// ExtremalAuthor is one row of the oldest/youngest report.
type ExtremalAuthor struct {
	Author  domain.Author `json:"author"`
	Comment string        `json:"comment"`
}

// UserLoans counts the copies a user currently borrows.
type UserLoans struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Loans    int    `json:"num_loans"`
}

// AuthorTopBook is an author's most-lent book.
type AuthorTopBook struct {
	Author domain.Author `json:"author"`
	Book   domain.Book   `json:"book"`
	Loans  int           `json:"num_loans"`
}

// SummaryChange is a rewritten summary produced by AnnotateMostGenres.
type SummaryChange struct {
	BookID  int64
	Summary string
}

// ProlificAuthors returns the authors whose book count equals the maximum.
// With no books at all every author ties at zero.
func ProlificAuthors(authors []domain.Author, books []domain.Book) []AuthorBooks {
	counts := make(map[int64]int, len(authors))
	for _, b := range books {
		if b.AuthorID != nil {
			counts[*b.AuthorID]++
		}
	}

	best := -1
	for _, a := range authors {
		best = max(best, counts[a.ID])
	}

	var out []AuthorBooks
	for _, a := range authors {
		if counts[a.ID] == best {
			out = append(out, AuthorBooks{Author: a, Books: best})
		}
	}
	return out
}

// ExtremalAuthors returns the authors born on the earliest date tagged
// "oldest", then those born on the latest date tagged "youngest". Authors
// without a birth date are left out. A lone dated author is both.
func ExtremalAuthors(authors []domain.Author) []ExtremalAuthor {
	var dated []domain.Author
	for _, a := range authors {
		if a.DateOfBirth != nil {
			dated = append(dated, a)
		}
	}
	if len(dated) == 0 {
		return nil
	}

	oldest, youngest := *dated[0].DateOfBirth, *dated[0].DateOfBirth
	for _, a := range dated[1:] {
		if a.DateOfBirth.Before(oldest) {
			oldest = *a.DateOfBirth
		}
		if a.DateOfBirth.After(youngest) {
			youngest = *a.DateOfBirth
		}
	}

	var out []ExtremalAuthor
	for _, a := range dated {
		if a.DateOfBirth.Equal(oldest) {
			out = append(out, ExtremalAuthor{Author: a, Comment: CommentOldest})
		}
	}
	for _, a := range dated {
		if !a.DateOfBirth.Before(youngest) {
			out = append(out, ExtremalAuthor{Author: a, Comment: CommentYoungest})
		}
	}
	return out
}

// LoanCounts returns one row per user borrowing at least one copy, most
// loans first, then by username.
func LoanCounts(instances []domain.BookInstance) []UserLoans {
	byUser := make(map[string]*UserLoans)
	for _, bi := range instances {
		if bi.BorrowerID == "" {
			continue
		}
		row, ok := byUser[bi.BorrowerID]
		if !ok {
			row = &UserLoans{UserID: bi.BorrowerID, Username: bi.Borrower}
			byUser[bi.BorrowerID] = row
		}
		row.Loans++
	}

	out := make([]UserLoans, 0, len(byUser))
	for _, row := range byUser {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b UserLoans) int {
		if c := cmp.Compare(b.Loans, a.Loans); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Username, b.Username); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

// TopLoanedBooks returns, per author, their book(s) lent out the most. A
// book's loan count is the number of its copies that have a borrower.
// Authors none of whose copies are lent produce no rows.
func TopLoanedBooks(authors []domain.Author, books []domain.Book, instances []domain.BookInstance) []AuthorTopBook {
	loans := make(map[int64]int)
	for _, bi := range instances {
		if bi.BookID != nil && bi.BorrowerID != "" {
			loans[*bi.BookID]++
		}
	}

	byAuthor := make(map[int64][]domain.Book)
	for _, b := range books {
		if b.AuthorID != nil {
			byAuthor[*b.AuthorID] = append(byAuthor[*b.AuthorID], b)
		}
	}

	var out []AuthorTopBook
	for _, a := range authors {
		own := byAuthor[a.ID]
		best := 0
		for _, b := range own {
			best = max(best, loans[b.ID])
		}
		if best == 0 {
			continue
		}
		for _, b := range own {
			if loans[b.ID] == best {
				out = append(out, AuthorTopBook{Author: a, Book: b, Loans: best})
			}
		}
	}
	return out
}

// BooksWithoutInstances returns the books no copy points at.
func BooksWithoutInstances(books []domain.Book, instances []domain.BookInstance) []domain.Book {
	held := make(map[int64]bool, len(instances))
	for _, bi := range instances {
		if bi.BookID != nil {
			held[*bi.BookID] = true
		}
	}

	var out []domain.Book
	for _, b := range books {
		if !held[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

// MostGenreBooks returns the books whose genre count equals the maximum.
// Books without genres never qualify.
func MostGenreBooks(books []domain.Book) []domain.Book {
	best := 0
	for _, b := range books {
		best = max(best, len(b.GenreIDs))
	}
	if best == 0 {
		return nil
	}

	var out []domain.Book
	for _, b := range books {
		if len(b.GenreIDs) == best {
			out = append(out, b)
		}
	}
	return out
}

// AnnotateMostGenres returns the summary rewrites that append suffix to
// every most-genres book not already carrying it. Applying the result and
// calling it again yields no changes.
func AnnotateMostGenres(books []domain.Book, suffix string) []SummaryChange {
	var out []SummaryChange
	for _, b := range MostGenreBooks(books) {
		if strings.Contains(b.Summary, suffix) {
			continue
		}
		out = append(out, SummaryChange{BookID: b.ID, Summary: b.Summary + suffix})
	}
	return out
}
