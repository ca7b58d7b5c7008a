package report

import (
	"context"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

// Source loads the rows the reports aggregate.
type Source interface {
	AllAuthors(ctx context.Context) ([]domain.Author, error)
	AllBooks(ctx context.Context) ([]domain.Book, error)
	AllInstances(ctx context.Context) ([]domain.BookInstance, error)
}

// Names of the individual reports, as used in URLs.
const (
	NameProlificAuthors       = "prolific-authors"
	NameExtremalAuthors       = "extremal-authors"
	NameLoanCounts            = "loan-counts"
	NameTopLoanedBooks        = "top-loaned-books"
	NameBooksWithoutInstances = "books-without-instances"
	NameMostGenres            = "most-genres"
)

// Names lists every report name in display order.
var Names = []string{
	NameProlificAuthors,
	NameExtremalAuthors,
	NameLoanCounts,
	NameTopLoanedBooks,
	NameBooksWithoutInstances,
	NameMostGenres,
}

// Set holds every report computed from one snapshot.
type Set struct {
	ProlificAuthors       []AuthorBooks    `json:"prolific_authors"`
	ExtremalAuthors       []ExtremalAuthor `json:"extremal_authors"`
	LoanCounts            []UserLoans      `json:"loan_counts"`
	TopLoanedBooks        []AuthorTopBook  `json:"top_loaned_books"`
	BooksWithoutInstances []domain.Book    `json:"books_without_instances"`
	MostGenres            []domain.Book    `json:"most_genres"`
}

// Get returns the report called name, or false.
func (s *Set) Get(name string) (any, bool) {
	switch name {
	case NameProlificAuthors:
		return s.ProlificAuthors, true
	case NameExtremalAuthors:
		return s.ExtremalAuthors, true
	case NameLoanCounts:
		return s.LoanCounts, true
	case NameTopLoanedBooks:
		return s.TopLoanedBooks, true
	case NameBooksWithoutInstances:
		return s.BooksWithoutInstances, true
	case NameMostGenres:
		return s.MostGenres, true
	default:
		return nil, false
	}
}

// Build loads the catalog from src and computes every report.
func Build(ctx context.Context, src Source) (*Set, error) {
	authors, err := src.AllAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	books, err := src.AllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	instances, err := src.AllInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}

	return &Set{
		ProlificAuthors:       ProlificAuthors(authors, books),
		ExtremalAuthors:       ExtremalAuthors(authors),
		LoanCounts:            LoanCounts(instances),
		TopLoanedBooks:        TopLoanedBooks(authors, books, instances),
		BooksWithoutInstances: BooksWithoutInstances(books, instances),
		MostGenres:            MostGenreBooks(books),
	}, nil
}
