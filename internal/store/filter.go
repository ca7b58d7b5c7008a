// Package store holds the storage contracts shared by the catalog backends:
// errors, pagination and list filters.
package store

import "time"

// ListParams narrows a catalog list.
type ListParams struct {
	// Query is a case-insensitive substring matched against the list's
	// display text: titles for books and copies, names elsewhere.
	Query string
	// BornFrom and BornTo bound author birth dates (inclusive).
	BornFrom *time.Time
	BornTo   *time.Time
}

// InstanceFilter narrows copy listings.
type InstanceFilter struct {
	// Query matches the book title.
	Query      string
	BookID     *int64
	BorrowerID string
	// OnLoan keeps only copies whose status is of the on-loan kind.
	OnLoan bool
}

// Counters are the totals shown on the home page.
type Counters struct {
	Books              int `json:"num_books"`
	Instances          int `json:"num_instances"`
	InstancesAvailable int `json:"num_instances_available"`
	Authors            int `json:"num_authors"`
	Genres             int `json:"num_genres"`
	BooksWithWord      int `json:"num_books_with_word"`
}
