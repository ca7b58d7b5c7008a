package domain

import "time"

// BookInstance is a physical copy of a Book that can be borrowed.
type BookInstance struct {
	ID         string     `json:"id"`
	BookID     *int64     `json:"book_id,omitempty"`
	Imprint    string     `json:"imprint"`
	DueBack    *time.Time `json:"due_back,omitempty"`
	LanguageID *int64     `json:"language_id,omitempty"`
	BorrowerID string     `json:"borrower_id,omitempty"`
	StatusID   *int64     `json:"status_id,omitempty"`

	// Populated on reads.
	BookTitle    string  `json:"book_title,omitempty"`
	LanguageName string  `json:"language,omitempty"`
	Borrower     string  `json:"borrower,omitempty"`
	Status       *Status `json:"status,omitempty"`
}

// IsOverdue reports whether the copy was due before today.
func (b *BookInstance) IsOverdue(today time.Time) bool {
	return b.DueBack != nil && DateOf(*b.DueBack).Before(DateOf(today))
}

// StatusName returns the status label or "" when unset.
func (b *BookInstance) StatusName() string {
	if b.Status == nil {
		return ""
	}
	return b.Status.Name
}

// Label renders "<id> (<title>)".
func (b *BookInstance) Label() string {
	if b.BookTitle == "" {
		return b.ID
	}
	return b.ID + " (" + b.BookTitle + ")"
}
