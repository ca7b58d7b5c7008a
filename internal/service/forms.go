package service

import (
	"strings"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
)

// Forms carry raw user input. Field tags name the HTML form field and the
// JSON key; validation messages are reported under that name.

// GenreForm creates or edits a genre.
type GenreForm struct {
	Name string `form:"name" json:"name" validate:"required,max=200"`
}

// LanguageForm creates or edits a language.
type LanguageForm struct {
	Name string `form:"name" json:"name" validate:"required,max=200"`
}

// AuthorForm creates or edits an author. Dates are YYYY-MM-DD or empty.
type AuthorForm struct {
	FirstName   string `form:"first_name" json:"first_name" validate:"required,max=100"`
	LastName    string `form:"last_name" json:"last_name" validate:"required,max=100"`
	DateOfBirth string `form:"date_of_birth" json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	DateOfDeath string `form:"date_of_death" json:"date_of_death" validate:"omitempty,datetime=2006-01-02"`
}

// BookForm creates or edits a book.
type BookForm struct {
	Title      string  `form:"title" json:"title" validate:"required,max=200"`
	AuthorID   int64   `form:"author" json:"author_id" validate:"required"`
	Summary    string  `form:"summary" json:"summary" validate:"required,max=1000"`
	ISBN       string  `form:"isbn" json:"isbn" validate:"isbn13digits"`
	GenreIDs   []int64 `form:"genre" json:"genre_ids" validate:"min=1"`
	LanguageID int64   `form:"language_of_origin" json:"language_id" validate:"required"`
}

// StatusForm creates or edits a loan status.
type StatusForm struct {
	Name      string `form:"name" json:"name" validate:"required,max=200"`
	ExtraInfo string `form:"extra_info" json:"extra_info"`
}

// InstanceForm creates or edits a book copy. Status, borrower and due date
// are optional; the consistency rule decides which combinations persist.
type InstanceForm struct {
	BookID     int64  `form:"book" json:"book_id" validate:"required"`
	LanguageID int64  `form:"language" json:"language_id" validate:"required"`
	Imprint    string `form:"imprint" json:"imprint" validate:"required,max=200"`
	StatusID   int64  `form:"status" json:"status_id"`
	BorrowerID string `form:"borrower" json:"borrower_id"`
	DueBack    string `form:"due_back" json:"due_back" validate:"omitempty,datetime=2006-01-02"`
}

// RenewForm carries the proposed new due date.
type RenewForm struct {
	RenewalDate string `form:"renewal_date" json:"renewal_date" validate:"required,datetime=2006-01-02"`
}

func optionalID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

// parseFormDate parses an already validated optional date field.
func parseFormDate(field, value string) (*time.Time, error) {
	d, err := domain.ParseOptionalDate(strings.TrimSpace(value))
	if err != nil {
		return nil, domainerrors.FieldInvalid(field, "Enter a valid date (YYYY-MM-DD).")
	}
	return d, nil
}
