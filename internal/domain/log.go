package domain

import "time"

// Operation is the kind of change an audit Log row records.
type Operation string

const (
	OpCreate Operation = "Create"
	OpUpdate Operation = "Update"
	OpDelete Operation = "Delete"
)

// Kind names the catalog entity types that are audited.
type Kind string

const (
	KindAuthor       Kind = "Author"
	KindBook         Kind = "Book"
	KindGenre        Kind = "Genre"
	KindLanguage     Kind = "Language"
	KindStatus       Kind = "Status"
	KindBookInstance Kind = "BookInstance"
)

// Log is an append-only audit record of a catalog change.
type Log struct {
	ID        int64     `json:"id"`
	Model     Kind      `json:"model"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Date      time.Time `json:"date"`
	Operation Operation `json:"operation"`
}
