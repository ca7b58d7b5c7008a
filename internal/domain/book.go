package domain

import "strings"

// ISBNLength is the length of an ISBN-13 without separators.
const ISBNLength = 13

// Book is a catalog record. Physical copies are BookInstances.
type Book struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	ISBN       string  `json:"isbn"`
	AuthorID   *int64  `json:"author_id,omitempty"`
	LanguageID *int64  `json:"language_id,omitempty"`
	GenreIDs   []int64 `json:"genre_ids"`

	// Populated on reads.
	Author   *Author   `json:"author,omitempty"`
	Language *Language `json:"language_of_origin,omitempty"`
	Genres   []Genre   `json:"genres,omitempty"`
}

// DisplayGenre lists up to three genre names.
func (b *Book) DisplayGenre() string {
	names := make([]string, 0, 3)
	for i, g := range b.Genres {
		if i == 3 {
			break
		}
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// HasGenre reports whether the book is tagged with genreID.
func (b *Book) HasGenre(genreID int64) bool {
	for _, id := range b.GenreIDs {
		if id == genreID {
			return true
		}
	}
	return false
}
