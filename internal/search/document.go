// Package search provides free-text search over the catalog's books using
// Bleve. Author, language and genre names are denormalized into each book
// document so one query covers them all.
package search

import (
	"strconv"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/normalize"
)

// BookDocument is what the index stores for one book. Searchable fields
// hold folded text so queries ignore case and accents; the display fields
// keep the original spelling for result lists.
type BookDocument struct {
	ID       string
	Title    string
	Summary  string
	Author   string
	Language string
	Genres   []string
	ISBN     string

	DisplayTitle  string
	DisplayAuthor string
}

// NewBookDocument builds the index document for b. b should be loaded with
// its author, language and genres.
func NewBookDocument(b *domain.Book) *BookDocument {
	doc := &BookDocument{
		ID:           docID(b.ID),
		Title:        normalize.Fold(b.Title),
		Summary:      normalize.Fold(normalize.PlainText(b.Summary)),
		ISBN:         b.ISBN,
		DisplayTitle: b.Title,
	}
	if b.Author != nil {
		doc.DisplayAuthor = b.Author.String()
		doc.Author = normalize.Fold(doc.DisplayAuthor)
	}
	if b.Language != nil {
		doc.Language = normalize.Fold(b.Language.Name)
	}
	for _, g := range b.Genres {
		doc.Genres = append(doc.Genres, normalize.Fold(g.Name))
	}
	return doc
}

// toMap keys the document by the field names the mapping declares.
func (d *BookDocument) toMap() map[string]any {
	m := map[string]any{
		"title":         d.Title,
		"summary":       d.Summary,
		"isbn":          d.ISBN,
		"display_title": d.DisplayTitle,
	}
	if d.Author != "" {
		m["author"] = d.Author
		m["display_author"] = d.DisplayAuthor
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	return m
}

func docID(bookID int64) string {
	return strconv.FormatInt(bookID, 10)
}
