package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
)

func sampleBooks() []domain.Book {
	return []domain.Book{
		{
			ID:       1,
			Title:    "Dune",
			Summary:  "<p>Spice <b>must</b> flow</p>",
			ISBN:     "9780441013593",
			Author:   &domain.Author{FirstName: "Frank", LastName: "Herbert"},
			Language: &domain.Language{Name: "English"},
		},
		{
			ID:      2,
			Title:   "Anonymous",
			Summary: "No author, no language",
			ISBN:    "9780000000002",
		},
	}
}

func TestBooks_WritesTable(t *testing.T) {
	var buf bytes.Buffer
	err := Books(&buf, sampleBooks(), Options{
		Title:        "Library books",
		Generated:    time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		Uncompressed: true,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	for _, want := range []string{"(Dune)", "(Frank)", "(Herbert)", "(Spice must flow)", "(9780441013593)", "(English)", "(Anonymous)"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "<b>")
}

func TestBooks_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Books(&buf, nil, Options{Uncompressed: true}))
	assert.Contains(t, buf.String(), "There are no books in the library.")
}

func TestBooks_ManyRowsPaginate(t *testing.T) {
	books := make([]domain.Book, 0, 120)
	for i := range 120 {
		books = append(books, domain.Book{
			ID:      int64(i + 1),
			Title:   fmt.Sprintf("Book %03d", i+1),
			Summary: strings.Repeat("long summary text ", 20),
			ISBN:    fmt.Sprintf("9780000000%03d", i),
		})
	}

	var buf bytes.Buffer
	require.NoError(t, Books(&buf, books, Options{Uncompressed: true}))
	out := buf.String()
	assert.Contains(t, out, "(Book 001)")
	assert.Contains(t, out, "(Book 120)")
	assert.Contains(t, out, "page 2/")
}
