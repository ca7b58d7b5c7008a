// Package export renders catalog listings as documents.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/normalize"
)

// Options controls the book listing document.
type Options struct {
	Title     string
	Generated time.Time
	// Uncompressed leaves page streams readable; useful when debugging output.
	Uncompressed bool
}

type column struct {
	header string
	width  float64
	value  func(b *domain.Book) string
}

var bookColumns = []column{
	{"Title", 48, func(b *domain.Book) string { return b.Title }},
	{"First name", 28, func(b *domain.Book) string {
		if b.Author == nil {
			return ""
		}
		return b.Author.FirstName
	}},
	{"Last name", 28, func(b *domain.Book) string {
		if b.Author == nil {
			return ""
		}
		return b.Author.LastName
	}},
	{"Summary", 110, func(b *domain.Book) string { return normalize.PlainText(b.Summary) }},
	{"ISBN", 32, func(b *domain.Book) string { return b.ISBN }},
	{"Language", 31, func(b *domain.Book) string {
		if b.Language == nil {
			return ""
		}
		return b.Language.Name
	}},
}

const (
	margin     = 8.0
	lineHeight = 4.5
	fontSize   = 9.0
	cellPad    = 1.0
)

// Books writes a landscape A4 table of books to w: title, author first and
// last name, summary, ISBN and language of origin. The header row repeats
// on every page.
func Books(w io.Writer, books []domain.Book, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Books"
	}
	if opts.Generated.IsZero() {
		opts.Generated = time.Now()
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetTitle(opts.Title, true)
	pdf.SetCreator("LocalLibrary", true)
	pdf.AliasNbPages("")

	// Core fonts are cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(opts.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range bookColumns {
			pdf.CellFormat(col.width, 6, tr(col.header), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", fontSize)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin - 2)
		pdf.SetFont("Helvetica", "I", 8)
		footer := fmt.Sprintf("Generated %s - page %d/{nb}", opts.Generated.Format("2006-01-02 15:04"), pdf.PageNo())
		pdf.CellFormat(0, 4, footer, "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	_, pageHeight := pdf.GetPageSize()
	bottom := pageHeight - margin - 6

	for i := range books {
		cells := make([][]string, len(bookColumns))
		lines := 1
		for c, col := range bookColumns {
			wrapped := pdf.SplitLines([]byte(tr(col.value(&books[i]))), col.width-2*cellPad)
			cells[c] = make([]string, len(wrapped))
			for j, l := range wrapped {
				cells[c][j] = string(l)
			}
			lines = max(lines, len(wrapped))
		}
		height := float64(lines) * lineHeight

		if pdf.GetY()+height > bottom {
			pdf.AddPage()
		}
		x, y := margin, pdf.GetY()
		for c, col := range bookColumns {
			pdf.Rect(x, y, col.width, height, "D")
			for j, text := range cells[c] {
				pdf.SetXY(x+cellPad, y+float64(j)*lineHeight)
				pdf.CellFormat(col.width-2*cellPad, lineHeight, text, "", 0, "L", false, 0, "")
			}
			x += col.width
		}
		pdf.SetXY(margin, y+height)
	}

	if len(books) == 0 {
		pdf.CellFormat(0, 8, "There are no books in the library.", "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render books pdf: %w", err)
	}
	return nil
}
