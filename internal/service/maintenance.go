package service

import (
	"context"
	"fmt"
	"io"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/export"
	"github.com/NickLinnik/LocalLibrary/internal/report"
)

// Reports computes every report from the current catalog.
func (c *Catalog) Reports(ctx context.Context) (*report.Set, error) {
	return report.Build(ctx, c.store)
}

// UpdateSummaries appends the most-genres suffix to every qualifying book
// that lacks it and returns how many books changed. Each change is its own
// audited Update, so running it twice changes nothing the second time.
func (c *Catalog) UpdateSummaries(ctx context.Context, actor *domain.User) (int, error) {
	if err := c.Books.Authorize(actor); err != nil {
		return 0, err
	}
	books, err := c.store.AllBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load books: %w", err)
	}

	changed := 0
	for _, ch := range report.AnnotateMostGenres(books, c.opts.GenreSuffix) {
		err := c.Books.Change(ctx, actor, ch.BookID, func(ctx context.Context) error {
			return c.store.UpdateBookSummary(ctx, ch.BookID, ch.Summary)
		})
		if err != nil {
			return changed, err
		}
		changed++
	}
	c.logger.Info("summaries updated", "books", changed, "user_id", actor.ID)
	return changed, nil
}

// ExportBooks writes the PDF listing of every book to w.
func (c *Catalog) ExportBooks(ctx context.Context, w io.Writer) error {
	books, err := c.store.AllBooks(ctx)
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}
	return export.Books(w, books, export.Options{Title: "Books", Generated: c.opts.Now()})
}
