package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/search"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// Search runs a free-text query and returns page number of matching books,
// best match first.
func (c *Catalog) Search(ctx context.Context, q string, number int) (store.PageResult[domain.Book], error) {
	page := store.Page{Number: number, Size: PageSizeSearch}.Normalize()
	if c.indexer == nil {
		return store.NewPageResult[domain.Book](nil, page, 0), nil
	}

	res, err := c.indexer.Search(ctx, search.Params{Query: q, Limit: page.Size, Offset: page.Offset()})
	if err != nil {
		return store.PageResult[domain.Book]{}, fmt.Errorf("search books: %w", err)
	}

	books := make([]domain.Book, 0, len(res.Hits))
	for _, h := range res.Hits {
		b, err := c.store.GetBook(ctx, h.BookID)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted since it was indexed.
			c.logger.Debug("stale search hit", "book_id", h.BookID)
			continue
		}
		if err != nil {
			return store.PageResult[domain.Book]{}, fmt.Errorf("load search hit: %w", err)
		}
		books = append(books, *b)
	}
	return store.NewPageResult(books, page, int(res.Total)), nil
}

// Reindex rebuilds the search index from the store and returns how many
// books it holds.
func (c *Catalog) Reindex(ctx context.Context) (int, error) {
	if c.indexer == nil {
		return 0, domainerrors.InvalidState("search is not configured")
	}
	books, err := c.store.AllBooks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load books: %w", err)
	}
	if err := c.indexer.Rebuild(ctx, books); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	c.logger.Info("search index rebuilt", "books", len(books))
	return len(books), nil
}
