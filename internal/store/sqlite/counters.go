package sqlite

import (
	"context"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/normalize"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// Counters returns the home page totals. word is matched against book
// titles ignoring case and accents.
func (s *Store) Counters(ctx context.Context, word string) (store.Counters, error) {
	var c store.Counters

	simple := []struct {
		dst   *int
		query string
	}{
		{&c.Books, `SELECT COUNT(*) FROM books`},
		{&c.Instances, `SELECT COUNT(*) FROM book_instances`},
		{&c.Authors, `SELECT COUNT(*) FROM authors`},
		{&c.Genres, `SELECT COUNT(*) FROM genres`},
	}
	for _, q := range simple {
		n, err := s.count(ctx, q.query)
		if err != nil {
			return c, fmt.Errorf("counters: %w", err)
		}
		*q.dst = n
	}

	ids, err := s.statusIDsOfKind(ctx, domain.StatusAvailable)
	if err != nil {
		return c, err
	}
	if len(ids) > 0 {
		if c.InstancesAvailable, err = s.count(ctx,
			`SELECT COUNT(*) FROM book_instances WHERE status_id IN (`+placeholders(len(ids))+`)`, ids...); err != nil {
			return c, fmt.Errorf("count available: %w", err)
		}
	}

	if needle := normalize.Fold(word); needle != "" {
		if c.BooksWithWord, err = s.count(ctx,
			`SELECT COUNT(*) FROM books WHERE instr(`+foldFunc+`(title), ?) > 0`, needle); err != nil {
			return c, fmt.Errorf("count titles: %w", err)
		}
	}
	return c, nil
}
