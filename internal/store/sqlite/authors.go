package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

const authorColumns = `id, first_name, last_name, date_of_birth, date_of_death`

func scanAuthor(row scanner) (*domain.Author, error) {
	var (
		a          domain.Author
		born, died sql.NullString
	)
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &born, &died); err != nil {
		return nil, err
	}
	var err error
	if a.DateOfBirth, err = parseNullDate(born); err != nil {
		return nil, err
	}
	if a.DateOfDeath, err = parseNullDate(died); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAuthor inserts a and sets its ID.
func (s *Store) CreateAuthor(ctx context.Context, a *domain.Author) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO authors (first_name, last_name, date_of_birth, date_of_death) VALUES (?, ?, ?, ?)`,
		a.FirstName, a.LastName, nullDate(a.DateOfBirth), nullDate(a.DateOfDeath))
	if err != nil {
		return fmt.Errorf("insert author: %w", mapWriteErr(err))
	}
	a.ID, err = res.LastInsertId()
	return err
}

// GetAuthor returns the author with the given ID.
func (s *Store) GetAuthor(ctx context.Context, id int64) (*domain.Author, error) {
	a, err := scanAuthor(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	return a, nil
}

// UpdateAuthor overwrites every column of a.
func (s *Store) UpdateAuthor(ctx context.Context, a *domain.Author) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE authors SET first_name = ?, last_name = ?, date_of_birth = ?, date_of_death = ? WHERE id = ?`,
		a.FirstName, a.LastName, nullDate(a.DateOfBirth), nullDate(a.DateOfDeath), a.ID)
	if err != nil {
		return fmt.Errorf("update author: %w", mapWriteErr(err))
	}
	return requireAffected(res)
}

// DeleteAuthor removes an author; their books keep a NULL author.
func (s *Store) DeleteAuthor(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM authors WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete author: %w", mapDeleteErr(err))
	}
	return requireAffected(res)
}

// ListAuthors returns one page of authors ordered by (last_name, first_name).
// Query matches either name; BornFrom and BornTo bound the birth date and
// exclude authors without one.
func (s *Store) ListAuthors(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Author, int, error) {
	var w where
	if q := params.Query; q != "" {
		var name where
		name.addTitleMatch("first_name", q)
		name.addTitleMatch("last_name", q)
		if len(name.conds) == 2 {
			w.add("("+name.conds[0]+" OR "+name.conds[1]+")", name.args...)
		}
	}
	if params.BornFrom != nil {
		w.add("date_of_birth >= ?", params.BornFrom.Format(domain.DateLayout))
	}
	if params.BornTo != nil {
		w.add("date_of_birth <= ?", params.BornTo.Format(domain.DateLayout))
	}

	total, err := s.count(ctx, `SELECT COUNT(*) FROM authors`+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}

	query := `SELECT ` + authorColumns + ` FROM authors` + w.String() + ` ORDER BY last_name, first_name, id`
	args := w.args
	if page.Size > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var out []domain.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan author: %w", err)
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

// AllAuthors returns every author in display order.
func (s *Store) AllAuthors(ctx context.Context) ([]domain.Author, error) {
	out, _, err := s.ListAuthors(ctx, store.ListParams{}, store.Page{})
	return out, err
}
