package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// Genres and languages are both plain (id, name) tables and share the
// helpers below. table is always a constant from this file.

const (
	genresTable    = "genres"
	languagesTable = "languages"
)

type named struct {
	ID   int64
	Name string
}

func (s *Store) createNamed(ctx context.Context, table, name string) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, mapWriteErr(err))
	}
	return res.LastInsertId()
}

func (s *Store) getNamed(ctx context.Context, table string, id int64) (named, error) {
	var n named
	err := s.q(ctx).QueryRowContext(ctx, `SELECT id, name FROM `+table+` WHERE id = ?`, id).Scan(&n.ID, &n.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return n, store.ErrNotFound
	}
	if err != nil {
		return n, fmt.Errorf("get %s: %w", table, err)
	}
	return n, nil
}

func (s *Store) updateNamed(ctx context.Context, table string, id int64, name string) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE `+table+` SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, mapWriteErr(err))
	}
	return requireAffected(res)
}

func (s *Store) deleteNamed(ctx context.Context, table string, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, mapDeleteErr(err))
	}
	return requireAffected(res)
}

func (s *Store) listNamed(ctx context.Context, table string, params store.ListParams, page store.Page) ([]named, int, error) {
	var w where
	w.addTitleMatch("name", params.Query)

	total, err := s.count(ctx, `SELECT COUNT(*) FROM `+table+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	query := `SELECT id, name FROM ` + table + w.String() + ` ORDER BY name, id`
	args := w.args
	if page.Size > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []named
	for rows.Next() {
		var n named
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// CreateGenre inserts g and sets its ID.
func (s *Store) CreateGenre(ctx context.Context, g *domain.Genre) error {
	id, err := s.createNamed(ctx, genresTable, g.Name)
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// GetGenre returns the genre with the given ID.
func (s *Store) GetGenre(ctx context.Context, id int64) (*domain.Genre, error) {
	n, err := s.getNamed(ctx, genresTable, id)
	if err != nil {
		return nil, err
	}
	return &domain.Genre{ID: n.ID, Name: n.Name}, nil
}

// UpdateGenre renames a genre.
func (s *Store) UpdateGenre(ctx context.Context, g *domain.Genre) error {
	return s.updateNamed(ctx, genresTable, g.ID, g.Name)
}

// DeleteGenre removes a genre. Book links go with it.
func (s *Store) DeleteGenre(ctx context.Context, id int64) error {
	return s.deleteNamed(ctx, genresTable, id)
}

// ListGenres returns one page of genres ordered by name, and the total.
func (s *Store) ListGenres(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Genre, int, error) {
	rows, total, err := s.listNamed(ctx, genresTable, params, page)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.Genre, len(rows))
	for i, n := range rows {
		out[i] = domain.Genre{ID: n.ID, Name: n.Name}
	}
	return out, total, nil
}

// AllGenres returns every genre, for form choices.
func (s *Store) AllGenres(ctx context.Context) ([]domain.Genre, error) {
	out, _, err := s.ListGenres(ctx, store.ListParams{}, store.Page{})
	return out, err
}

// CreateLanguage inserts l and sets its ID.
func (s *Store) CreateLanguage(ctx context.Context, l *domain.Language) error {
	id, err := s.createNamed(ctx, languagesTable, l.Name)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// GetLanguage returns the language with the given ID.
func (s *Store) GetLanguage(ctx context.Context, id int64) (*domain.Language, error) {
	n, err := s.getNamed(ctx, languagesTable, id)
	if err != nil {
		return nil, err
	}
	return &domain.Language{ID: n.ID, Name: n.Name}, nil
}

// UpdateLanguage renames a language.
func (s *Store) UpdateLanguage(ctx context.Context, l *domain.Language) error {
	return s.updateNamed(ctx, languagesTable, l.ID, l.Name)
}

// DeleteLanguage removes a language; books and copies keep a NULL reference.
func (s *Store) DeleteLanguage(ctx context.Context, id int64) error {
	return s.deleteNamed(ctx, languagesTable, id)
}

// ListLanguages returns one page of languages ordered by name, and the total.
func (s *Store) ListLanguages(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Language, int, error) {
	rows, total, err := s.listNamed(ctx, languagesTable, params, page)
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.Language, len(rows))
	for i, n := range rows {
		out[i] = domain.Language{ID: n.ID, Name: n.Name}
	}
	return out, total, nil
}

// AllLanguages returns every language, for form choices.
func (s *Store) AllLanguages(ctx context.Context) ([]domain.Language, error) {
	out, _, err := s.ListLanguages(ctx, store.ListParams{}, store.Page{})
	return out, err
}
