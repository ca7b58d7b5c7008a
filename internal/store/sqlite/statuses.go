package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

func scanStatus(row scanner) (*domain.Status, error) {
	var st domain.Status
	if err := row.Scan(&st.ID, &st.Name, &st.ExtraInfo); err != nil {
		return nil, err
	}
	return &st, nil
}

// CreateStatus inserts st and sets its ID. Names are unique.
func (s *Store) CreateStatus(ctx context.Context, st *domain.Status) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO statuses (name, extra_info) VALUES (?, ?)`, st.Name, st.ExtraInfo)
	if err != nil {
		return fmt.Errorf("insert status: %w", mapWriteErr(err))
	}
	st.ID, err = res.LastInsertId()
	return err
}

// GetStatus returns the status with the given ID.
func (s *Store) GetStatus(ctx context.Context, id int64) (*domain.Status, error) {
	st, err := scanStatus(s.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, extra_info FROM statuses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return st, nil
}

// StatusByKind returns the first status of the given kind, by ID.
func (s *Store) StatusByKind(ctx context.Context, kind domain.StatusKind) (*domain.Status, error) {
	all, err := s.AllStatuses(ctx)
	if err != nil {
		return nil, err
	}
	var found *domain.Status
	for i := range all {
		if all[i].Kind() == kind && (found == nil || all[i].ID < found.ID) {
			found = &all[i]
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

// UpdateStatus overwrites name and extra info.
func (s *Store) UpdateStatus(ctx context.Context, st *domain.Status) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE statuses SET name = ?, extra_info = ? WHERE id = ?`, st.Name, st.ExtraInfo, st.ID)
	if err != nil {
		return fmt.Errorf("update status: %w", mapWriteErr(err))
	}
	return requireAffected(res)
}

// DeleteStatus removes a status; copies in that status keep a NULL status.
func (s *Store) DeleteStatus(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM statuses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete status: %w", mapDeleteErr(err))
	}
	return requireAffected(res)
}

// ListStatuses returns one page of statuses ordered by name.
func (s *Store) ListStatuses(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Status, int, error) {
	var w where
	w.addTitleMatch("name", params.Query)

	total, err := s.count(ctx, `SELECT COUNT(*) FROM statuses`+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count statuses: %w", err)
	}

	query := `SELECT id, name, extra_info FROM statuses` + w.String() + ` ORDER BY name, id`
	args := w.args
	if page.Size > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var out []domain.Status
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, *st)
	}
	return out, total, rows.Err()
}

// AllStatuses returns every status ordered by name.
func (s *Store) AllStatuses(ctx context.Context) ([]domain.Status, error) {
	out, _, err := s.ListStatuses(ctx, store.ListParams{}, store.Page{})
	return out, err
}

// statusIDsOfKind lists the IDs of every status classified as kind.
func (s *Store) statusIDsOfKind(ctx context.Context, kind domain.StatusKind) ([]any, error) {
	all, err := s.AllStatuses(ctx)
	if err != nil {
		return nil, err
	}
	var ids []any
	for i := range all {
		if all[i].Kind() == kind {
			ids = append(ids, all[i].ID)
		}
	}
	return ids, nil
}
