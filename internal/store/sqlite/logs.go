package sqlite

import (
	"context"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// CreateLog appends an audit row and sets its ID.
func (s *Store) CreateLog(ctx context.Context, l *domain.Log) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO logs (model, user_id, date, operation) VALUES (?, ?, ?, ?)`,
		string(l.Model), l.UserID, formatTime(l.Date), string(l.Operation))
	if err != nil {
		return fmt.Errorf("insert log: %w", mapWriteErr(err))
	}
	l.ID, err = res.LastInsertId()
	return err
}

// ListLogs returns one page of audit rows, newest first.
func (s *Store) ListLogs(ctx context.Context, page store.Page) ([]domain.Log, int, error) {
	total, err := s.count(ctx, `SELECT COUNT(*) FROM logs`)
	if err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	query := `SELECT l.id, l.model, l.user_id, COALESCE(u.username, ''), l.date, l.operation
		FROM logs l LEFT JOIN users u ON u.id = l.user_id
		ORDER BY l.date DESC, l.id DESC`
	var args []any
	if page.Size > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var out []domain.Log
	for rows.Next() {
		var (
			l               domain.Log
			model, op, date string
		)
		if err := rows.Scan(&l.ID, &model, &l.UserID, &l.Username, &date, &op); err != nil {
			return nil, 0, fmt.Errorf("scan log: %w", err)
		}
		if l.Date, err = parseTime(date); err != nil {
			return nil, 0, fmt.Errorf("parse log date: %w", err)
		}
		l.Model = domain.Kind(model)
		l.Operation = domain.Operation(op)
		out = append(out, l)
	}
	return out, total, rows.Err()
}

// CountLogs returns the number of audit rows.
func (s *Store) CountLogs(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM logs`)
}
