package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

const instanceSelect = `SELECT bi.id, bi.book_id, bi.imprint, bi.due_back, bi.language_id, bi.borrower_id, bi.status_id,
       b.title, l.name, u.username, s.name, s.extra_info
FROM book_instances bi
LEFT JOIN books b ON b.id = bi.book_id
LEFT JOIN languages l ON l.id = bi.language_id
LEFT JOIN users u ON u.id = bi.borrower_id
LEFT JOIN statuses s ON s.id = bi.status_id`

func scanInstance(row scanner) (*domain.BookInstance, error) {
	var (
		bi                          domain.BookInstance
		bookID, langID, statusID    sql.NullInt64
		due, borrowerID             sql.NullString
		title, lang, borrower       sql.NullString
		statusName, statusExtraInfo sql.NullString
	)
	if err := row.Scan(&bi.ID, &bookID, &bi.Imprint, &due, &langID, &borrowerID, &statusID,
		&title, &lang, &borrower, &statusName, &statusExtraInfo); err != nil {
		return nil, err
	}

	var err error
	if bi.DueBack, err = parseNullDate(due); err != nil {
		return nil, err
	}
	bi.BookID = idPtr(bookID)
	bi.LanguageID = idPtr(langID)
	bi.StatusID = idPtr(statusID)
	bi.BorrowerID = borrowerID.String
	bi.BookTitle = title.String
	bi.LanguageName = lang.String
	bi.Borrower = borrower.String
	if statusID.Valid {
		bi.Status = &domain.Status{ID: statusID.Int64, Name: statusName.String, ExtraInfo: statusExtraInfo.String}
	}
	return &bi, nil
}

// CreateInstance inserts a copy. The caller assigns the UUID.
func (s *Store) CreateInstance(ctx context.Context, bi *domain.BookInstance) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO book_instances (id, book_id, imprint, due_back, language_id, borrower_id, status_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bi.ID, nullID(bi.BookID), bi.Imprint, nullDate(bi.DueBack), nullID(bi.LanguageID),
		nullString(bi.BorrowerID), nullID(bi.StatusID))
	if err != nil {
		return fmt.Errorf("insert book instance: %w", mapWriteErr(err))
	}
	return nil
}

// GetInstance returns a copy with its book title, language, borrower and status.
func (s *Store) GetInstance(ctx context.Context, id string) (*domain.BookInstance, error) {
	bi, err := scanInstance(s.q(ctx).QueryRowContext(ctx, instanceSelect+` WHERE bi.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book instance: %w", err)
	}
	return bi, nil
}

// UpdateInstance overwrites every column of bi.
func (s *Store) UpdateInstance(ctx context.Context, bi *domain.BookInstance) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE book_instances
		 SET book_id = ?, imprint = ?, due_back = ?, language_id = ?, borrower_id = ?, status_id = ?
		 WHERE id = ?`,
		nullID(bi.BookID), bi.Imprint, nullDate(bi.DueBack), nullID(bi.LanguageID),
		nullString(bi.BorrowerID), nullID(bi.StatusID), bi.ID)
	if err != nil {
		return fmt.Errorf("update book instance: %w", mapWriteErr(err))
	}
	return requireAffected(res)
}

// UpdateDueBack changes only the due date of a copy.
func (s *Store) UpdateDueBack(ctx context.Context, id string, due time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE book_instances SET due_back = ? WHERE id = ?`, due.Format(domain.DateLayout), id)
	if err != nil {
		return fmt.Errorf("update due back: %w", err)
	}
	return requireAffected(res)
}

// DeleteInstance removes a copy.
func (s *Store) DeleteInstance(ctx context.Context, id string) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM book_instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book instance: %w", mapDeleteErr(err))
	}
	return requireAffected(res)
}

// ListInstances returns one page of copies ordered by due date, copies
// without one first.
func (s *Store) ListInstances(ctx context.Context, f store.InstanceFilter, page store.Page) ([]domain.BookInstance, int, error) {
	var w where
	w.addTitleMatch("b.title", f.Query)
	if f.BookID != nil {
		w.add("bi.book_id = ?", *f.BookID)
	}
	if f.BorrowerID != "" {
		w.add("bi.borrower_id = ?", f.BorrowerID)
	}
	if f.OnLoan {
		ids, err := s.statusIDsOfKind(ctx, domain.StatusOnLoan)
		if err != nil {
			return nil, 0, err
		}
		if len(ids) == 0 {
			return []domain.BookInstance{}, 0, nil
		}
		w.add("bi.status_id IN ("+placeholders(len(ids))+")", ids...)
	}

	total, err := s.count(ctx,
		`SELECT COUNT(*) FROM book_instances bi LEFT JOIN books b ON b.id = bi.book_id`+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count book instances: %w", err)
	}

	query := instanceSelect + w.String() + ` ORDER BY bi.due_back, bi.id`
	args := w.args
	if page.Size > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list book instances: %w", err)
	}
	defer rows.Close()

	var out []domain.BookInstance
	for rows.Next() {
		bi, err := scanInstance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book instance: %w", err)
		}
		out = append(out, *bi)
	}
	return out, total, rows.Err()
}

// AllInstances returns every copy, for reports.
func (s *Store) AllInstances(ctx context.Context) ([]domain.BookInstance, error) {
	out, _, err := s.ListInstances(ctx, store.InstanceFilter{}, store.Page{})
	return out, err
}
