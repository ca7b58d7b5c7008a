package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

const userColumns = `id, username, first_name, last_name, email, password_hash, role, created_at`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &u, nil
}

// CreateUser inserts u. Usernames are unique ignoring case.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, string(u.Role), formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert user: %w", mapWriteErr(err))
	}
	return nil
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByUsername looks a user up ignoring case.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

func (s *Store) getUserWhere(ctx context.Context, cond string, arg any) (*domain.User, error) {
	u, err := scanUser(s.q(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateUserPassword replaces the stored password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id, hash string) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res)
}

// DeleteUser removes a user. Copies they borrowed lose the borrower; the
// delete fails with store.ErrReferenced while audit rows name them.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", mapDeleteErr(err))
	}
	return requireAffected(res)
}

// ListUsers returns every user ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
