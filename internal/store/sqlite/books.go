package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

const bookSelect = `SELECT b.id, b.title, b.summary, b.isbn, b.author_id, b.language_id,
       a.first_name, a.last_name, a.date_of_birth, a.date_of_death, l.name
FROM books b
LEFT JOIN authors a ON a.id = b.author_id
LEFT JOIN languages l ON l.id = b.language_id`

func scanBook(row scanner) (*domain.Book, error) {
	var (
		b                 domain.Book
		authorID, langID  sql.NullInt64
		first, last, lang sql.NullString
		born, died        sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Summary, &b.ISBN, &authorID, &langID,
		&first, &last, &born, &died, &lang); err != nil {
		return nil, err
	}
	b.AuthorID = idPtr(authorID)
	b.LanguageID = idPtr(langID)
	if authorID.Valid {
		a := &domain.Author{ID: authorID.Int64, FirstName: first.String, LastName: last.String}
		var err error
		if a.DateOfBirth, err = parseNullDate(born); err != nil {
			return nil, err
		}
		if a.DateOfDeath, err = parseNullDate(died); err != nil {
			return nil, err
		}
		b.Author = a
	}
	if langID.Valid {
		b.Language = &domain.Language{ID: langID.Int64, Name: lang.String}
	}
	return &b, nil
}

// CreateBook inserts b with its genre links and sets its ID.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.q(ctx).ExecContext(ctx,
			`INSERT INTO books (title, summary, isbn, author_id, language_id) VALUES (?, ?, ?, ?, ?)`,
			b.Title, b.Summary, b.ISBN, nullID(b.AuthorID), nullID(b.LanguageID))
		if err != nil {
			return fmt.Errorf("insert book: %w", mapWriteErr(err))
		}
		if b.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		return s.setBookGenres(ctx, b.ID, b.GenreIDs)
	})
}

// GetBook returns a book with its author, language and genres.
func (s *Store) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	b, err := scanBook(s.q(ctx).QueryRowContext(ctx, bookSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	books := []domain.Book{*b}
	if err := s.loadBookGenres(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

// UpdateBook overwrites b's columns and replaces its genre set.
func (s *Store) UpdateBook(ctx context.Context, b *domain.Book) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.q(ctx).ExecContext(ctx,
			`UPDATE books SET title = ?, summary = ?, isbn = ?, author_id = ?, language_id = ? WHERE id = ?`,
			b.Title, b.Summary, b.ISBN, nullID(b.AuthorID), nullID(b.LanguageID), b.ID)
		if err != nil {
			return fmt.Errorf("update book: %w", mapWriteErr(err))
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		return s.setBookGenres(ctx, b.ID, b.GenreIDs)
	})
}

// UpdateBookSummary rewrites only the summary column.
func (s *Store) UpdateBookSummary(ctx context.Context, id int64, summary string) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE books SET summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return fmt.Errorf("update book summary: %w", err)
	}
	return requireAffected(res)
}

// DeleteBook removes a book. It fails with store.ErrReferenced while copies
// of the book exist.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", mapDeleteErr(err))
	}
	return requireAffected(res)
}

// ISBNInUse reports whether another book than exceptID carries isbn.
func (s *Store) ISBNInUse(ctx context.Context, isbn string, exceptID int64) (bool, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM books WHERE isbn = ? AND id != ?`, isbn, exceptID)
	if err != nil {
		return false, fmt.Errorf("check isbn: %w", err)
	}
	return n > 0, nil
}

// ListBooks returns one page of books ordered by title, and the total.
func (s *Store) ListBooks(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Book, int, error) {
	var w where
	w.addTitleMatch("b.title", params.Query)
	return s.queryBooks(ctx, w, page)
}

// BooksByAuthor returns every book written by the author.
func (s *Store) BooksByAuthor(ctx context.Context, authorID int64) ([]domain.Book, error) {
	var w where
	w.add("b.author_id = ?", authorID)
	out, _, err := s.queryBooks(ctx, w, store.Page{})
	return out, err
}

// BooksByGenre returns every book tagged with the genre.
func (s *Store) BooksByGenre(ctx context.Context, genreID int64) ([]domain.Book, error) {
	var w where
	w.add("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", genreID)
	out, _, err := s.queryBooks(ctx, w, store.Page{})
	return out, err
}

// AllBooks returns every book with genres loaded.
func (s *Store) AllBooks(ctx context.Context) ([]domain.Book, error) {
	out, _, err := s.queryBooks(ctx, where{}, store.Page{})
	return out, err
}

func (s *Store) queryBooks(ctx context.Context, w where, page store.Page) ([]domain.Book, int, error) {
	total, err := s.count(ctx, `SELECT COUNT(*) FROM books b`+w.String(), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	query := bookSelect + w.String() + ` ORDER BY b.title, b.id`
	args := w.args
	if page.Size > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := s.loadBookGenres(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// loadBookGenres fills Genres and GenreIDs for books in one query.
func (s *Store) loadBookGenres(ctx context.Context, books []domain.Book) error {
	if len(books) == 0 {
		return nil
	}

	index := make(map[int64]int, len(books))
	args := make([]any, len(books))
	for i := range books {
		index[books[i].ID] = i
		args[i] = books[i].ID
		books[i].Genres = nil
		books[i].GenreIDs = nil
	}

	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT bg.book_id, g.id, g.name
		FROM book_genres bg
		JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id IN (`+placeholders(len(args))+`)
		ORDER BY g.name, g.id`, args...)
	if err != nil {
		return fmt.Errorf("load book genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookID int64
			g      domain.Genre
		)
		if err := rows.Scan(&bookID, &g.ID, &g.Name); err != nil {
			return fmt.Errorf("scan book genre: %w", err)
		}
		b := &books[index[bookID]]
		b.Genres = append(b.Genres, g)
		b.GenreIDs = append(b.GenreIDs, g.ID)
	}
	return rows.Err()
}

func (s *Store) setBookGenres(ctx context.Context, bookID int64, genreIDs []int64) error {
	if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM book_genres WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("clear book genres: %w", err)
	}
	for _, gid := range genreIDs {
		if _, err := s.q(ctx).ExecContext(ctx,
			`INSERT OR IGNORE INTO book_genres (book_id, genre_id) VALUES (?, ?)`, bookID, gid); err != nil {
			return fmt.Errorf("link genre %d: %w", gid, mapWriteErr(err))
		}
	}
	return nil
}
