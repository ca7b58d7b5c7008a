package service

import (
	"context"
	"fmt"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// Counters returns the home page totals.
func (c *Catalog) Counters(ctx context.Context) (store.Counters, error) {
	return c.store.Counters(ctx, c.opts.CounterWord)
}

// CounterWord is the word counted in book titles on the home page.
func (c *Catalog) CounterWord() string {
	return c.opts.CounterWord
}

// AuthorDetail is an author with their books.
type AuthorDetail struct {
	Author *domain.Author
	Books  []domain.Book
}

// AuthorDetail loads an author and their books.
func (c *Catalog) AuthorDetail(ctx context.Context, authorID int64) (*AuthorDetail, error) {
	a, err := c.Authors.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	books, err := c.store.BooksByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("books by author: %w", err)
	}
	return &AuthorDetail{Author: a, Books: books}, nil
}

// GenreDetail is a genre with the books tagged with it.
type GenreDetail struct {
	Genre *domain.Genre
	Books []domain.Book
}

// GenreDetail loads a genre and its books.
func (c *Catalog) GenreDetail(ctx context.Context, genreID int64) (*GenreDetail, error) {
	g, err := c.Genres.Get(ctx, genreID)
	if err != nil {
		return nil, err
	}
	books, err := c.store.BooksByGenre(ctx, genreID)
	if err != nil {
		return nil, fmt.Errorf("books by genre: %w", err)
	}
	return &GenreDetail{Genre: g, Books: books}, nil
}

// BookDetail is a book with its copies.
type BookDetail struct {
	Book   *domain.Book
	Copies []domain.BookInstance
}

// BookDetail loads a book and every copy of it.
func (c *Catalog) BookDetail(ctx context.Context, bookID int64) (*BookDetail, error) {
	b, err := c.Books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	copies, _, err := c.store.ListInstances(ctx, store.InstanceFilter{BookID: &bookID}, store.Page{})
	if err != nil {
		return nil, fmt.Errorf("book copies: %w", err)
	}
	return &BookDetail{Book: b, Copies: copies}, nil
}

// Choices are the options offered by the catalog's select inputs.
type Choices struct {
	Authors   []domain.Author
	Books     []domain.Book
	Genres    []domain.Genre
	Languages []domain.Language
	Statuses  []domain.Status
	Users     []domain.User
}

// Choices loads every select option the edit forms need.
func (c *Catalog) Choices(ctx context.Context) (*Choices, error) {
	var (
		ch  Choices
		err error
	)
	if ch.Authors, err = c.store.AllAuthors(ctx); err != nil {
		return nil, err
	}
	if ch.Books, err = c.store.AllBooks(ctx); err != nil {
		return nil, err
	}
	if ch.Genres, err = c.store.AllGenres(ctx); err != nil {
		return nil, err
	}
	if ch.Languages, err = c.store.AllLanguages(ctx); err != nil {
		return nil, err
	}
	if ch.Statuses, err = c.store.AllStatuses(ctx); err != nil {
		return nil, err
	}
	if ch.Users, err = c.store.ListUsers(ctx); err != nil {
		return nil, err
	}
	return &ch, nil
}

// Logs returns a page of the audit trail, newest first. Staff only.
func (c *Catalog) Logs(ctx context.Context, actor *domain.User, number int) (store.PageResult[domain.Log], error) {
	if err := requirePermission(actor, domain.PermManageLoans); err != nil {
		return store.PageResult[domain.Log]{}, err
	}
	page := store.Page{Number: number, Size: PageSizeLogs}.Normalize()
	logs, total, err := c.store.ListLogs(ctx, page)
	if err != nil {
		return store.PageResult[domain.Log]{}, fmt.Errorf("list logs: %w", err)
	}
	return store.NewPageResult(logs, page, total), nil
}

// requireUser fails with Unauthorized for anonymous callers.
func requireUser(actor *domain.User) error {
	if actor == nil {
		return domainerrors.Unauthorized("login required")
	}
	return nil
}

// requirePermission fails with Unauthorized for anonymous callers and
// Forbidden for users lacking p.
func requirePermission(actor *domain.User, p domain.Permission) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.Has(p) {
		return domainerrors.Forbidden("permission denied")
	}
	return nil
}
