// Package service implements the catalog's use cases on top of the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/audit"
	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/id"
	"github.com/NickLinnik/LocalLibrary/internal/search"
	"github.com/NickLinnik/LocalLibrary/internal/store"
	"github.com/NickLinnik/LocalLibrary/internal/validation"
)

// Fixed list page sizes.
const (
	PageSizeBooks     = 15
	PageSizeAuthors   = 15
	PageSizeInstances = 15
	PageSizeGenres    = 20
	PageSizeLanguages = 20
	PageSizeStatuses  = 20
	PageSizeLoans     = 10
	PageSizeLogs      = 20
	PageSizeSearch    = 15
)

// Store is the persistence the catalog needs. *sqlite.Store implements it.
type Store interface {
	Transactor
	audit.Writer

	CreateGenre(ctx context.Context, g *domain.Genre) error
	GetGenre(ctx context.Context, id int64) (*domain.Genre, error)
	UpdateGenre(ctx context.Context, g *domain.Genre) error
	DeleteGenre(ctx context.Context, id int64) error
	ListGenres(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Genre, int, error)
	AllGenres(ctx context.Context) ([]domain.Genre, error)

	CreateLanguage(ctx context.Context, l *domain.Language) error
	GetLanguage(ctx context.Context, id int64) (*domain.Language, error)
	UpdateLanguage(ctx context.Context, l *domain.Language) error
	DeleteLanguage(ctx context.Context, id int64) error
	ListLanguages(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Language, int, error)
	AllLanguages(ctx context.Context) ([]domain.Language, error)

	CreateAuthor(ctx context.Context, a *domain.Author) error
	GetAuthor(ctx context.Context, id int64) (*domain.Author, error)
	UpdateAuthor(ctx context.Context, a *domain.Author) error
	DeleteAuthor(ctx context.Context, id int64) error
	ListAuthors(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Author, int, error)
	AllAuthors(ctx context.Context) ([]domain.Author, error)

	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	UpdateBook(ctx context.Context, b *domain.Book) error
	UpdateBookSummary(ctx context.Context, id int64, summary string) error
	DeleteBook(ctx context.Context, id int64) error
	ListBooks(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Book, int, error)
	BooksByAuthor(ctx context.Context, authorID int64) ([]domain.Book, error)
	BooksByGenre(ctx context.Context, genreID int64) ([]domain.Book, error)
	AllBooks(ctx context.Context) ([]domain.Book, error)
	ISBNInUse(ctx context.Context, isbn string, exceptID int64) (bool, error)

	CreateStatus(ctx context.Context, st *domain.Status) error
	GetStatus(ctx context.Context, id int64) (*domain.Status, error)
	StatusByKind(ctx context.Context, kind domain.StatusKind) (*domain.Status, error)
	UpdateStatus(ctx context.Context, st *domain.Status) error
	DeleteStatus(ctx context.Context, id int64) error
	ListStatuses(ctx context.Context, params store.ListParams, page store.Page) ([]domain.Status, int, error)
	AllStatuses(ctx context.Context) ([]domain.Status, error)

	CreateInstance(ctx context.Context, bi *domain.BookInstance) error
	GetInstance(ctx context.Context, id string) (*domain.BookInstance, error)
	UpdateInstance(ctx context.Context, bi *domain.BookInstance) error
	UpdateDueBack(ctx context.Context, id string, due time.Time) error
	DeleteInstance(ctx context.Context, id string) error
	ListInstances(ctx context.Context, f store.InstanceFilter, page store.Page) ([]domain.BookInstance, int, error)
	AllInstances(ctx context.Context) ([]domain.BookInstance, error)

	ListLogs(ctx context.Context, page store.Page) ([]domain.Log, int, error)
	Counters(ctx context.Context, word string) (store.Counters, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// BookIndexer keeps the free-text index in step with the catalog and
// answers searches. *search.Index implements it.
type BookIndexer interface {
	IndexBook(ctx context.Context, b *domain.Book) error
	DeleteBook(ctx context.Context, id int64) error
	Rebuild(ctx context.Context, books []domain.Book) error
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// CatalogOptions tunes catalog behaviour.
type CatalogOptions struct {
	CounterWord string
	GenreSuffix string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Catalog bundles the per-kind resources and the operations that span them.
type Catalog struct {
	Genres    *Resource[domain.Genre, GenreForm, int64]
	Languages *Resource[domain.Language, LanguageForm, int64]
	Authors   *Resource[domain.Author, AuthorForm, int64]
	Books     *Resource[domain.Book, BookForm, int64]
	Statuses  *Resource[domain.Status, StatusForm, int64]
	Instances *Resource[domain.BookInstance, InstanceForm, string]

	store   Store
	indexer BookIndexer
	opts    CatalogOptions
	logger  *slog.Logger
}

// NewCatalog wires a resource per entity kind. indexer and counter may be nil.
func NewCatalog(st Store, recorder *audit.Recorder, indexer BookIndexer, counter MutationCounter, opts CatalogOptions, logger *slog.Logger) *Catalog {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{store: st, indexer: indexer, opts: opts, logger: logger}
	deps := ResourceDeps{
		Tx:        st,
		Audit:     recorder,
		Validator: validation.New(),
		Counter:   counter,
		Logger:    logger,
		Now:       opts.Now,
	}

	c.Genres = NewResource(Descriptor[domain.Genre, GenreForm, int64]{
		Kind:       domain.KindGenre,
		PageSize:   PageSizeGenres,
		Permission: domain.PermManageLoans,
		Key:        func(g *domain.Genre) int64 { return g.ID },
		Get:        st.GetGenre,
		List:       st.ListGenres,
		Create:     st.CreateGenre,
		Update:     st.UpdateGenre,
		Delete:     st.DeleteGenre,
		Build: func(f GenreForm, existing *domain.Genre) (*domain.Genre, error) {
			g := &domain.Genre{Name: f.Name}
			if existing != nil {
				g.ID = existing.ID
			}
			return g, nil
		},
		AfterCommit:  reindexRelated[domain.Genre](c, "genre_id", st.BooksByGenre),
		BeforeDelete: c.reindexAfterDelete("genre_id", st.BooksByGenre),
	}, deps)

	c.Languages = NewResource(Descriptor[domain.Language, LanguageForm, int64]{
		Kind:       domain.KindLanguage,
		PageSize:   PageSizeLanguages,
		Permission: domain.PermManageLoans,
		Key:        func(l *domain.Language) int64 { return l.ID },
		Get:        st.GetLanguage,
		List:       st.ListLanguages,
		Create:     st.CreateLanguage,
		Update:     st.UpdateLanguage,
		Delete:     st.DeleteLanguage,
		Build: func(f LanguageForm, existing *domain.Language) (*domain.Language, error) {
			l := &domain.Language{Name: f.Name}
			if existing != nil {
				l.ID = existing.ID
			}
			return l, nil
		},
	}, deps)

	c.Authors = NewResource(Descriptor[domain.Author, AuthorForm, int64]{
		Kind:        domain.KindAuthor,
		PageSize:    PageSizeAuthors,
		Permission:  domain.PermManageLoans,
		Key:         func(a *domain.Author) int64 { return a.ID },
		Get:         st.GetAuthor,
		List:        st.ListAuthors,
		Create:      st.CreateAuthor,
		Update:      st.UpdateAuthor,
		Delete:      st.DeleteAuthor,
		Build:        buildAuthor,
		AfterCommit:  reindexRelated[domain.Author](c, "author_id", st.BooksByAuthor),
		BeforeDelete: c.reindexAfterDelete("author_id", st.BooksByAuthor),
	}, deps)

	c.Books = NewResource(Descriptor[domain.Book, BookForm, int64]{
		Kind:        domain.KindBook,
		PageSize:    PageSizeBooks,
		Permission:  domain.PermManageLoans,
		UniqueField: "isbn",
		Key:         func(b *domain.Book) int64 { return b.ID },
		Get:         st.GetBook,
		List:        st.ListBooks,
		Create:      st.CreateBook,
		Update:      st.UpdateBook,
		Delete:      st.DeleteBook,
		Build:       buildBook,
		Check:       c.checkISBN,
		AfterCommit: c.reindexBook,
	}, deps)

	c.Statuses = NewResource(Descriptor[domain.Status, StatusForm, int64]{
		Kind:        domain.KindStatus,
		PageSize:    PageSizeStatuses,
		Permission:  domain.PermManageLoans,
		UniqueField: "name",
		Key:         func(s *domain.Status) int64 { return s.ID },
		Get:         st.GetStatus,
		List:        st.ListStatuses,
		Create:      st.CreateStatus,
		Update:      st.UpdateStatus,
		Delete:      st.DeleteStatus,
		Build: func(f StatusForm, existing *domain.Status) (*domain.Status, error) {
			s := &domain.Status{Name: f.Name, ExtraInfo: f.ExtraInfo}
			if existing != nil {
				s.ID = existing.ID
			}
			return s, nil
		},
	}, deps)

	c.Instances = NewResource(Descriptor[domain.BookInstance, InstanceForm, string]{
		Kind:       domain.KindBookInstance,
		PageSize:   PageSizeInstances,
		Permission: domain.PermManageLoans,
		Key:        func(bi *domain.BookInstance) string { return bi.ID },
		Get:        c.getInstance,
		List: func(ctx context.Context, params store.ListParams, page store.Page) ([]domain.BookInstance, int, error) {
			return st.ListInstances(ctx, store.InstanceFilter{Query: params.Query}, page)
		},
		Create: st.CreateInstance,
		Update: st.UpdateInstance,
		Delete: st.DeleteInstance,
		Build:  buildInstance,
		Check:  c.checkInstance,
	}, deps)

	return c
}

// Today is the catalog's current calendar day.
func (c *Catalog) Today() time.Time {
	return domain.DateOf(c.opts.Now())
}

func buildAuthor(f AuthorForm, existing *domain.Author) (*domain.Author, error) {
	born, err := parseFormDate("date_of_birth", f.DateOfBirth)
	if err != nil {
		return nil, err
	}
	died, err := parseFormDate("date_of_death", f.DateOfDeath)
	if err != nil {
		return nil, err
	}
	a := &domain.Author{FirstName: f.FirstName, LastName: f.LastName, DateOfBirth: born, DateOfDeath: died}
	if existing != nil {
		a.ID = existing.ID
	}
	return a, nil
}

func buildBook(f BookForm, existing *domain.Book) (*domain.Book, error) {
	b := &domain.Book{
		Title:      f.Title,
		Summary:    f.Summary,
		ISBN:       f.ISBN,
		AuthorID:   optionalID(f.AuthorID),
		LanguageID: optionalID(f.LanguageID),
		GenreIDs:   f.GenreIDs,
	}
	if existing != nil {
		b.ID = existing.ID
	}
	return b, nil
}

func buildInstance(f InstanceForm, existing *domain.BookInstance) (*domain.BookInstance, error) {
	due, err := parseFormDate("due_back", f.DueBack)
	if err != nil {
		return nil, err
	}
	bi := &domain.BookInstance{
		BookID:     optionalID(f.BookID),
		Imprint:    f.Imprint,
		DueBack:    due,
		LanguageID: optionalID(f.LanguageID),
		BorrowerID: f.BorrowerID,
		StatusID:   optionalID(f.StatusID),
	}
	if existing != nil {
		bi.ID = existing.ID
	} else {
		bi.ID = id.NewInstanceID()
	}
	return bi, nil
}

// checkISBN reports a duplicate ISBN as a field error before the insert.
func (c *Catalog) checkISBN(ctx context.Context, b *domain.Book) error {
	inUse, err := c.store.ISBNInUse(ctx, b.ISBN, b.ID)
	if err != nil {
		return err
	}
	if inUse {
		return domainerrors.FieldInvalid("isbn", "already in use")
	}
	return nil
}

// checkInstance applies the status consistency rule.
func (c *Catalog) checkInstance(ctx context.Context, bi *domain.BookInstance) error {
	var status *domain.Status
	if bi.StatusID != nil {
		st, err := c.store.GetStatus(ctx, *bi.StatusID)
		if err != nil {
			return domainerrors.FieldInvalid("status", "Select a valid choice. That choice is not one of the available choices.").WithCause(err)
		}
		status = st
	}
	return domain.ValidateInstanceConsistency(status, bi.DueBack, bi.BorrowerID)
}

// getInstance canonicalizes the UUID before the lookup.
func (c *Catalog) getInstance(ctx context.Context, key string) (*domain.BookInstance, error) {
	canonical, err := id.ParseInstanceID(key)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return c.store.GetInstance(ctx, canonical)
}

func (c *Catalog) reindexBook(ctx context.Context, op domain.Operation, key int64, _ *domain.Book) {
	if c.indexer == nil {
		return
	}
	if op == domain.OpDelete {
		if err := c.indexer.DeleteBook(ctx, key); err != nil {
			c.logger.Warn("search index delete failed", "book_id", key, "error", err)
		}
		return
	}
	b, err := c.store.GetBook(ctx, key)
	if err != nil {
		c.logger.Warn("search index reload failed", "book_id", key, "error", err)
		return
	}
	if err := c.indexer.IndexBook(ctx, b); err != nil {
		c.logger.Warn("search index update failed", "book_id", key, "error", err)
	}
}

// reindexRelated refreshes the search documents of the books related to an
// updated author or genre, which carry its name.
func reindexRelated[T any](c *Catalog, field string, load func(ctx context.Context, id int64) ([]domain.Book, error)) func(ctx context.Context, op domain.Operation, key int64, _ *T) {
	return func(ctx context.Context, op domain.Operation, key int64, _ *T) {
		if c.indexer == nil || op != domain.OpUpdate {
			return
		}
		books, err := load(ctx, key)
		if err != nil {
			c.logger.Warn("search reindex failed", field, key, "error", err)
			return
		}
		for i := range books {
			if err := c.indexer.IndexBook(ctx, &books[i]); err != nil {
				c.logger.Warn("search index update failed", "book_id", books[i].ID, "error", err)
			}
		}
	}
}

// reindexAfterDelete notes which books relate to an author or genre about to
// be deleted and reloads them once the delete has cleared the link.
func (c *Catalog) reindexAfterDelete(field string, load func(ctx context.Context, id int64) ([]domain.Book, error)) func(ctx context.Context, key int64) (func(ctx context.Context), error) {
	return func(ctx context.Context, key int64) (func(ctx context.Context), error) {
		if c.indexer == nil {
			return nil, nil
		}
		books, err := load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load books by %s: %w", field, err)
		}
		return func(ctx context.Context) {
			for _, b := range books {
				c.reindexBook(ctx, domain.OpUpdate, b.ID, nil)
			}
		}, nil
	}
}
