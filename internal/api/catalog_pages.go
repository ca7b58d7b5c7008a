package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	"github.com/NickLinnik/LocalLibrary/internal/id"
	"github.com/NickLinnik/LocalLibrary/internal/service"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// detailRow is one "Label: value" line of simple_detail.html.
type detailRow struct {
	Label string
	Value string
}

// simpleDetail is the content of simple_detail.html.
type simpleDetail struct {
	Heading   string
	Rows      []detailRow
	EditURL   string
	DeleteURL string
}

type bookDetailPage struct {
	*service.BookDetail
	Today time.Time
}

type instanceDetailPage struct {
	Instance *domain.BookInstance
	Today    time.Time
	// OnLoan enables the renew and return actions.
	OnLoan bool
}

func parseInt64Key(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil && n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, err
}

func (s *Server) registerPageRoutes(r chi.Router) {
	c := s.services.Catalog

	r.Get("/", s.handleHome)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)
	r.Post("/logout", s.handleLogout)

	// Fixed paths under /books and /book are registered before the
	// generic item routes so they take precedence.
	r.Get("/books/print", s.handlePrintBooks)
	r.Post("/books/update_summary", s.handleUpdateSummaries)
	r.Get("/book/{id}/renew", s.handleRenewForm)
	r.Post("/book/{id}/renew", s.handleRenew)
	r.Post("/bookinstance/{id}/return", s.handleReturn)

	s.bookPages(c).mount(r)
	s.authorPages(c).mount(r)
	s.genrePages(c).mount(r)
	s.languagePages(c).mount(r)
	s.statusPages(c).mount(r)
	s.instancePages(c).mount(r)

	r.Get("/mybooks", s.handleMyLoans)
	r.Get("/borrowed", s.handleBorrowed)
	r.Get("/logs", s.handleLogs)
	r.Get("/reports", s.handleReports)
	r.Get("/search", s.handleSearch)
}

func (s *Server) bookPages(c *service.Catalog) *crudPages[domain.Book, service.BookForm, int64] {
	return &crudPages[domain.Book, service.BookForm, int64]{
		s:        s,
		res:      c.Books,
		singular: "book",
		plural:   "books",
		label:    "Book",
		empty:    "There are no books in the library.",
		parseKey: parseInt64Key,
		keyOf:    func(b *domain.Book) int64 { return b.ID },
		row: func(b *domain.Book) listItem {
			item := listItem{URL: "/book/" + strconv.FormatInt(b.ID, 10), Text: b.Title}
			if b.Author != nil {
				item.Extra = b.Author.String()
			}
			return item
		},
		formOf: func(b *domain.Book) service.BookForm {
			return service.BookForm{
				Title:      b.Title,
				AuthorID:   deref(b.AuthorID),
				Summary:    b.Summary,
				ISBN:       b.ISBN,
				GenreIDs:   b.GenreIDs,
				LanguageID: deref(b.LanguageID),
			}
		},
		fields: func(ctx context.Context, f service.BookForm) ([]formField, error) {
			ch, err := c.Choices(ctx)
			if err != nil {
				return nil, err
			}
			authors := make([]option, 0, len(ch.Authors))
			for _, a := range ch.Authors {
				authors = append(authors, option{Value: idString(a.ID), Label: a.String()})
			}
			genres := make([]option, 0, len(ch.Genres))
			for _, g := range ch.Genres {
				genres = append(genres, option{Value: idString(g.ID), Label: g.Name})
			}
			isbn := textField("isbn", "ISBN", f.ISBN, false)
			isbn.Help = "13 Character ISBN number"
			return []formField{
				textField("title", "Title", f.Title, true),
				selectField("author", "Author", idString(f.AuthorID), authors, true),
				textareaField("summary", "Summary", f.Summary, true),
				isbn,
				multiSelectField("genre", "Genre", f.GenreIDs, genres),
				selectField("language_of_origin", "Language of origin", idString(f.LanguageID), languageOptions(ch.Languages), true),
			}, nil
		},
		detailPage: "book_detail.html",
		detail: func(ctx context.Context, key int64) (any, error) {
			d, err := c.BookDetail(ctx, key)
			if err != nil {
				return nil, err
			}
			return bookDetailPage{BookDetail: d, Today: c.Today()}, nil
		},
	}
}

func (s *Server) authorPages(c *service.Catalog) *crudPages[domain.Author, service.AuthorForm, int64] {
	return &crudPages[domain.Author, service.AuthorForm, int64]{
		s:        s,
		res:      c.Authors,
		singular: "author",
		plural:   "authors",
		label:    "Author",
		empty:    "There are no authors available.",
		parseKey: parseInt64Key,
		keyOf:    func(a *domain.Author) int64 { return a.ID },
		row: func(a *domain.Author) listItem {
			return listItem{URL: "/author/" + strconv.FormatInt(a.ID, 10), Text: a.String(), Extra: a.Lifespan()}
		},
		formOf: func(a *domain.Author) service.AuthorForm {
			return service.AuthorForm{
				FirstName:   a.FirstName,
				LastName:    a.LastName,
				DateOfBirth: domain.FormatDate(a.DateOfBirth),
				DateOfDeath: domain.FormatDate(a.DateOfDeath),
			}
		},
		fields: func(_ context.Context, f service.AuthorForm) ([]formField, error) {
			return []formField{
				textField("first_name", "First name", f.FirstName, true),
				textField("last_name", "Last name", f.LastName, true),
				dateField("date_of_birth", "Date of birth", f.DateOfBirth),
				dateField("date_of_death", "Died", f.DateOfDeath),
			}, nil
		},
		detailPage: "author_detail.html",
		detail: func(ctx context.Context, key int64) (any, error) {
			return c.AuthorDetail(ctx, key)
		},
		listParams: authorDateFilter,
	}
}

// authorDateFilter applies ?date1= and ?date2= as an inclusive birth date
// range. A bound that does not parse is ignored but still shown.
func authorDateFilter(r *http.Request, params *store.ListParams, page *listPage) {
	q := r.URL.Query()
	page.DateFilter = true
	page.Date1 = q.Get("date1")
	page.Date2 = q.Get("date2")
	if from, err := domain.ParseOptionalDate(page.Date1); err == nil {
		params.BornFrom = from
	}
	if to, err := domain.ParseOptionalDate(page.Date2); err == nil {
		params.BornTo = to
	}
}

func (s *Server) genrePages(c *service.Catalog) *crudPages[domain.Genre, service.GenreForm, int64] {
	return &crudPages[domain.Genre, service.GenreForm, int64]{
		s:        s,
		res:      c.Genres,
		singular: "genre",
		plural:   "genres",
		label:    "Genre",
		empty:    "There are no genres available.",
		parseKey: parseInt64Key,
		keyOf:    func(g *domain.Genre) int64 { return g.ID },
		row: func(g *domain.Genre) listItem {
			return listItem{URL: "/genre/" + strconv.FormatInt(g.ID, 10), Text: g.Name}
		},
		formOf: func(g *domain.Genre) service.GenreForm { return service.GenreForm{Name: g.Name} },
		fields: func(_ context.Context, f service.GenreForm) ([]formField, error) {
			name := textField("name", "Name", f.Name, true)
			name.Help = "Enter a book genre (e.g. Science Fiction, French Poetry etc.)"
			return []formField{name}, nil
		},
		detailPage: "genre_detail.html",
		detail: func(ctx context.Context, key int64) (any, error) {
			return c.GenreDetail(ctx, key)
		},
	}
}

func (s *Server) languagePages(c *service.Catalog) *crudPages[domain.Language, service.LanguageForm, int64] {
	return &crudPages[domain.Language, service.LanguageForm, int64]{
		s:        s,
		res:      c.Languages,
		singular: "language",
		plural:   "languages",
		label:    "Language",
		empty:    "There are no languages available.",
		parseKey: parseInt64Key,
		keyOf:    func(l *domain.Language) int64 { return l.ID },
		row: func(l *domain.Language) listItem {
			return listItem{URL: "/language/" + strconv.FormatInt(l.ID, 10), Text: l.Name}
		},
		formOf: func(l *domain.Language) service.LanguageForm { return service.LanguageForm{Name: l.Name} },
		fields: func(_ context.Context, f service.LanguageForm) ([]formField, error) {
			name := textField("name", "Name", f.Name, true)
			name.Help = "Enter the book's natural language (e.g. English, French, Japanese etc.)"
			return []formField{name}, nil
		},
		detailPage: "simple_detail.html",
		detail: func(ctx context.Context, key int64) (any, error) {
			l, err := c.Languages.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			base := "/language/" + strconv.FormatInt(l.ID, 10)
			return simpleDetail{
				Heading:   "Language: " + l.Name,
				EditURL:   base + "/update",
				DeleteURL: base + "/delete",
			}, nil
		},
	}
}

func (s *Server) statusPages(c *service.Catalog) *crudPages[domain.Status, service.StatusForm, int64] {
	return &crudPages[domain.Status, service.StatusForm, int64]{
		s:        s,
		res:      c.Statuses,
		singular: "status",
		plural:   "statuses",
		label:    "Status",
		empty:    "There are no statuses available.",
		parseKey: parseInt64Key,
		keyOf:    func(st *domain.Status) int64 { return st.ID },
		row: func(st *domain.Status) listItem {
			return listItem{URL: "/status/" + strconv.FormatInt(st.ID, 10), Text: st.Name, Extra: st.ExtraInfo}
		},
		formOf: func(st *domain.Status) service.StatusForm {
			return service.StatusForm{Name: st.Name, ExtraInfo: st.ExtraInfo}
		},
		fields: func(_ context.Context, f service.StatusForm) ([]formField, error) {
			return []formField{
				textField("name", "Name", f.Name, true),
				textareaField("extra_info", "Extra info", f.ExtraInfo, false),
			}, nil
		},
		detailPage: "simple_detail.html",
		detail: func(ctx context.Context, key int64) (any, error) {
			st, err := c.Statuses.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			base := "/status/" + strconv.FormatInt(st.ID, 10)
			d := simpleDetail{
				Heading:   "Status: " + st.Name,
				EditURL:   base + "/update",
				DeleteURL: base + "/delete",
			}
			if st.ExtraInfo != "" {
				d.Rows = append(d.Rows, detailRow{Label: "Extra info", Value: st.ExtraInfo})
			}
			return d, nil
		},
	}
}

func (s *Server) instancePages(c *service.Catalog) *crudPages[domain.BookInstance, service.InstanceForm, string] {
	return &crudPages[domain.BookInstance, service.InstanceForm, string]{
		s:        s,
		res:      c.Instances,
		singular: "bookinstance",
		plural:   "bookinstances",
		label:    "Book Instance",
		empty:    "There are no book copies in the library.",
		parseKey: id.ParseInstanceID,
		keyOf:    func(bi *domain.BookInstance) string { return bi.ID },
		row: func(bi *domain.BookInstance) listItem {
			item := listItem{URL: "/bookinstance/" + bi.ID, Text: bi.Label(), Extra: bi.StatusName()}
			if bi.DueBack != nil {
				item.Extra += " (due " + domain.FormatDate(bi.DueBack) + ")"
				item.Overdue = bi.IsOverdue(c.Today())
			}
			return item
		},
		formOf: func(bi *domain.BookInstance) service.InstanceForm {
			return service.InstanceForm{
				BookID:     deref(bi.BookID),
				LanguageID: deref(bi.LanguageID),
				Imprint:    bi.Imprint,
				StatusID:   deref(bi.StatusID),
				BorrowerID: bi.BorrowerID,
				DueBack:    domain.FormatDate(bi.DueBack),
			}
		},
		fields: func(ctx context.Context, f service.InstanceForm) ([]formField, error) {
			ch, err := c.Choices(ctx)
			if err != nil {
				return nil, err
			}
			books := make([]option, 0, len(ch.Books))
			for _, b := range ch.Books {
				books = append(books, option{Value: idString(b.ID), Label: b.Title})
			}
			statuses := make([]option, 0, len(ch.Statuses))
			for _, st := range ch.Statuses {
				statuses = append(statuses, option{Value: idString(st.ID), Label: st.Name})
			}
			users := make([]option, 0, len(ch.Users))
			for _, u := range ch.Users {
				users = append(users, option{Value: u.ID, Label: u.Username})
			}
			return []formField{
				selectField("book", "Book", idString(f.BookID), books, true),
				selectField("language", "Language", idString(f.LanguageID), languageOptions(ch.Languages), true),
				textField("imprint", "Imprint", f.Imprint, true),
				selectField("status", "Status", idString(f.StatusID), statuses, false),
				selectField("borrower", "Borrower", f.BorrowerID, users, false),
				dateField("due_back", "Due back", f.DueBack),
			}, nil
		},
		detailPage: "instance_detail.html",
		detail: func(ctx context.Context, key string) (any, error) {
			bi, err := c.Instances.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			return instanceDetailPage{
				Instance: bi,
				Today:    c.Today(),
				OnLoan:   bi.Status.Kind() == domain.StatusOnLoan,
			}, nil
		},
	}
}

func languageOptions(langs []domain.Language) []option {
	out := make([]option, 0, len(langs))
	for _, l := range langs {
		out = append(out, option{Value: idString(l.ID), Label: l.Name})
	}
	return out
}
