package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

//go:embed templates/*.html
var templates embed.FS

// pageData is what every page template receives.
type pageData struct {
	Title   string
	User    *domain.User
	IsStaff bool
	// Path is the current request URI, used for the login link.
	Path    string
	Content any
}

// renderer holds one parsed template set per page, each combined with
// the shared layout.
type renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"date": func(v any) string {
		switch t := v.(type) {
		case *time.Time:
			return domain.FormatDate(t)
		case time.Time:
			if t.IsZero() {
				return ""
			}
			return t.Format(domain.DateLayout)
		default:
			return ""
		}
	},
	"datetime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
}

func newRenderer() (*renderer, error) {
	names, err := fs.Glob(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	r := &renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		page := path.Base(name)
		if page == "base.html" {
			continue
		}
		t, err := template.New(page).Funcs(templateFuncs).ParseFS(templates, "templates/base.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// render executes page into a buffer first so template failures still
// produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, content any) {
	t, ok := s.pages.pages[page]
	if !ok {
		s.logger.Error("Unknown template", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user := currentUser(r.Context())
	data := pageData{
		Title:   title,
		User:    user,
		IsStaff: user.CanManageLoans(),
		Path:    r.URL.RequestURI(),
		Content: content,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		s.logger.Error("Failed to execute template", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// errorPage is the content of error.html.
type errorPage struct {
	Status  int
	Message string
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error.html", http.StatusText(status), errorPage{Status: status, Message: message})
}

// renderError maps a service error onto a page. Anonymous callers are sent
// to the login page instead of being refused.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		s.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		s.renderStatus(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	switch domainErr.Code {
	case domainerrors.CodeUnauthorized:
		http.Redirect(w, r, loginURL(r), http.StatusFound)
	case domainerrors.CodeForbidden:
		if currentUser(r.Context()) == nil {
			http.Redirect(w, r, loginURL(r), http.StatusFound)
			return
		}
		s.renderStatus(w, r, http.StatusForbidden, "You do not have permission to do that.")
	case domainerrors.CodeInternal:
		s.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		s.renderStatus(w, r, http.StatusInternalServerError, "Something went wrong.")
	default:
		s.renderStatus(w, r, domainErr.HTTPStatus(), domainErr.Message)
	}
}

// formErrors extracts what a form can display from err, or nil when err
// is not a user input problem.
func formErrors(err error) domainerrors.FieldErrors {
	if fields := domainerrors.FieldsOf(err); fields != nil {
		return fields
	}
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) && domainErr.Code == domainerrors.CodeInvalidState {
		return domainerrors.FieldErrors{"": domainErr.Message}
	}
	return nil
}

// pageNumber reads ?page=, defaulting to the first page.
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// pager is the paginator shown under lists.
type pager struct {
	Number   int
	NumPages int
	PrevURL  string
	NextURL  string
}

func newPager[T any](res store.PageResult[T], r *http.Request) pager {
	p := pager{Number: res.Number, NumPages: res.NumPages()}
	link := func(n int) string {
		q := url.Values{}
		for k, v := range r.URL.Query() {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(n))
		return "?" + q.Encode()
	}
	if res.HasPrev() {
		p.PrevURL = link(res.Prev())
	}
	if res.HasNext() {
		p.NextURL = link(res.Next())
	}
	return p
}

// errorMessage is the user-facing message of err.
func errorMessage(err error) string {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
