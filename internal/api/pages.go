package api

import (
	"bytes"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/id"
	"github.com/NickLinnik/LocalLibrary/internal/report"
	"github.com/NickLinnik/LocalLibrary/internal/service"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

type homePage struct {
	Counters    store.Counters
	CounterWord string
	Visits      int
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := s.services.Catalog

	counters, err := c.Counters(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	visits := 0
	if sid := sessionID(ctx); sid != "" {
		visits, err = s.services.Auth.CountVisit(ctx, sid)
		if err != nil {
			s.logger.Error("Failed to count visit", "session_id", sid, "error", err)
		}
	}

	s.render(w, r, http.StatusOK, "home.html", "Local Library", homePage{
		Counters:    counters,
		CounterWord: c.CounterWord(),
		Visits:      visits,
	})
}

type loginPage struct {
	Username string
	Next     string
	Error    string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", "Login", loginPage{Next: r.URL.Query().Get("next")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	var form service.LoginForm
	next := r.PostForm.Get("next")
	if errs := decodeForm(r.PostForm, &form); errs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", "Login",
			loginPage{Username: form.Username, Next: next, Error: "Please enter your username and password."})
		return
	}

	st, user, err := s.services.Auth.Login(ctx, form, clientIP(r), sessionID(ctx))
	if err != nil {
		code := domainerrors.CodeOf(err)
		msg := errorMessage(err)
		switch code {
		case domainerrors.CodeInvalidCredentials, domainerrors.CodeRateLimited:
		case domainerrors.CodeValidation:
			msg = "Please enter your username and password."
		default:
			s.renderError(w, r, err)
			return
		}
		s.render(w, r, code.HTTPStatus(), "login.html", "Login", loginPage{Username: form.Username, Next: next, Error: msg})
		return
	}

	s.setSessionCookie(w, st)
	s.logger.Debug("login page success", "user_id", user.ID)
	http.Redirect(w, r, safeNext(next), http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Auth.Logout(r.Context(), sessionID(r.Context())); err != nil {
		s.logger.Error("Failed to end session", "error", err)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// clientIP is the caller address with any port removed. RealIP has already
// replaced RemoteAddr with a forwarded address when one was sent.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) handlePrintBooks(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.services.Catalog.ExportBooks(r.Context(), &buf); err != nil {
		s.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="books.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleUpdateSummaries(w http.ResponseWriter, r *http.Request) {
	n, err := s.services.Catalog.UpdateSummaries(r.Context(), currentUser(r.Context()))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.logger.Debug("summaries updated from page", "books", n)
	http.Redirect(w, r, "/books", http.StatusFound)
}

// instanceKey parses an instance UUID from the URL. Malformed ids are
// treated as missing.
func instanceKey(r *http.Request) (string, error) {
	key, err := id.ParseInstanceID(chi.URLParam(r, "id"))
	if err != nil {
		return "", domainerrors.NotFoundf("book instance not found")
	}
	return key, nil
}

func (s *Server) renewPage(bi *domain.BookInstance, date string, errs domainerrors.FieldErrors) formPage {
	field := dateField(domain.RenewalField, "Renewal date", date)
	field.Required = true
	field.Help = "Enter a date between now and 4 weeks (default 3)."
	fields, formErr := withErrors([]formField{field}, errs)
	return formPage{
		Heading: "Renew: " + bi.BookTitle,
		Action:  "/book/" + bi.ID + "/renew",
		Submit:  "Renew",
		Cancel:  "/bookinstance/" + bi.ID,
		Fields:  fields,
		Error:   formErr,
	}
}

func (s *Server) handleRenewForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := s.services.Catalog
	if err := c.Instances.Authorize(currentUser(ctx)); err != nil {
		s.renderError(w, r, err)
		return
	}
	key, err := instanceKey(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	bi, err := c.Instances.Get(ctx, key)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	proposed := c.ProposedRenewal().Format(domain.DateLayout)
	page := s.renewPage(bi, proposed, nil)
	s.render(w, r, http.StatusOK, "form.html", page.Heading, page)
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := s.services.Catalog
	user := currentUser(ctx)
	if err := c.Instances.Authorize(user); err != nil {
		s.renderError(w, r, err)
		return
	}
	key, err := instanceKey(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	var form service.RenewForm
	errs := decodeForm(r.PostForm, &form)
	if errs == nil {
		_, err = c.Renew(ctx, user, key, form)
		if err == nil {
			http.Redirect(w, r, "/borrowed", http.StatusFound)
			return
		}
		if errs = formErrors(err); errs == nil {
			s.renderError(w, r, err)
			return
		}
	}

	bi, err := c.Instances.Get(ctx, key)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	page := s.renewPage(bi, form.RenewalDate, errs)
	s.render(w, r, http.StatusUnprocessableEntity, "form.html", page.Heading, page)
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, err := instanceKey(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	bi, err := s.services.Catalog.MarkReturned(ctx, currentUser(ctx), key)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/bookinstance/"+bi.ID, http.StatusFound)
}

type loanRow struct {
	Instance domain.BookInstance
	Overdue  bool
}

type loansPage struct {
	Heading string
	Empty   string
	Items   []loanRow
	Pager   pager
	// Staff lists show the borrower and a renew link.
	Staff bool
}

func (s *Server) renderLoans(w http.ResponseWriter, r *http.Request, page loansPage, res store.PageResult[domain.BookInstance]) {
	today := s.services.Catalog.Today()
	page.Items = make([]loanRow, 0, len(res.Items))
	for _, bi := range res.Items {
		page.Items = append(page.Items, loanRow{Instance: bi, Overdue: bi.IsOverdue(today)})
	}
	page.Pager = newPager(res, r)
	s.render(w, r, http.StatusOK, "loans.html", page.Heading, page)
}

func (s *Server) handleMyLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.services.Catalog.MyLoans(ctx, currentUser(ctx), pageNumber(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.renderLoans(w, r, loansPage{
		Heading: "Borrowed books",
		Empty:   "There are no books borrowed.",
	}, res)
}

func (s *Server) handleBorrowed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.services.Catalog.Borrowed(ctx, currentUser(ctx), pageNumber(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.renderLoans(w, r, loansPage{
		Heading: "All borrowed books",
		Empty:   "There are no books borrowed.",
		Staff:   true,
	}, res)
}

type logsPage struct {
	Items []domain.Log
	Pager pager
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.services.Catalog.Logs(ctx, currentUser(ctx), pageNumber(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "logs.html", "Logs", logsPage{Items: res.Items, Pager: newPager(res, r)})
}

type reportsPage struct {
	*report.Set
	GeneratedAt time.Time
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	set, err := s.services.Catalog.Reports(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "reports.html", "Reports", reportsPage{Set: set, GeneratedAt: time.Now()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	res, err := s.services.Catalog.Search(r.Context(), q, pageNumber(r))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	page := listPage{
		Heading: "Search",
		Empty:   "No books match your search.",
		Query:   q,
		Pager:   newPager(res, r),
	}
	if q == "" {
		page.Empty = "Enter a title, author, genre or phrase from a summary."
	}
	page.Items = make([]listItem, 0, len(res.Items))
	for _, b := range res.Items {
		item := listItem{URL: "/book/" + strconv.FormatInt(b.ID, 10), Text: b.Title}
		if b.Author != nil {
			item.Extra = b.Author.String()
		}
		page.Items = append(page.Items, item)
	}
	s.render(w, r, http.StatusOK, "list.html", page.Heading, page)
}
