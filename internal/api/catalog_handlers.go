package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NickLinnik/LocalLibrary/internal/domain"
	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/id"
	"github.com/NickLinnik/LocalLibrary/internal/service"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

func (s *Server) registerAPIRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Description: "Exchanges a username and password for a session token",
		Tags:        []string{"Auth"},
	}, s.handleAPILogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCounters",
		Method:      http.MethodGet,
		Path:        "/api/v1/counters",
		Summary:     "Catalog counters",
		Description: "Returns the record counts shown on the home page",
		Tags:        []string{"Catalog"},
	}, s.handleGetCounters)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReport",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/{name}",
		Summary:     "Get report",
		Description: "Computes one catalog report",
		Tags:        []string{"Reports"},
	}, s.handleGetReport)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a page of books ordered by title",
		Tags:        []string{"Catalog"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAuthors",
		Method:      http.MethodGet,
		Path:        "/api/v1/authors",
		Summary:     "List authors",
		Description: "Returns a page of authors, optionally filtered by birth date",
		Tags:        []string{"Catalog"},
	}, s.handleListAuthors)

	huma.Register(s.api, huma.Operation{
		OperationID: "renewInstance",
		Method:      http.MethodPost,
		Path:        "/api/v1/instances/{id}/renew",
		Summary:     "Renew a loan",
		Description: "Moves a copy's due date to a day between today and four weeks ahead",
		Tags:        []string{"Loans"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRenewInstance)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSummaries",
		Method:      http.MethodPost,
		Path:        "/api/v1/maintenance/update-summary",
		Summary:     "Mark most-genre summaries",
		Description: "Appends the most-genres suffix to the summaries of qualifying books",
		Tags:        []string{"Maintenance"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAPIUpdateSummaries)
}

// === DTOs ===

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Username string `json:"username" minLength:"1" maxLength:"150" doc:"Username"`
	Password string `json:"password" minLength:"1" maxLength:"1024" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// UserResponse describes the logged-in account.
type UserResponse struct {
	ID       string      `json:"id" doc:"User ID"`
	Username string      `json:"username" doc:"Username"`
	Role     domain.Role `json:"role" doc:"librarian or member"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token     string       `json:"token" doc:"Bearer token for later requests"`
	ExpiresAt time.Time    `json:"expires_at" doc:"When the token stops working"`
	User      UserResponse `json:"user" doc:"The logged-in user"`
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body LoginResponse
}

// CountersResponse contains the home page counters.
type CountersResponse struct {
	store.Counters
	CounterWord string `json:"counter_word" doc:"Word counted in book titles"`
}

// CountersOutput wraps the counters response for Huma.
type CountersOutput struct {
	Body CountersResponse
}

// GetReportInput contains parameters for getting a report.
type GetReportInput struct {
	Name string `path:"name" enum:"prolific-authors,extremal-authors,loan-counts,top-loaned-books,books-without-instances,most-genres" doc:"Report name"`
}

// ReportResponse contains one computed report.
type ReportResponse struct {
	Name string `json:"name" doc:"Report name"`
	Rows any    `json:"rows" doc:"Report rows"`
}

// ReportOutput wraps the report response for Huma.
type ReportOutput struct {
	Body ReportResponse
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Query string `query:"q" maxLength:"200" doc:"Case-insensitive title filter"`
	Page  int    `query:"page" default:"1" minimum:"1" doc:"Page number"`
}

// PageInfo describes where a page sits in the full list.
type PageInfo struct {
	Page     int `json:"page" doc:"Page number"`
	PageSize int `json:"page_size" doc:"Items per page"`
	Total    int `json:"total" doc:"Total matching items"`
	NumPages int `json:"num_pages" doc:"Number of pages"`
}

func pageInfo[T any](res store.PageResult[T]) PageInfo {
	return PageInfo{Page: res.Number, PageSize: res.Size, Total: res.Total, NumPages: res.NumPages()}
}

// BookListResponse contains a page of books.
type BookListResponse struct {
	Books []domain.Book `json:"books" doc:"Books on this page"`
	PageInfo
}

// BookListOutput wraps the book list for Huma.
type BookListOutput struct {
	Body BookListResponse
}

// ListAuthorsInput contains parameters for listing authors.
type ListAuthorsInput struct {
	Query string `query:"q" maxLength:"200" doc:"Case-insensitive name filter"`
	Date1 string `query:"date1" doc:"Earliest birth date, YYYY-MM-DD"`
	Date2 string `query:"date2" doc:"Latest birth date, YYYY-MM-DD"`
	Page  int    `query:"page" default:"1" minimum:"1" doc:"Page number"`
}

// AuthorListResponse contains a page of authors.
type AuthorListResponse struct {
	Authors []domain.Author `json:"authors" doc:"Authors on this page"`
	PageInfo
}

// AuthorListOutput wraps the author list for Huma.
type AuthorListOutput struct {
	Body AuthorListResponse
}

// RenewRequest is the request body for renewing a loan.
type RenewRequest struct {
	RenewalDate string `json:"renewal_date" doc:"New due date, YYYY-MM-DD"`
}

// RenewInput wraps the renew request for Huma.
type RenewInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book instance ID"`
	Body          RenewRequest
}

// InstanceOutput wraps a book instance for Huma.
type InstanceOutput struct {
	Body *domain.BookInstance
}

// UpdateSummariesInput contains parameters for the summary update.
type UpdateSummariesInput struct {
	Authorization string `header:"Authorization"`
}

// UpdateSummariesResponse reports how many books changed.
type UpdateSummariesResponse struct {
	Updated int `json:"updated" doc:"Number of summaries changed"`
}

// UpdateSummariesOutput wraps the summary update result for Huma.
type UpdateSummariesOutput struct {
	Body UpdateSummariesResponse
}

// === Handlers ===

func (s *Server) handleAPILogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	form := service.LoginForm{Username: input.Body.Username, Password: input.Body.Password}
	st, user, err := s.services.Auth.Login(ctx, form, clientIPFrom(ctx), "")
	if err != nil {
		return nil, apiError(err)
	}

	return &LoginOutput{
		Body: LoginResponse{
			Token:     st.Token,
			ExpiresAt: st.Session.ExpiresAt,
			User: UserResponse{
				ID:       user.ID,
				Username: user.Username,
				Role:     user.Role,
			},
		},
	}, nil
}

func (s *Server) handleGetCounters(ctx context.Context, _ *struct{}) (*CountersOutput, error) {
	c := s.services.Catalog
	counters, err := c.Counters(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &CountersOutput{Body: CountersResponse{Counters: counters, CounterWord: c.CounterWord()}}, nil
}

func (s *Server) handleGetReport(ctx context.Context, input *GetReportInput) (*ReportOutput, error) {
	set, err := s.services.Catalog.Reports(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	rows, ok := set.Get(input.Name)
	if !ok {
		return nil, apiError(domainerrors.NotFoundf("report %q not found", input.Name))
	}
	return &ReportOutput{Body: ReportResponse{Name: input.Name, Rows: rows}}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	res, err := s.services.Catalog.Books.List(ctx, store.ListParams{Query: input.Query}, input.Page)
	if err != nil {
		return nil, apiError(err)
	}
	return &BookListOutput{Body: BookListResponse{Books: res.Items, PageInfo: pageInfo(res)}}, nil
}

func (s *Server) handleListAuthors(ctx context.Context, input *ListAuthorsInput) (*AuthorListOutput, error) {
	params := store.ListParams{Query: input.Query}
	if from, err := domain.ParseOptionalDate(input.Date1); err == nil {
		params.BornFrom = from
	}
	if to, err := domain.ParseOptionalDate(input.Date2); err == nil {
		params.BornTo = to
	}

	res, err := s.services.Catalog.Authors.List(ctx, params, input.Page)
	if err != nil {
		return nil, apiError(err)
	}
	return &AuthorListOutput{Body: AuthorListResponse{Authors: res.Items, PageInfo: pageInfo(res)}}, nil
}

func (s *Server) handleRenewInstance(ctx context.Context, input *RenewInput) (*InstanceOutput, error) {
	user := currentUser(ctx)
	if user == nil {
		return nil, apiError(domainerrors.Unauthorized("authentication required"))
	}
	key, err := id.ParseInstanceID(input.ID)
	if err != nil {
		return nil, apiError(domainerrors.NotFound("book instance not found"))
	}

	bi, err := s.services.Catalog.Renew(ctx, user, key, service.RenewForm{RenewalDate: input.Body.RenewalDate})
	if err != nil {
		return nil, apiError(err)
	}
	return &InstanceOutput{Body: bi}, nil
}

func (s *Server) handleAPIUpdateSummaries(ctx context.Context, _ *UpdateSummariesInput) (*UpdateSummariesOutput, error) {
	user := currentUser(ctx)
	if user == nil {
		return nil, apiError(domainerrors.Unauthorized("authentication required"))
	}
	n, err := s.services.Catalog.UpdateSummaries(ctx, user)
	if err != nil {
		return nil, apiError(err)
	}
	return &UpdateSummariesOutput{Body: UpdateSummariesResponse{Updated: n}}, nil
}
