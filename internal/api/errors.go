package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
	"github.com/NickLinnik/LocalLibrary/internal/http/response"
	"github.com/NickLinnik/LocalLibrary/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Field errors or other details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			if errors.Is(err, store.ErrNotFound) {
				return &APIError{
					status:  http.StatusNotFound,
					Code:    string(domainerrors.CodeNotFound),
					Message: "not found",
				}
			}
		}

		// Huma's own request validation reports 422 with per-location errors.
		var details any
		if status == http.StatusUnprocessableEntity && len(errs) > 0 {
			fields := make(domainerrors.FieldErrors, len(errs))
			for _, err := range errs {
				var detail *huma.ErrorDetail
				if errors.As(err, &detail) {
					fields[detail.Location] = detail.Message
				}
			}
			if len(fields) > 0 {
				details = fields
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
			Details: details,
		}
	}
}

// apiError converts a service error into a huma status error so the
// response carries the domain status. Other errors pass through and become
// a 500.
func apiError(err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return huma.NewError(domainErr.HTTPStatus(), domainErr.Message, err)
	}
	return err
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	default:
		return string(domainerrors.CodeInternal)
	}
}

// EnvelopeTransformer wraps every huma response body in the shared
// response envelope. Errors keep their code, message and details.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if _, ok := v.(response.Envelope); ok {
		return v, nil
	}

	code, _ := strconv.Atoi(status)
	if apiErr, ok := v.(*APIError); ok {
		errCode := apiErr.Code
		if errCode == "" {
			errCode = statusToCode(code)
		}
		return response.Failure(errCode, apiErr.Message, apiErr.Details), nil
	}
	if code >= http.StatusBadRequest {
		if model, ok := v.(*huma.ErrorModel); ok {
			return response.Failure(statusToCode(code), model.Detail, nil), nil
		}
	}
	return response.Wrap(v), nil
}
