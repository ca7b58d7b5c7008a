package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	JSON(w, http.StatusOK, map[string]string{"message": "test"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	out := decode(t, w)
	assert.Equal(t, float64(Version), out["v"])
	assert.Equal(t, true, out["success"])
	assert.NotNil(t, out["data"])
	assert.NotContains(t, out, "error")
}

func TestJSON_ErrorStatus(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNotFound, map[string]string{"message": "test"}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"], "success should be false for status >= 400")
	assert.NotNil(t, out["data"])
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone", nil) }, http.StatusNotFound, "NOT_FOUND"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "boom", nil) }, http.StatusInternalServerError, "INTERNAL"},
		{"conflict", func(w http.ResponseWriter) { Error(w, http.StatusConflict, "taken", nil) }, http.StatusConflict, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			out := decode(t, w)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tt.code, out["code"])
			assert.Equal(t, out["error"], out["message"])
		})
	}
}

func TestHandleError_DomainError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainerrors.FieldInvalid("isbn", "already in use")

	HandleError(w, err, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	out := decode(t, w)
	assert.Equal(t, "VALIDATION", out["code"])
	assert.Equal(t, map[string]any{"isbn": "already in use"}, out["details"])
}

func TestHandleError_Wrapped(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.Join(errors.New("context"), domainerrors.NotFound("book not found"))

	HandleError(w, err, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "book not found", decode(t, w)["message"])
}

func TestHandleError_Unknown(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("disk on fire"), slog.New(slog.DiscardHandler))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := decode(t, w)
	assert.Equal(t, "internal server error", out["error"])
	assert.NotContains(t, w.Body.String(), "disk on fire")
}
