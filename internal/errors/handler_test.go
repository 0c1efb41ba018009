package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() *ErrorHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewErrorHandler(logger, false)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleErrorAPIError(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)

	h.HandleError(rec, req, ErrDatasetNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	body := decodeProblem(t, rec)
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "DATASET_NOT_FOUND", body["error_code"])
	assert.Equal(t, "/api/dashboard", body["instance"])
}

func TestHandleErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", ErrValidation("threshold", "out of range"), http.StatusBadRequest, TypeValidation},
		{"unsupported format", UnsupportedFormatError(".pdf"), http.StatusUnsupportedMediaType, TypeUnsupportedFormat},
		{"load failed", ErrDatasetLoad(fmt.Errorf("bad header")), http.StatusUnprocessableEntity, TypeDatasetLoadFailed},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"parsing app error", NewParsingError("malformed row", nil), http.StatusUnprocessableEntity, TypeDatasetLoadFailed},
		{"not found app error", NewNotFoundError("dataset"), http.StatusNotFound, TypeNotFound},
		{"context deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"unknown error", fmt.Errorf("disk exploded"), http.StatusInternalServerError, TypeInternal},
	}

	h := testHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
		})
	}
}

func TestHandleErrorHidesInternalDetail(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	h.HandleError(rec, req, fmt.Errorf("password=hunter2 leaked"))

	body := decodeProblem(t, rec)
	assert.NotContains(t, body["detail"], "hunter2")
}

func TestWrappedAPIErrorStillMaps(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	h.HandleError(rec, req, fmt.Errorf("loading dataset: %w", ErrDatasetNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := testHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decodeProblem(t, rec)
	assert.Contains(t, body["detail"], "DELETE")
}

func TestHandlePanic(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

	h.HandlePanic(rec, req, "boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, rec.Body.String(), "boom", "panic values stay out of responses without includeStack")
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad input", "/api/x").
		WithExtension("error_code", "VALIDATION_FAILED")

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewParsingError("failed to parse", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PARSING")
	assert.Contains(t, err.Error(), "root cause")
}
