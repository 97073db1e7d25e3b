package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter presents build errors to HTTP clients (the preview server).
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter. A nil logger uses slog.Default.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPError is one entry of an error response.
type HTTPError struct {
	Error    string         `json:"error"`
	Code     string         `json:"code,omitempty"`
	Location string         `json:"location,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// HTTPErrorResponse is the JSON payload written for failed builds.
type HTTPErrorResponse struct {
	Errors []HTTPError `json:"errors"`
}

// StatusCodeFor maps an error to an HTTP status.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetCategory(err) {
	case CategoryValidation, CategoryConfig:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryParse, CategoryLinkIntegrity, CategoryBuild:
		return http.StatusUnprocessableEntity
	case CategoryEvents, CategoryHistory, CategoryRuntime:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FormatErrorResponse converts errors into the canonical payload.
func (a *HTTPErrorAdapter) FormatErrorResponse(errs ...error) HTTPErrorResponse {
	resp := HTTPErrorResponse{Errors: make([]HTTPError, 0, len(errs))}
	for _, err := range errs {
		if err == nil {
			continue
		}
		c, ok := AsClassified(err)
		if !ok {
			resp.Errors = append(resp.Errors, HTTPError{Error: err.Error()})
			continue
		}
		entry := HTTPError{Error: c.Message(), Code: string(c.Category()), Location: c.Location()}
		if len(c.Context()) > 0 {
			entry.Details = map[string]any(c.Context())
		}
		resp.Errors = append(resp.Errors, entry)
	}
	return resp
}

// WriteErrorResponse writes a JSON error response for errs. The status is taken
// from the first error.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, errs ...error) {
	if len(errs) == 0 || errs[0] == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	status := a.StatusCodeFor(errs[0])
	b, err := json.Marshal(a.FormatErrorResponse(errs...))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"error":"internal error"}]}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)

	a.logger.DebugContext(r.Context(), "Served build errors", "count", len(errs), "status", status)
}
