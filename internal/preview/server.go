package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/eventstore"
	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
)

const (
	StatusPath  = "/_pagebuilder/status"
	ErrorsPath  = "/_pagebuilder/errors"
	HistoryPath = "/_pagebuilder/history"
)

// ServerOptions configures the preview HTTP server.
type ServerOptions struct {
	OutputDir string
	State     *State

	// History is optional; the history endpoint answers 404 without it.
	History *eventstore.HistoryProjection

	// Registry is optional; metrics are served on MetricsPath when set.
	Registry    *prometheus.Registry
	MetricsPath string

	Logger *slog.Logger
}

// Server is the HTTP server for the built site.
type Server struct {
	router chi.Router
	opts   ServerOptions
	log    *slog.Logger
	errs   *errors.HTTPErrorAdapter
}

// NewServer creates and configures the HTTP server.
func NewServer(opts ServerOptions) *Server {
	if opts.State == nil {
		opts.State = NewState()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{opts: opts, log: log, errs: errors.NewHTTPErrorAdapter(log)}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get(StatusPath, s.handleStatus)
	r.Get(ErrorsPath, s.handleErrors)
	r.Get(HistoryPath, s.handleHistory)
	r.Get(HistoryPath+"/{batchID}", s.handleBatch)
	if s.opts.Registry != nil {
		path := s.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.HTTPHandler(s.opts.Registry))
	}
	r.Handle("/*", http.FileServer(http.Dir(s.opts.OutputDir)))

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Status    string                    `json:"status"`
	Building  bool                      `json:"building"`
	BatchID   string                    `json:"batch_id,omitempty"`
	Revision  string                    `json:"revision,omitempty"`
	Pages     int                       `json:"pages"`
	Rendered  int                       `json:"rendered"`
	Unchanged int                       `json:"unchanged"`
	Failed    int                       `json:"failed"`
	Assets    int                       `json:"assets"`
	StartedAt *time.Time                `json:"started_at,omitempty"`
	Duration  string                    `json:"duration,omitempty"`
	Summary   string                    `json:"summary,omitempty"`
	Errors    []errors.HTTPError        `json:"errors,omitempty"`
	Warnings  []errors.HTTPError        `json:"warnings,omitempty"`
	Failure   *errors.HTTPErrorResponse `json:"failure,omitempty"`
}

// handleStatus answers 503 until the first batch finishes.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.opts.State.Snapshot()
	resp := statusResponse{Status: "pending", Building: snap.Building}
	if snap.Err != nil {
		failure := s.errs.FormatErrorResponse(snap.Err)
		resp.Failure = &failure
	}
	if snap.Last == nil {
		code := http.StatusServiceUnavailable
		if snap.Err != nil {
			resp.Status = string(build.StatusFailed)
			code = s.errs.StatusCodeFor(snap.Err)
		}
		writeJSON(w, code, resp)
		return
	}

	res := snap.Last
	started := res.StartTime
	resp.Status = string(res.Status)
	resp.BatchID = res.BatchID
	resp.Revision = res.Revision
	resp.Pages = res.Pages
	resp.Rendered = res.Rendered
	resp.Unchanged = res.Unchanged
	resp.Failed = res.Failed
	resp.Assets = res.Assets
	resp.StartedAt = &started
	resp.Duration = res.Duration.String()
	resp.Summary = res.Summary()
	resp.Warnings = s.errs.FormatErrorResponse(res.Warnings()...).Errors
	resp.Errors = s.errs.FormatErrorResponse(res.Failures()...).Errors
	writeJSON(w, http.StatusOK, resp)
}

// handleErrors writes the failing errors of the last batch with a status
// derived from the first one, or 200 when there are none.
func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.State.Snapshot()
	if snap.Err != nil {
		s.errs.WriteErrorResponse(w, r, snap.Err)
		return
	}
	if snap.Last == nil || len(snap.Last.Errors) == 0 {
		writeJSON(w, http.StatusOK, errors.HTTPErrorResponse{Errors: []errors.HTTPError{}})
		return
	}
	s.errs.WriteErrorResponse(w, r, snap.Last.Errors...)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		s.errs.WriteErrorResponse(w, r, errors.NewError(errors.CategoryNotFound, "history is disabled").Build())
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.errs.WriteErrorResponse(w, r, errors.ValidationError("limit must be a positive integer").
				WithContext("limit", raw).Build())
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.opts.History.History(limit))
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		s.errs.WriteErrorResponse(w, r, errors.NewError(errors.CategoryNotFound, "history is disabled").Build())
		return
	}
	id := chi.URLParam(r, "batchID")
	summary, ok := s.opts.History.Batch(id)
	if !ok {
		s.errs.WriteErrorResponse(w, r, errors.NewError(errors.CategoryNotFound, "batch not found").
			WithContext("batch_id", id).Build())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
