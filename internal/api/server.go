// Package api exposes the candidate-search pipeline over HTTP.
//
// The server is a thin layer over pipeline.Runner and report.Store: scans
// submitted via POST are executed through the shared pipeline (including
// its cache) and the resulting runs are persisted for later retrieval.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/pipeline"
	"github.com/hwseclab/regscan/pkg/report"
)

// maxScanBody bounds the size of an uploaded netlist.
const maxScanBody = 16 << 20

// Server routes HTTP requests to the scan pipeline and the run store.
type Server struct {
	runner *pipeline.Runner
	store  report.Store
	logger *log.Logger
	router chi.Router
}

// NewServer creates a server. A nil store falls back to an in-memory
// store; a nil logger falls back to the default logger.
func NewServer(runner *pipeline.Runner, store report.Store, logger *log.Logger) *Server {
	if store == nil {
		store = report.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  store,
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scan", s.handleScan)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// writeJSON encodes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// errorResponse is the JSON shape of all error replies.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// writeError maps an error to an HTTP status via its code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  code,
	})
}

func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidNetlist,
		errors.ErrCodeInvalidLibrary,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig,
		errors.ErrCodeNilNetlist,
		errors.ErrCodeEmptyNetlist:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound,
		errors.ErrCodeFileNotFound,
		errors.ErrCodeRunNotFound,
		errors.ErrCodeGateNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
