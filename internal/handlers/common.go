package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lehigh-university-libraries/pdcheck/internal/analyzer"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

// Analyzer is the part of the orchestrator the HTTP layer needs
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (analyzer.Result, error)
	Unknown(req analyzer.Request, err error) analyzer.Result
}

// WorkReader is the read side of the work store
type WorkReader interface {
	Get(ctx context.Context, id string) (*models.StoredWorkRecord, error)
	FindByKey(ctx context.Context, contentKey string) (*models.StoredWorkRecord, error)
	List(ctx context.Context) ([]models.StoredWorkRecord, error)
}

type Handler struct {
	analyzer Analyzer
	works    WorkReader
}

// New creates a handler. works may be nil when results are not persisted.
func New(a Analyzer, works WorkReader) *Handler {
	return &Handler{
		analyzer: a,
		works:    works,
	}
}

// Routes mounts the API on a chi router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "error", err)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Get("/works", h.HandleWorks)
		r.Get("/works/{key}", h.HandleWorkDetail)
	})

	return r
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "status", code)
	}
	http.Error(w, message, code)
}
