package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/pdcheck/internal/analyzer"
	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
)

// maxBodyBytes bounds analyze request bodies
const maxBodyBytes = 64 << 10

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzer.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req)
	switch {
	case err == nil:
		h.writeJSON(w, result)
	case errors.Is(err, copyright.ErrInvalidInput), errors.Is(err, copyright.ErrConfiguration):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, reconcile.ErrNoCandidates):
		// nothing matched anywhere: an Unknown verdict, not a failure
		h.writeJSON(w, h.analyzer.Unknown(req, err))
	case errors.Is(err, context.Canceled):
		slog.Debug("Client went away", "title", req.Title)
	default:
		h.writeError(w, "Analysis failed: "+err.Error(), http.StatusInternalServerError)
	}
}
