package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

func (h *Handler) HandleWorks(w http.ResponseWriter, r *http.Request) {
	if h.works == nil {
		h.writeError(w, "Work store not configured", http.StatusNotFound)
		return
	}

	works, err := h.works.List(r.Context())
	if err != nil {
		h.writeError(w, "Failed to list works: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if works == nil {
		works = []models.StoredWorkRecord{}
	}
	h.writeJSON(w, works)
}

// HandleWorkDetail looks a work up by record ID, then by content key
func (h *Handler) HandleWorkDetail(w http.ResponseWriter, r *http.Request) {
	if h.works == nil {
		h.writeError(w, "Work store not configured", http.StatusNotFound)
		return
	}

	key := chi.URLParam(r, "key")
	rec, err := h.works.Get(r.Context(), key)
	if err == nil && rec == nil {
		rec, err = h.works.FindByKey(r.Context(), key)
	}
	if err != nil {
		h.writeError(w, "Failed to load work: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		h.writeError(w, "Work not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, rec)
}
