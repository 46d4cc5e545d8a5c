package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/store"
)

// handleGenerateForGem triggers one gem's engagement draft synchronously
// (§6.5 "POST /api/gems/{id}/generate"). Unlike stage runs this blocks on
// the AI call and returns the finished draft, since it's a single item.
func (s *Server) handleGenerateForGem(w http.ResponseWriter, r *http.Request) {
	if s.orch == nil {
		respondError(w, http.StatusServiceUnavailable, "pipeline orchestrator not configured")
		return
	}
	gemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid gem id")
		return
	}

	draft, err := s.orch.GenerateForGem(r.Context(), gemID, domain.TriggeredByWeb)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "gem not found")
			return
		}
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, draft)
}
