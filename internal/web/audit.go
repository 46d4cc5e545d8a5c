package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hoyack/gemsieve/internal/domain"
)

// handleAuditList lists AI audit entries across every run, newest first,
// optionally filtered to one stage (§6.5 "GET /api/ai-audit").
func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stage := domain.StageName(q.Get("stage"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, err := s.store.ListAuditEntries(r.Context(), stage, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// handleAuditDetail fetches one AI audit entry, the full prompt/response
// pair behind one audit-list row (§6.5 "GET /api/ai-audit/{id}").
func (s *Server) handleAuditDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	entry, err := s.store.GetAuditEntry(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entry)
}
