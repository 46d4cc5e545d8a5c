package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hoyack/gemsieve/internal/domain"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.TableStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStatsGemsByType(w http.ResponseWriter, r *http.Request) {
	gems, err := s.store.ListGems(r.Context(), "", "", 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	counts := map[domain.GemType]int{}
	for _, g := range gems {
		counts[g.GemType]++
	}
	respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStatsGemsTop(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, "invalid n")
		return
	}
	gems, err := s.store.ListGems(r.Context(), "", "", n)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, gems)
}

func (s *Server) handleStatsByIndustry(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.AllSenderProfiles(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	counts := map[string]int{}
	for _, p := range profiles {
		key := p.Industry
		if key == "" {
			key = "unknown"
		}
		counts[key]++
	}
	respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStatsByESP(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.AllSenderProfiles(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	counts := map[string]int{}
	for _, p := range profiles {
		key := p.ESPUsed
		if key == "" {
			key = "unknown"
		}
		counts[key]++
	}
	respondJSON(w, http.StatusOK, counts)
}

func (s *Server) handleStatsPipelineActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	runs, err := s.store.RecentRuns(r.Context(), "", limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, runs)
}
