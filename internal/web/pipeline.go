package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hoyack/gemsieve/internal/domain"
)

// handleRunStage starts one stage (or, for the literal path segment "all",
// the full §4.10 sweep) and returns immediately. A single stage returns its
// run id; "all" has no single run id, since it spans one row per stage.
func (s *Server) handleRunStage(w http.ResponseWriter, r *http.Request) {
	if s.orch == nil {
		respondError(w, http.StatusServiceUnavailable, "pipeline orchestrator not configured")
		return
	}
	stageParam := chi.URLParam(r, "stage")

	if stageParam == "all" {
		s.orch.RunAllAsync(r.Context(), domain.TriggeredByWeb)
		respondJSON(w, http.StatusAccepted, map[string]interface{}{"stage": "all", "started": true})
		return
	}

	stage := domain.StageName(stageParam)
	runID, err := s.orch.StartStageAsync(stage, domain.TriggeredByWeb)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"run_id": runID, "stage": stage})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID, err := strconv.ParseInt(chi.URLParam(r, "run_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid run_id")
		return
	}
	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	stage := domain.StageName(r.URL.Query().Get("stage"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	runs, err := s.store.RecentRuns(r.Context(), stage, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"stages": []domain.StageName{
			domain.StageIngest, domain.StageMetadata, domain.StageContent,
			domain.StageEntities, domain.StageClassify, domain.StageProfile,
			domain.StageSegment, domain.StageEngage,
		},
	})
}
