// Package web is gemsieve's read-oriented admin HTTP surface: browse/search
// every persistent table, trigger and watch pipeline runs, inspect AI audit
// entries, and kick off a single gem's engagement draft (§6.5).
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/pipeline"
	"github.com/hoyack/gemsieve/internal/store"
)

// Server wires the store and pipeline orchestrator behind chi's router,
// the same router/middleware shape as the teacher's api.SetupRoutes.
type Server struct {
	store *store.Store
	orch  *pipeline.Orchestrator
	cfg   config.Config
	redis *redis.Client // nil when no events.redis_addr is configured
}

// New builds a Server. orch may be nil for a read-only/export-only
// deployment with no pipeline wiring.
func New(st *store.Store, orch *pipeline.Orchestrator, cfg config.Config) *Server {
	s := &Server{store: st, orch: orch, cfg: cfg}
	if cfg.Events.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.Events.RedisAddr})
	}
	return s
}

// Router builds the chi mux for this server (§6.5).
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/tables", func(r chi.Router) {
			r.Get("/", s.handleListTables)
			r.Get("/{table}", s.handleBrowseTable)
			r.Get("/{table}/{id}", s.handleTableDetail)
		})

		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/run/{stage}", s.handleRunStage)
			r.Get("/status/{run_id}", s.handleRunStatus)
			r.Get("/runs", s.handleRecentRuns)
			r.Get("/stream", s.handlePipelineStream)
		})

		r.Get("/stats", s.handleStats)
		r.Get("/stats/gems-by-type", s.handleStatsGemsByType)
		r.Get("/stats/gems-top/{n}", s.handleStatsGemsTop)
		r.Get("/stats/by-industry", s.handleStatsByIndustry)
		r.Get("/stats/by-esp", s.handleStatsByESP)
		r.Get("/stats/pipeline-activity", s.handleStatsPipelineActivity)
		r.Get("/stages", s.handleStages)

		r.Post("/gems/{id}/generate", s.handleGenerateForGem)

		r.Get("/ai-audit", s.handleAuditList)
		r.Get("/ai-audit/{id}", s.handleAuditDetail)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
