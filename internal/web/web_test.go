package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/knownentities"
	"github.com/hoyack/gemsieve/internal/ner"
	"github.com/hoyack/gemsieve/internal/pipeline"
	"github.com/hoyack/gemsieve/internal/store"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.AI.Provider = "ollama"
	cfg.AI.Model = "llama3"
	cfg.Pipeline.MaxConcurrency = 4
	return cfg
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	orch, err := pipeline.New(st, testConfig(), nil, ner.NoopTagger{}, knownentities.Empty(), nil)
	require.NoError(t, err)

	return New(st, orch, testConfig()), st
}

func doJSON(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := doJSON(t, s.Router(), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}

func TestHandleListTables(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := doJSON(t, s.Router(), http.MethodGet, "/api/tables")
	require.Equal(t, http.StatusOK, rec.Code)
	tables, ok := body["tables"].([]interface{})
	require.True(t, ok)
	require.Contains(t, tables, "gems")
}

func TestHandleBrowseTable_UnknownTableReturnsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/tables/not_a_table")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBrowseTable_ListsInsertedGem(t *testing.T) {
	s, st := newTestServer(t)
	_, err := st.InsertGem(context.Background(), domain.Gem{
		GemType:      domain.GemDormantWarmThread,
		SenderDomain: "acme.com",
		Score:        0.8,
		Status:       domain.GemStatusNew,
	})
	require.NoError(t, err)

	rec, body := doJSON(t, s.Router(), http.MethodGet, "/api/tables/gems")
	require.Equal(t, http.StatusOK, rec.Code)
	rows, ok := body["rows"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
}

func TestHandleTableDetail_CompositeKeyTableReturnsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/tables/sender_segments/acme.com")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTableDetail_UnknownIDReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/tables/gems/999")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRunStage_SingleStageReturnsRunID(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := doJSON(t, s.Router(), http.MethodPost, "/api/pipeline/run/metadata")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotZero(t, body["run_id"])
}

func TestHandleRunStage_AllStarts(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := doJSON(t, s.Router(), http.MethodPost, "/api/pipeline/run/all")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, true, body["started"])
}

func TestHandleRunStatus_UnknownRunReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/pipeline/status/999")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRecentRuns_EmptyReturnsOK(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/pipeline/runs")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStages_ListsEightStages(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := doJSON(t, s.Router(), http.MethodGet, "/api/stages")
	require.Equal(t, http.StatusOK, rec.Code)
	stages, ok := body["stages"].([]interface{})
	require.True(t, ok)
	require.Len(t, stages, 8)
}

func TestHandleStats_ReturnsTableStats(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStatsGemsByType_CountsInsertedGem(t *testing.T) {
	s, st := newTestServer(t)
	_, err := st.InsertGem(context.Background(), domain.Gem{
		GemType:      domain.GemUnansweredAsk,
		SenderDomain: "acme.com",
		Score:        0.5,
		Status:       domain.GemStatusNew,
	})
	require.NoError(t, err)

	rec, body := doJSON(t, s.Router(), http.MethodGet, "/api/stats/gems-by-type")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), body[string(domain.GemUnansweredAsk)])
}

func TestHandleStatsGemsTop_InvalidNReturnsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/stats/gems-top/0")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateForGem_UnknownGemReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodPost, "/api/gems/999/generate")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAuditList_EmptyReturnsOK(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/ai-audit")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleAuditDetail_UnknownIDReturnsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Router(), http.MethodGet, "/api/ai-audit/999")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePipelineStream_NoRedisPingsAndClosesOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/pipeline/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Router().ServeHTTP(rec, req)
		close(done)
	}()
	cancel()
	<-done

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
