package web

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hoyack/gemsieve/internal/store"
)

// primaryKeyColumn names each browseable table's detail-lookup column.
// sender_segments has a composite key and has no single-row detail view.
var primaryKeyColumn = map[string]string{
	"messages":                 "message_id",
	"threads":                  "thread_id",
	"attachments":              "id",
	"parsed_metadata":          "message_id",
	"sender_temporal":          "sender_domain",
	"parsed_content":           "message_id",
	"extracted_entities":       "id",
	"entity_extraction_done":   "message_id",
	"ai_classifications":       "message_id",
	"classification_overrides": "id",
	"sender_profiles":          "sender_domain",
	"sender_relationships":     "sender_domain",
	"gems":                     "id",
	"engagement_drafts":        "id",
	"pipeline_runs":            "id",
	"ai_audit_entries":         "id",
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables := store.BrowseableTables()
	sort.Strings(tables)
	respondJSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

func (s *Server) handleBrowseTable(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, cols, err := s.store.BrowseTable(r.Context(), table, q.Get("q"), q.Get("sort"), q.Get("dir"), limit, offset)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"table":   table,
		"columns": cols,
		"rows":    rows,
	})
}

func (s *Server) handleTableDetail(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id := chi.URLParam(r, "id")

	pk, ok := primaryKeyColumn[table]
	if !ok {
		respondError(w, http.StatusBadRequest, "table has no single-row detail view")
		return
	}

	row, err := s.store.GetTableRow(r.Context(), table, pk, id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, row)
}
