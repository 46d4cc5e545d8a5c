package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// browseableTables is the same table set db --stats reports on
// (TableStats), reused as the admin browse endpoint's allow-list so a
// table or sort column name is never interpolated into SQL without first
// being checked against a known-safe set.
var browseableTables = map[string]bool{
	"messages": true, "threads": true, "attachments": true, "parsed_metadata": true,
	"sender_temporal": true, "parsed_content": true, "extracted_entities": true,
	"entity_extraction_done": true, "ai_classifications": true, "classification_overrides": true,
	"sender_profiles": true, "sender_relationships": true, "gems": true, "sender_segments": true,
	"engagement_drafts": true, "pipeline_runs": true, "ai_audit_entries": true,
}

// BrowseableTables returns the sorted list of tables the admin surface may
// list/browse (§6.5 "CRUD/browse endpoints for each persistent table").
func BrowseableTables() []string {
	out := make([]string, 0, len(browseableTables))
	for t := range browseableTables {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// tableColumns returns a table's column names via PRAGMA table_info, the
// same introspection columnExists already uses for additive migrations.
func (s *Store) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull int
		var dflt interface{}
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// BrowseTable lists rows from one admin-browseable table, with an
// all-columns substring search and a sort column/direction, for the admin
// surface's generic table browser (§6.5). table and sortColumn are
// validated against the table's own schema before being interpolated.
func (s *Store) BrowseTable(ctx context.Context, table, search, sortColumn, sortDir string, limit, offset int) ([]map[string]interface{}, []string, error) {
	if !browseableTables[table] {
		return nil, nil, fmt.Errorf("store: table %q is not browseable", table)
	}
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, nil, fmt.Errorf("columns for %s: %w", table, err)
	}

	sortOK := false
	for _, c := range cols {
		if c == sortColumn {
			sortOK = true
			break
		}
	}
	if !sortOK {
		sortColumn = cols[0]
	}
	dir := "ASC"
	if strings.EqualFold(sortDir, "desc") {
		dir = "DESC"
	}

	query := fmt.Sprintf("SELECT * FROM %s", table)
	var args []interface{}
	if search != "" {
		clauses := make([]string, len(cols))
		for i, c := range cols {
			clauses[i] = fmt.Sprintf("%s LIKE ?", c)
			args = append(args, "%"+search+"%")
		}
		query += " WHERE " + strings.Join(clauses, " OR ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT ? OFFSET ?", sortColumn, dir)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("browse %s: %w", table, err)
	}
	defer rows.Close()

	out, err := scanRowsToMaps(rows, cols)
	return out, cols, err
}

// GetTableRow fetches a single row from an admin-browseable table by
// primary key, the admin surface's table detail view (§6.5). pkColumn is
// supplied by the caller (the web package's own primary-key map), not
// derived here, since several tables share a key shape PRAGMA table_info
// can't disambiguate on its own (e.g. composite keys with no detail view).
func (s *Store) GetTableRow(ctx context.Context, table, pkColumn, pkValue string) (map[string]interface{}, error) {
	if !browseableTables[table] {
		return nil, fmt.Errorf("store: table %q is not browseable", table)
	}
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("columns for %s: %w", table, err)
	}
	found := false
	for _, c := range cols {
		if c == pkColumn {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("store: %q is not a column of %s", pkColumn, table)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", table, pkColumn)
	rows, err := s.db.QueryContext(ctx, query, pkValue)
	if err != nil {
		return nil, fmt.Errorf("get %s row: %w", table, err)
	}
	defer rows.Close()

	out, err := scanRowsToMaps(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out[0], nil
}

func scanRowsToMaps(rows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}, cols []string) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
