package store

import (
	"context"
	"database/sql"

	"github.com/hoyack/gemsieve/internal/domain"
)

// InsertGem records a newly detected gem. Gems are append-only per run: the
// gem detector is expected to de-duplicate against OpenGemsForDomain before
// calling this, rather than relying on a natural-key upsert (§4.7.4 a gem
// type can legitimately recur over time for the same sender).
func (s *Store) InsertGem(ctx context.Context, g domain.Gem) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO gems (gem_type, sender_domain, thread_id, score, explanation_json,
			recommended_actions_json, source_message_ids_json, status)
		VALUES (?,?,?,?,?,?,?,?)`,
		string(g.GemType), g.SenderDomain, g.ThreadID, g.Score, toJSON(g.Explanation),
		toJSON(g.RecommendedActions), toJSON(g.SourceMessageIDs), string(g.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetGem fetches a single gem by id.
func (s *Store) GetGem(ctx context.Context, id int64) (domain.Gem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, gem_type, sender_domain, COALESCE(thread_id,''), score, explanation_json,
			recommended_actions_json, source_message_ids_json, status
		FROM gems WHERE id = ?`, id)
	return scanGem(row)
}

func scanGem(row *sql.Row) (domain.Gem, error) {
	var g domain.Gem
	var gemType, status, explanation, actions, sourceIDs string
	if err := row.Scan(&g.ID, &gemType, &g.SenderDomain, &g.ThreadID, &g.Score,
		&explanation, &actions, &sourceIDs, &status); err != nil {
		if err == sql.ErrNoRows {
			return domain.Gem{}, ErrNotFound
		}
		return domain.Gem{}, err
	}
	g.GemType = domain.GemType(gemType)
	g.Status = domain.GemStatus(status)
	_ = jsonUnmarshalInto(explanation, &g.Explanation)
	g.RecommendedActions = fromJSONSlice(actions)
	g.SourceMessageIDs = fromJSONSlice(sourceIDs)
	return g, nil
}

// OpenGemsForDomain returns non-dismissed gems for a sender, used to avoid
// re-emitting a gem the detector already raised and the user hasn't acted
// on or dismissed (§4.7.4 "Re-running the detector must not duplicate an
// open gem of the same type for the same sender/thread").
func (s *Store) OpenGemsForDomain(ctx context.Context, senderDomain string) ([]domain.Gem, error) {
	return s.queryGems(ctx, `
		SELECT id, gem_type, sender_domain, COALESCE(thread_id,''), score, explanation_json,
			recommended_actions_json, source_message_ids_json, status
		FROM gems WHERE sender_domain = ? AND status != ?`, senderDomain, string(domain.GemStatusDismissed))
}

// ListGems returns gems ordered by score, optionally filtered by status and
// gem type — the admin surface's primary gem-browsing query (§6.5, §4.8
// "ranked view").
func (s *Store) ListGems(ctx context.Context, status domain.GemStatus, gemType domain.GemType, limit int) ([]domain.Gem, error) {
	query := `SELECT id, gem_type, sender_domain, COALESCE(thread_id,''), score, explanation_json,
			recommended_actions_json, source_message_ids_json, status FROM gems WHERE 1=1`
	var args []interface{}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	if gemType != "" {
		query += " AND gem_type = ?"
		args = append(args, string(gemType))
	}
	query += " ORDER BY score DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryGems(ctx, query, args...)
}

func (s *Store) queryGems(ctx context.Context, query string, args ...interface{}) ([]domain.Gem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Gem
	for rows.Next() {
		var g domain.Gem
		var gemType, status, explanation, actions, sourceIDs string
		if err := rows.Scan(&g.ID, &gemType, &g.SenderDomain, &g.ThreadID, &g.Score,
			&explanation, &actions, &sourceIDs, &status); err != nil {
			return nil, err
		}
		g.GemType = domain.GemType(gemType)
		g.Status = domain.GemStatus(status)
		_ = jsonUnmarshalInto(explanation, &g.Explanation)
		g.RecommendedActions = fromJSONSlice(actions)
		g.SourceMessageIDs = fromJSONSlice(sourceIDs)
		out = append(out, g)
	}
	return out, rows.Err()
}

// SetGemStatus transitions a gem's status (new -> acted|dismissed).
func (s *Store) SetGemStatus(ctx context.Context, id int64, status domain.GemStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE gems SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// UpdateGemScore overwrites a gem's score. The detector inserts a
// provisional score from its own base+boost rule; the segmenter (§4.8)
// recomputes the final, relationship-capped score once profile and
// segment aggregates are available and calls this to reconcile it.
func (s *Store) UpdateGemScore(ctx context.Context, id int64, score float64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE gems SET score = ? WHERE id = ?`, score, id)
	return err
}
