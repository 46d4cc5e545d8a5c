package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/hoyack/gemsieve/internal/domain"
)

// InsertDraft records a new engagement draft attached to a gem (§4.9).
func (s *Store) InsertDraft(ctx context.Context, d domain.EngagementDraft) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO engagement_drafts (gem_id, sender_domain, strategy, channel, subject_line,
			body_text, body_html, status, generated_at, sent_at, response_received, response_sentiment)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.GemID, d.SenderDomain, string(d.Strategy), d.Channel, d.SubjectLine,
		d.BodyText, d.BodyHTML, string(d.Status), d.GeneratedAt, d.SentAt, d.ResponseReceived, d.ResponseSentiment)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetDraft fetches a single draft by id.
func (s *Store) GetDraft(ctx context.Context, id int64) (domain.EngagementDraft, error) {
	var d domain.EngagementDraft
	var strategy, status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, gem_id, sender_domain, strategy, channel, subject_line, body_text, body_html,
			status, generated_at, sent_at, response_received, response_sentiment
		FROM engagement_drafts WHERE id = ?`, id).Scan(
		&d.ID, &d.GemID, &d.SenderDomain, &strategy, &d.Channel, &d.SubjectLine, &d.BodyText, &d.BodyHTML,
		&status, &d.GeneratedAt, &d.SentAt, &d.ResponseReceived, &d.ResponseSentiment)
	if err == sql.ErrNoRows {
		return domain.EngagementDraft{}, ErrNotFound
	}
	if err != nil {
		return domain.EngagementDraft{}, err
	}
	d.Strategy = domain.Strategy(strategy)
	d.Status = domain.DraftStatus(status)
	return d, nil
}

// DraftsForGem returns every draft generated against a gem, newest first.
func (s *Store) DraftsForGem(ctx context.Context, gemID int64) ([]domain.EngagementDraft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gem_id, sender_domain, strategy, channel, subject_line, body_text, body_html,
			status, generated_at, sent_at, response_received, response_sentiment
		FROM engagement_drafts WHERE gem_id = ? ORDER BY generated_at DESC`, gemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EngagementDraft
	for rows.Next() {
		var d domain.EngagementDraft
		var strategy, status string
		if err := rows.Scan(&d.ID, &d.GemID, &d.SenderDomain, &strategy, &d.Channel, &d.SubjectLine,
			&d.BodyText, &d.BodyHTML, &status, &d.GeneratedAt, &d.SentAt, &d.ResponseReceived, &d.ResponseSentiment); err != nil {
			return nil, err
		}
		d.Strategy = domain.Strategy(strategy)
		d.Status = domain.DraftStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

// GemsMissingDraft returns gem ids that have no engagement draft yet,
// the engage stage's anti-join backlog query (§4.9).
func (s *Store) GemsMissingDraft(ctx context.Context, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id FROM gems g
		LEFT JOIN engagement_drafts d ON d.gem_id = g.id
		WHERE d.id IS NULL AND g.status = ?
		ORDER BY g.score DESC
		LIMIT ?`, string(domain.GemStatusNew), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetDraftStatus transitions a draft's status (draft -> approved -> sent -> replied).
func (s *Store) SetDraftStatus(ctx context.Context, id int64, status domain.DraftStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE engagement_drafts SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// DraftsGeneratedSince counts drafts generated at or after since, across
// every sender — the engage stage's max_outreach_per_day gate (§4.9).
func (s *Store) DraftsGeneratedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM engagement_drafts WHERE generated_at >= ?`, since).Scan(&n)
	return n, err
}
