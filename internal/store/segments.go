package store

import (
	"context"
	"database/sql"

	"github.com/hoyack/gemsieve/internal/domain"
)

// ReplaceSenderSegments atomically replaces every segment assignment for a
// domain — the segmenter is a pure function of the profile, so a re-run
// must not leave stale sub-segments behind (§4.8).
func (s *Store) ReplaceSenderSegments(ctx context.Context, senderDomain string, segs []domain.SenderSegment) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sender_segments WHERE sender_domain = ?`, senderDomain); err != nil {
			return err
		}
		for _, seg := range segs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sender_segments (sender_domain, segment, sub_segment, confidence)
				VALUES (?,?,?,?)`, seg.SenderDomain, string(seg.Segment), seg.SubSegment, seg.Confidence); err != nil {
				return err
			}
		}
		return nil
	})
}

// SegmentsForDomain returns every segment assignment for one sender.
func (s *Store) SegmentsForDomain(ctx context.Context, senderDomain string) ([]domain.SenderSegment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender_domain, segment, sub_segment, confidence FROM sender_segments WHERE sender_domain = ?`, senderDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SenderSegment
	for rows.Next() {
		var seg domain.SenderSegment
		var segName string
		if err := rows.Scan(&seg.SenderDomain, &segName, &seg.SubSegment, &seg.Confidence); err != nil {
			return nil, err
		}
		seg.Segment = domain.Segment(segName)
		out = append(out, seg)
	}
	return out, rows.Err()
}

// DomainsInSegment lists every sender domain assigned to a given segment,
// used by the CLI's segment filters (gems, stats) and `export --segment`.
func (s *Store) DomainsInSegment(ctx context.Context, segment domain.Segment) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT sender_domain FROM sender_segments WHERE segment = ? ORDER BY sender_domain`, string(segment))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
