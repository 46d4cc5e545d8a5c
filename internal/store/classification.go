package store

import (
	"context"
	"database/sql"

	"github.com/hoyack/gemsieve/internal/domain"
)

// UpsertAIClassification writes the classifier's output row for one
// message, keyed by message_id so a retrain re-run replaces it in place
// (§4.6).
func (s *Store) UpsertAIClassification(ctx context.Context, c domain.AIClassification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_classifications (
			message_id, industry, company_size_estimate, marketing_sophistication, sender_intent,
			product_type, product_description, pain_points_json, target_audience,
			partner_program_detected, renewal_signal_detected, ai_confidence, model_used, has_override
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(message_id) DO UPDATE SET
			industry=excluded.industry, company_size_estimate=excluded.company_size_estimate,
			marketing_sophistication=excluded.marketing_sophistication, sender_intent=excluded.sender_intent,
			product_type=excluded.product_type, product_description=excluded.product_description,
			pain_points_json=excluded.pain_points_json, target_audience=excluded.target_audience,
			partner_program_detected=excluded.partner_program_detected,
			renewal_signal_detected=excluded.renewal_signal_detected, ai_confidence=excluded.ai_confidence,
			model_used=excluded.model_used, has_override=excluded.has_override
	`,
		c.MessageID, c.Industry, string(c.CompanySizeEstimate), c.MarketingSophistication, string(c.SenderIntent),
		c.ProductType, c.ProductDescription, toJSON(c.PainPoints), c.TargetAudience,
		c.PartnerProgramDetected, c.RenewalSignalDetected, c.AIConfidence, c.ModelUsed, c.HasOverride,
	)
	return err
}

// GetAIClassification fetches the classification row for one message.
func (s *Store) GetAIClassification(ctx context.Context, messageID string) (domain.AIClassification, error) {
	var c domain.AIClassification
	var size, intent, pain string
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, industry, company_size_estimate, marketing_sophistication, sender_intent,
			product_type, product_description, pain_points_json, target_audience,
			partner_program_detected, renewal_signal_detected, ai_confidence, model_used, has_override
		FROM ai_classifications WHERE message_id = ?`, messageID).Scan(
		&c.MessageID, &c.Industry, &size, &c.MarketingSophistication, &intent,
		&c.ProductType, &c.ProductDescription, &pain, &c.TargetAudience,
		&c.PartnerProgramDetected, &c.RenewalSignalDetected, &c.AIConfidence, &c.ModelUsed, &c.HasOverride,
	)
	if err == sql.ErrNoRows {
		return domain.AIClassification{}, ErrNotFound
	}
	if err != nil {
		return domain.AIClassification{}, err
	}
	c.CompanySizeEstimate = domain.CompanySize(size)
	c.SenderIntent = domain.SenderIntent(intent)
	c.PainPoints = fromJSONSlice(pain)
	return c, nil
}

// ClassificationsByMessageIDs batch-fetches classifications across a
// sender's message history (profiler, segmenter, gem detector read path).
func (s *Store) ClassificationsByMessageIDs(ctx context.Context, messageIDs []string) (map[string]domain.AIClassification, error) {
	out := make(map[string]domain.AIClassification, len(messageIDs))
	for _, id := range messageIDs {
		c, err := s.GetAIClassification(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, nil
}

// InsertOverride records a user correction layered atop the classifier's
// output. Overrides are append-only and applied at read time by the
// classify package, never by mutating the underlying ai_classifications
// row (§4.6 "Override layering").
func (s *Store) InsertOverride(ctx context.Context, o domain.ClassificationOverride) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classification_overrides (message_id, sender_domain, field_name, original_value, corrected_value, scope)
		VALUES (?,?,?,?,?,?)`,
		nullIfEmpty(o.MessageID), o.SenderDomain, o.FieldName, o.OriginalValue, o.CorrectedValue, string(o.Scope))
	return err
}

// OverridesForSenderDomain returns sender-scoped overrides for a domain,
// applied to every message from that sender.
func (s *Store) OverridesForSenderDomain(ctx context.Context, senderDomain string) ([]domain.ClassificationOverride, error) {
	return s.queryOverrides(ctx, `
		SELECT id, COALESCE(message_id,''), sender_domain, field_name, original_value, corrected_value, scope
		FROM classification_overrides WHERE sender_domain = ? AND scope = ?`, senderDomain, string(domain.ScopeSender))
}

// OverridesForMessage returns message-scoped overrides for one message.
func (s *Store) OverridesForMessage(ctx context.Context, messageID string) ([]domain.ClassificationOverride, error) {
	return s.queryOverrides(ctx, `
		SELECT id, COALESCE(message_id,''), sender_domain, field_name, original_value, corrected_value, scope
		FROM classification_overrides WHERE message_id = ? AND scope = ?`, messageID, string(domain.ScopeMessage))
}

// RecentOverrides returns the most recent overrides across all senders,
// newest first — the few-shot "corrections" block retrain mode appends to
// the classifier prompt (§4.6 "Retrain mode").
func (s *Store) RecentOverrides(ctx context.Context, limit int) ([]domain.ClassificationOverride, error) {
	return s.queryOverrides(ctx, `
		SELECT id, COALESCE(message_id,''), sender_domain, field_name, original_value, corrected_value, scope
		FROM classification_overrides ORDER BY id DESC LIMIT ?`, limit)
}

func (s *Store) queryOverrides(ctx context.Context, query string, args ...interface{}) ([]domain.ClassificationOverride, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClassificationOverride
	for rows.Next() {
		var o domain.ClassificationOverride
		var scope string
		if err := rows.Scan(&o.ID, &o.MessageID, &o.SenderDomain, &o.FieldName, &o.OriginalValue, &o.CorrectedValue, &scope); err != nil {
			return nil, err
		}
		o.Scope = domain.OverrideScope(scope)
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
