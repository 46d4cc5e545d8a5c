package store

import (
	"context"
	"database/sql"

	"github.com/hoyack/gemsieve/internal/domain"
)

// UpsertParsedMetadata writes the metadata extractor's output row,
// keyed by message_id (§4.3).
func (s *Store) UpsertParsedMetadata(ctx context.Context, m domain.ParsedMetadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parsed_metadata (
			message_id, sender_domain, sender_subdomain, envelope_sender, esp_identified,
			esp_confidence, dkim_domain, spf_result, dmarc_result, sending_ip, mail_server,
			x_mailer, precedence, feedback_id, list_unsubscribe_url, list_unsubscribe_email, is_bulk
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(message_id) DO UPDATE SET
			sender_domain=excluded.sender_domain, sender_subdomain=excluded.sender_subdomain,
			envelope_sender=excluded.envelope_sender, esp_identified=excluded.esp_identified,
			esp_confidence=excluded.esp_confidence, dkim_domain=excluded.dkim_domain,
			spf_result=excluded.spf_result, dmarc_result=excluded.dmarc_result,
			sending_ip=excluded.sending_ip, mail_server=excluded.mail_server, x_mailer=excluded.x_mailer,
			precedence=excluded.precedence, feedback_id=excluded.feedback_id,
			list_unsubscribe_url=excluded.list_unsubscribe_url, list_unsubscribe_email=excluded.list_unsubscribe_email,
			is_bulk=excluded.is_bulk
	`,
		m.MessageID, m.SenderDomain, m.SenderSubdomain, m.EnvelopeSender, m.ESPIdentified,
		string(m.ESPConfidence), m.DKIMDomain, m.SPFResult, m.DMARCResult, m.SendingIP,
		m.MailServer, m.XMailer, m.Precedence, m.FeedbackID, m.ListUnsubscribeURL,
		m.ListUnsubscribeEmail, m.IsBulk,
	)
	return err
}

// GetParsedMetadata fetches the metadata row for one message — the
// classifier's read path for esp_identified (§4.6 prompt assembly).
func (s *Store) GetParsedMetadata(ctx context.Context, messageID string) (domain.ParsedMetadata, error) {
	var m domain.ParsedMetadata
	var esp string
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, sender_domain, sender_subdomain, envelope_sender, esp_identified,
			esp_confidence, dkim_domain, spf_result, dmarc_result, sending_ip, mail_server,
			x_mailer, precedence, feedback_id, list_unsubscribe_url, list_unsubscribe_email, is_bulk
		FROM parsed_metadata WHERE message_id = ?`, messageID).Scan(
		&m.MessageID, &m.SenderDomain, &m.SenderSubdomain, &m.EnvelopeSender, &m.ESPIdentified,
		&esp, &m.DKIMDomain, &m.SPFResult, &m.DMARCResult, &m.SendingIP, &m.MailServer,
		&m.XMailer, &m.Precedence, &m.FeedbackID, &m.ListUnsubscribeURL, &m.ListUnsubscribeEmail, &m.IsBulk,
	)
	if err == sql.ErrNoRows {
		return domain.ParsedMetadata{}, ErrNotFound
	}
	if err != nil {
		return domain.ParsedMetadata{}, err
	}
	m.ESPConfidence = domain.ESPConfidence(esp)
	return m, nil
}

// ParsedMetadataByDomain returns every metadata row for a sender domain,
// the profiler's primary read pattern (§4.7.1).
func (s *Store) ParsedMetadataByDomain(ctx context.Context, domainName string) ([]domain.ParsedMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, sender_domain, sender_subdomain, envelope_sender, esp_identified,
			esp_confidence, dkim_domain, spf_result, dmarc_result, sending_ip, mail_server,
			x_mailer, precedence, feedback_id, list_unsubscribe_url, list_unsubscribe_email, is_bulk
		FROM parsed_metadata WHERE sender_domain = ?`, domainName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ParsedMetadata
	for rows.Next() {
		var m domain.ParsedMetadata
		var esp string
		if err := rows.Scan(
			&m.MessageID, &m.SenderDomain, &m.SenderSubdomain, &m.EnvelopeSender, &m.ESPIdentified,
			&esp, &m.DKIMDomain, &m.SPFResult, &m.DMARCResult, &m.SendingIP, &m.MailServer,
			&m.XMailer, &m.Precedence, &m.FeedbackID, &m.ListUnsubscribeURL, &m.ListUnsubscribeEmail, &m.IsBulk,
		); err != nil {
			return nil, err
		}
		m.ESPConfidence = domain.ESPConfidence(esp)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DistinctSenderDomains lists every sender_domain with at least one
// metadata row — the profiler's outer loop (§4.7).
func (s *Store) DistinctSenderDomains(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT sender_domain FROM parsed_metadata ORDER BY sender_domain`)
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

// UpsertSenderTemporal writes the per-domain temporal rollup (§4.3).
func (s *Store) UpsertSenderTemporal(ctx context.Context, t domain.SenderTemporal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sender_temporal (
			sender_domain, first_seen, last_seen, total_messages, avg_frequency_days,
			most_common_hour, most_common_weekday
		) VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(sender_domain) DO UPDATE SET
			first_seen=excluded.first_seen, last_seen=excluded.last_seen,
			total_messages=excluded.total_messages, avg_frequency_days=excluded.avg_frequency_days,
			most_common_hour=excluded.most_common_hour, most_common_weekday=excluded.most_common_weekday
	`, t.SenderDomain, t.FirstSeen, t.LastSeen, t.TotalMessages, t.AvgFrequencyDays,
		t.MostCommonHour, t.MostCommonWeekday)
	return err
}

// GetSenderTemporal fetches the temporal rollup for one domain.
func (s *Store) GetSenderTemporal(ctx context.Context, domainName string) (domain.SenderTemporal, error) {
	var t domain.SenderTemporal
	err := s.db.QueryRowContext(ctx, `
		SELECT sender_domain, first_seen, last_seen, total_messages, avg_frequency_days,
			most_common_hour, most_common_weekday
		FROM sender_temporal WHERE sender_domain = ?`, domainName).Scan(
		&t.SenderDomain, &t.FirstSeen, &t.LastSeen, &t.TotalMessages, &t.AvgFrequencyDays,
		&t.MostCommonHour, &t.MostCommonWeekday)
	if err == sql.ErrNoRows {
		return domain.SenderTemporal{}, ErrNotFound
	}
	return t, err
}
