package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hoyack/gemsieve/internal/domain"
)

// UpsertMessage inserts or replaces a message row by its natural key
// (message_id), per the ingestion stage's idempotent-write contract (§4.2).
func (s *Store) UpsertMessage(ctx context.Context, m domain.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (
			message_id, thread_id, date, from_name, from_address, to_json, cc_json,
			reply_to, subject, raw_headers_json, html_body, text_body, labels_json,
			size_bytes, is_sent_by_user
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(message_id) DO UPDATE SET
			thread_id=excluded.thread_id, date=excluded.date, from_name=excluded.from_name,
			from_address=excluded.from_address, to_json=excluded.to_json, cc_json=excluded.cc_json,
			reply_to=excluded.reply_to, subject=excluded.subject, raw_headers_json=excluded.raw_headers_json,
			html_body=excluded.html_body, text_body=excluded.text_body, labels_json=excluded.labels_json,
			size_bytes=excluded.size_bytes, is_sent_by_user=excluded.is_sent_by_user
	`,
		m.MessageID, m.ThreadID, m.Date, m.From.Name, m.From.Email,
		toJSON(m.To), toJSON(m.CC), m.ReplyTo, m.Subject, toJSON(m.RawHeaders),
		m.HTMLBody, m.TextBody, toJSON(m.Labels), m.SizeBytes, m.IsSentByUser,
	)
	return err
}

// GetMessage fetches a single message by id.
func (s *Store) GetMessage(ctx context.Context, messageID string) (domain.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, thread_id, date, from_name, from_address, to_json, cc_json,
			reply_to, subject, raw_headers_json, html_body, text_body, labels_json,
			size_bytes, is_sent_by_user
		FROM messages WHERE message_id = ?`, messageID)
	return scanMessage(row)
}

func scanMessage(row *sql.Row) (domain.Message, error) {
	var m domain.Message
	var toJ, ccJ, headersJ, labelsJ string
	if err := row.Scan(
		&m.MessageID, &m.ThreadID, &m.Date, &m.From.Name, &m.From.Email,
		&toJ, &ccJ, &m.ReplyTo, &m.Subject, &headersJ, &m.HTMLBody, &m.TextBody,
		&labelsJ, &m.SizeBytes, &m.IsSentByUser,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Message{}, ErrNotFound
		}
		return domain.Message{}, err
	}
	m.Labels = fromJSONSlice(labelsJ)
	m.RawHeaders = fromJSONMapString(headersJ)
	var addrs []domain.Address
	_ = jsonUnmarshalInto(toJ, &addrs)
	m.To = addrs
	addrs = nil
	_ = jsonUnmarshalInto(ccJ, &addrs)
	m.CC = addrs
	return m, nil
}

// MessagesForThread returns every message in a thread ordered by date, used
// to recompute thread aggregates on ingest (§4.2 "Thread recomputation").
func (s *Store) MessagesForThread(ctx context.Context, threadID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, thread_id, date, from_name, from_address, to_json, cc_json,
			reply_to, subject, raw_headers_json, html_body, text_body, labels_json,
			size_bytes, is_sent_by_user
		FROM messages WHERE thread_id = ? ORDER BY date ASC`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var toJ, ccJ, headersJ, labelsJ string
		if err := rows.Scan(
			&m.MessageID, &m.ThreadID, &m.Date, &m.From.Name, &m.From.Email,
			&toJ, &ccJ, &m.ReplyTo, &m.Subject, &headersJ, &m.HTMLBody, &m.TextBody,
			&labelsJ, &m.SizeBytes, &m.IsSentByUser,
		); err != nil {
			return nil, err
		}
		m.Labels = fromJSONSlice(labelsJ)
		m.RawHeaders = fromJSONMapString(headersJ)
		var addrs []domain.Address
		_ = jsonUnmarshalInto(toJ, &addrs)
		m.To = addrs
		addrs = nil
		_ = jsonUnmarshalInto(ccJ, &addrs)
		m.CC = addrs
		out = append(out, m)
	}
	return out, rows.Err()
}

// MessagesBySenderDomain returns every message from a sender domain, joined
// through parsed_metadata — the profiler's primary per-domain message
// fold (§4.7.1).
func (s *Store) MessagesBySenderDomain(ctx context.Context, senderDomain string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.message_id, m.thread_id, m.date, m.from_name, m.from_address, m.to_json, m.cc_json,
			m.reply_to, m.subject, m.raw_headers_json, m.html_body, m.text_body, m.labels_json,
			m.size_bytes, m.is_sent_by_user
		FROM messages m
		JOIN parsed_metadata pm ON pm.message_id = m.message_id
		WHERE pm.sender_domain = ?
		ORDER BY m.date ASC`, senderDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var toJ, ccJ, headersJ, labelsJ string
		if err := rows.Scan(
			&m.MessageID, &m.ThreadID, &m.Date, &m.From.Name, &m.From.Email,
			&toJ, &ccJ, &m.ReplyTo, &m.Subject, &headersJ, &m.HTMLBody, &m.TextBody,
			&labelsJ, &m.SizeBytes, &m.IsSentByUser,
		); err != nil {
			return nil, err
		}
		m.Labels = fromJSONSlice(labelsJ)
		m.RawHeaders = fromJSONMapString(headersJ)
		var addrs []domain.Address
		_ = jsonUnmarshalInto(toJ, &addrs)
		m.To = addrs
		addrs = nil
		_ = jsonUnmarshalInto(ccJ, &addrs)
		m.CC = addrs
		out = append(out, m)
	}
	return out, rows.Err()
}

// ThreadsForSenderDomain returns every thread aggregate belonging to a
// sender domain, used by the profiler's thread-metrics pass and by the
// gem detector to gate dormant_warm_thread candidates on relationship
// type (§4.7.2, §4.7.4 gate 1).
func (s *Store) ThreadsForSenderDomain(ctx context.Context, senderDomain string) ([]domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, normalized_subject, participant_count, message_count,
			first_message_date, last_message_date, last_sender, user_participated,
			user_last_replied, awaiting_response_from, days_dormant, sender_domain, initiated_by_user
		FROM threads WHERE sender_domain = ? ORDER BY last_message_date DESC`, senderDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Thread
	for rows.Next() {
		var t domain.Thread
		var awaiting string
		if err := rows.Scan(
			&t.ThreadID, &t.NormalizedSubject, &t.ParticipantCount, &t.MessageCount,
			&t.FirstMessageDate, &t.LastMessageDate, &t.LastSender, &t.UserParticipated,
			&t.UserLastReplied, &awaiting, &t.DaysDormant, &t.SenderDomain, &t.InitiatedByUser,
		); err != nil {
			return nil, err
		}
		t.AwaitingResponseFrom = domain.AwaitingResponseFrom(awaiting)
		out = append(out, t)
	}
	return out, rows.Err()
}

// MessagesMissingFrom returns message ids present in `messages` but absent
// from the table named by joinTable, keyed on message_id — the generic
// left-anti-join "unprocessed work" query every downstream stage uses to
// find its own backlog idempotently (§4.1 "re-entrant stages").
func (s *Store) MessagesMissingFrom(ctx context.Context, joinTable string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT m.message_id FROM messages m
		LEFT JOIN %s j ON j.message_id = m.message_id
		WHERE j.message_id IS NULL
		ORDER BY m.date ASC
		LIMIT ?`, joinTable)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertThread writes the recomputed aggregate for one thread.
func (s *Store) UpsertThread(ctx context.Context, t domain.Thread) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threads (
			thread_id, normalized_subject, participant_count, message_count,
			first_message_date, last_message_date, last_sender, user_participated,
			user_last_replied, awaiting_response_from, days_dormant, sender_domain, initiated_by_user
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(thread_id) DO UPDATE SET
			normalized_subject=excluded.normalized_subject, participant_count=excluded.participant_count,
			message_count=excluded.message_count, first_message_date=excluded.first_message_date,
			last_message_date=excluded.last_message_date, last_sender=excluded.last_sender,
			user_participated=excluded.user_participated, user_last_replied=excluded.user_last_replied,
			awaiting_response_from=excluded.awaiting_response_from, days_dormant=excluded.days_dormant,
			sender_domain=excluded.sender_domain, initiated_by_user=excluded.initiated_by_user
	`,
		t.ThreadID, t.NormalizedSubject, t.ParticipantCount, t.MessageCount,
		t.FirstMessageDate, t.LastMessageDate, t.LastSender, t.UserParticipated,
		t.UserLastReplied, string(t.AwaitingResponseFrom), t.DaysDormant, t.SenderDomain, t.InitiatedByUser,
	)
	return err
}

// GetThread fetches a single thread aggregate.
func (s *Store) GetThread(ctx context.Context, threadID string) (domain.Thread, error) {
	var t domain.Thread
	var awaiting string
	err := s.db.QueryRowContext(ctx, `
		SELECT thread_id, normalized_subject, participant_count, message_count,
			first_message_date, last_message_date, last_sender, user_participated,
			user_last_replied, awaiting_response_from, days_dormant, sender_domain, initiated_by_user
		FROM threads WHERE thread_id = ?`, threadID).Scan(
		&t.ThreadID, &t.NormalizedSubject, &t.ParticipantCount, &t.MessageCount,
		&t.FirstMessageDate, &t.LastMessageDate, &t.LastSender, &t.UserParticipated,
		&t.UserLastReplied, &awaiting, &t.DaysDormant, &t.SenderDomain, &t.InitiatedByUser,
	)
	if err == sql.ErrNoRows {
		return domain.Thread{}, ErrNotFound
	}
	t.AwaitingResponseFrom = domain.AwaitingResponseFrom(awaiting)
	return t, err
}

// DormantThreads returns threads awaiting a reply from the other party,
// dormant for at least minDays, most dormant first. Because it selects
// awaiting_response_from = other, it is not the candidate set for
// dormant_warm_thread, which requires a thread awaiting the user's reply.
func (s *Store) DormantThreads(ctx context.Context, minDays int) ([]domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, normalized_subject, participant_count, message_count,
			first_message_date, last_message_date, last_sender, user_participated,
			user_last_replied, awaiting_response_from, days_dormant, sender_domain, initiated_by_user
		FROM threads
		WHERE awaiting_response_from = ? AND days_dormant >= ?
		ORDER BY days_dormant DESC`, string(domain.AwaitingOther), minDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Thread
	for rows.Next() {
		var t domain.Thread
		var awaiting string
		if err := rows.Scan(
			&t.ThreadID, &t.NormalizedSubject, &t.ParticipantCount, &t.MessageCount,
			&t.FirstMessageDate, &t.LastMessageDate, &t.LastSender, &t.UserParticipated,
			&t.UserLastReplied, &awaiting, &t.DaysDormant, &t.SenderDomain, &t.InitiatedByUser,
		); err != nil {
			return nil, err
		}
		t.AwaitingResponseFrom = domain.AwaitingResponseFrom(awaiting)
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertAttachment records attachment metadata only (§4.2.3).
func (s *Store) InsertAttachment(ctx context.Context, a domain.Attachment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (message_id, filename, mime_type, size_bytes)
		VALUES (?,?,?,?)`, a.MessageID, a.Filename, a.MimeType, a.SizeBytes)
	return err
}

// GetSyncState returns the singleton ingestion cursor, or a zero SyncState
// when no row exists yet (no row is inserted).
func (s *Store) GetSyncState(ctx context.Context) (domain.SyncState, error) {
	var st domain.SyncState
	err := s.db.QueryRowContext(ctx, `
		SELECT last_history_id, last_full_sync, last_incremental_sync, total_synced
		FROM sync_state WHERE id = 1`).Scan(
		&st.LastHistoryID, &st.LastFullSync, &st.LastIncrementalSync, &st.TotalSynced)
	if err == sql.ErrNoRows {
		return domain.SyncState{}, nil
	}
	return st, err
}

// SaveSyncState persists the singleton ingestion cursor.
func (s *Store) SaveSyncState(ctx context.Context, st domain.SyncState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, last_history_id, last_full_sync, last_incremental_sync, total_synced)
		VALUES (1,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			last_history_id=excluded.last_history_id, last_full_sync=excluded.last_full_sync,
			last_incremental_sync=excluded.last_incremental_sync, total_synced=excluded.total_synced`,
		st.LastHistoryID, st.LastFullSync, st.LastIncrementalSync, st.TotalSynced)
	return err
}
