package store

import (
	"context"

	"github.com/hoyack/gemsieve/internal/domain"
)

// InsertEntity records one extracted entity span. Entities are append-only
// per message: re-running the entities stage on an already-processed
// message is a no-op handled by the caller's anti-join query, not by a
// natural-key upsert here (§4.5).
func (s *Store) InsertEntity(ctx context.Context, e domain.ExtractedEntity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extracted_entities (message_id, entity_type, value, normalized, context, confidence, source)
		VALUES (?,?,?,?,?,?,?)`,
		e.MessageID, string(e.Type), e.Value, e.Normalized, e.Context, e.Confidence, string(e.Source))
	return err
}

// MarkEntityExtractionDone records that the entities stage has visited a
// message, independent of whether it actually produced any entity rows —
// the anti-join backlog query needs a sentinel since extracted_entities
// itself can legitimately stay empty for a message (§4.5, §4.1 "re-entrant
// stages").
func (s *Store) MarkEntityExtractionDone(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_extraction_done (message_id) VALUES (?)
		ON CONFLICT(message_id) DO NOTHING`, messageID)
	return err
}

// EntitiesForMessage returns every entity extracted from one message.
func (s *Store) EntitiesForMessage(ctx context.Context, messageID string) ([]domain.ExtractedEntity, error) {
	return s.queryEntities(ctx, `
		SELECT id, message_id, entity_type, value, normalized, context, confidence, source
		FROM extracted_entities WHERE message_id = ?`, messageID)
}

// EntitiesForMessages batch-fetches entities across a sender's full
// message set, the profiler's and entity-classifier's read pattern.
func (s *Store) EntitiesForMessages(ctx context.Context, messageIDs []string) ([]domain.ExtractedEntity, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]byte, 0, len(messageIDs)*2)
	args := make([]interface{}, len(messageIDs))
	for i, id := range messageIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}
	query := `SELECT id, message_id, entity_type, value, normalized, context, confidence, source
		FROM extracted_entities WHERE message_id IN (` + string(placeholders) + `)`
	return s.queryEntities(ctx, query, args...)
}

// EntitiesByType returns every entity of a given type, across all
// messages.
func (s *Store) EntitiesByType(ctx context.Context, entityType domain.EntityType) ([]domain.ExtractedEntity, error) {
	return s.queryEntities(ctx, `
		SELECT id, message_id, entity_type, value, normalized, context, confidence, source
		FROM extracted_entities WHERE entity_type = ?`, string(entityType))
}

func (s *Store) queryEntities(ctx context.Context, query string, args ...interface{}) ([]domain.ExtractedEntity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ExtractedEntity
	for rows.Next() {
		var e domain.ExtractedEntity
		var typ, source string
		if err := rows.Scan(&e.ID, &e.MessageID, &typ, &e.Value, &e.Normalized, &e.Context, &e.Confidence, &source); err != nil {
			return nil, err
		}
		e.Type = domain.EntityType(typ)
		e.Source = domain.EntitySource(source)
		out = append(out, e)
	}
	return out, rows.Err()
}
