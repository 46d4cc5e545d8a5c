package store

import (
	"context"
	"database/sql"

	"github.com/hoyack/gemsieve/internal/domain"
)

// InsertRun records a new pipeline run in "pending" or "running" state and
// returns its id (§4.10).
func (s *Store) InsertRun(ctx context.Context, r domain.PipelineRun) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (stage, status, started_at, completed_at, items_processed,
			error_message, config_snapshot, triggered_by)
		VALUES (?,?,?,?,?,?,?,?)`,
		string(r.Stage), string(r.Status), r.StartedAt, r.CompletedAt, r.ItemsProcessed,
		r.ErrorMessage, r.ConfigSnapshot, string(r.TriggeredBy))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CompleteRun finalizes a run's status, completion time and processed count.
func (s *Store) CompleteRun(ctx context.Context, id int64, status domain.RunStatus, completedAt interface{}, itemsProcessed int, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pipeline_runs SET status = ?, completed_at = ?, items_processed = ?, error_message = ?
		WHERE id = ?`, string(status), completedAt, itemsProcessed, errMsg, id)
	return err
}

// GetRun fetches a single run record.
func (s *Store) GetRun(ctx context.Context, id int64) (domain.PipelineRun, error) {
	var r domain.PipelineRun
	var stage, status, triggeredBy string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, stage, status, started_at, completed_at, items_processed, error_message,
			config_snapshot, triggered_by
		FROM pipeline_runs WHERE id = ?`, id).Scan(
		&r.ID, &stage, &status, &r.StartedAt, &r.CompletedAt, &r.ItemsProcessed, &r.ErrorMessage,
		&r.ConfigSnapshot, &triggeredBy)
	if err == sql.ErrNoRows {
		return domain.PipelineRun{}, ErrNotFound
	}
	if err != nil {
		return domain.PipelineRun{}, err
	}
	r.Stage = domain.StageName(stage)
	r.Status = domain.RunStatus(status)
	r.TriggeredBy = domain.TriggeredBy(triggeredBy)
	return r, nil
}

// RecentRuns returns the most recent runs, optionally filtered by stage,
// for the admin surface (§6.5).
func (s *Store) RecentRuns(ctx context.Context, stage domain.StageName, limit int) ([]domain.PipelineRun, error) {
	query := `SELECT id, stage, status, started_at, completed_at, items_processed, error_message,
			config_snapshot, triggered_by FROM pipeline_runs WHERE 1=1`
	var args []interface{}
	if stage != "" {
		query += " AND stage = ?"
		args = append(args, string(stage))
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PipelineRun
	for rows.Next() {
		var r domain.PipelineRun
		var stageVal, status, triggeredBy string
		if err := rows.Scan(&r.ID, &stageVal, &status, &r.StartedAt, &r.CompletedAt, &r.ItemsProcessed,
			&r.ErrorMessage, &r.ConfigSnapshot, &triggeredBy); err != nil {
			return nil, err
		}
		r.Stage = domain.StageName(stageVal)
		r.Status = domain.RunStatus(status)
		r.TriggeredBy = domain.TriggeredBy(triggeredBy)
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertAuditEntry records one AI call made under a pipeline run (§4.10
// "AI audit interceptor").
func (s *Store) InsertAuditEntry(ctx context.Context, a domain.AIAuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_audit_entries (pipeline_run_id, stage, sender_domain, prompt_template_id,
			prompt_rendered, system_prompt, model_used, response_raw, response_parsed, duration_ms, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		a.PipelineRunID, string(a.Stage), a.SenderDomain, a.PromptTemplateID,
		a.PromptRendered, a.SystemPrompt, a.ModelUsed, a.ResponseRaw, a.ResponseParsed, a.DurationMS, a.CreatedAt)
	return err
}

// ListAuditEntries returns the most recent AI audit entries across every
// run, optionally filtered by stage, for the admin surface's audit list
// (§6.5 "GET /api/ai-audit").
func (s *Store) ListAuditEntries(ctx context.Context, stage domain.StageName, limit, offset int) ([]domain.AIAuditEntry, error) {
	query := `SELECT id, pipeline_run_id, stage, sender_domain, prompt_template_id, prompt_rendered,
			system_prompt, model_used, response_raw, response_parsed, duration_ms, created_at
		FROM ai_audit_entries WHERE 1=1`
	var args []interface{}
	if stage != "" {
		query += " AND stage = ?"
		args = append(args, string(stage))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AIAuditEntry
	for rows.Next() {
		var a domain.AIAuditEntry
		var stageVal string
		if err := rows.Scan(&a.ID, &a.PipelineRunID, &stageVal, &a.SenderDomain, &a.PromptTemplateID,
			&a.PromptRendered, &a.SystemPrompt, &a.ModelUsed, &a.ResponseRaw, &a.ResponseParsed,
			&a.DurationMS, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Stage = domain.StageName(stageVal)
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAuditEntry fetches a single AI audit entry by id, the admin surface's
// audit detail view (§6.5 "GET /api/ai-audit/{id}").
func (s *Store) GetAuditEntry(ctx context.Context, id int64) (domain.AIAuditEntry, error) {
	var a domain.AIAuditEntry
	var stage string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, pipeline_run_id, stage, sender_domain, prompt_template_id, prompt_rendered,
			system_prompt, model_used, response_raw, response_parsed, duration_ms, created_at
		FROM ai_audit_entries WHERE id = ?`, id).Scan(
		&a.ID, &a.PipelineRunID, &stage, &a.SenderDomain, &a.PromptTemplateID,
		&a.PromptRendered, &a.SystemPrompt, &a.ModelUsed, &a.ResponseRaw, &a.ResponseParsed,
		&a.DurationMS, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.AIAuditEntry{}, ErrNotFound
	}
	if err != nil {
		return domain.AIAuditEntry{}, err
	}
	a.Stage = domain.StageName(stage)
	return a, nil
}

// AuditEntriesForRun returns every AI call audited under one run, oldest
// first.
func (s *Store) AuditEntriesForRun(ctx context.Context, runID int64) ([]domain.AIAuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pipeline_run_id, stage, sender_domain, prompt_template_id, prompt_rendered,
			system_prompt, model_used, response_raw, response_parsed, duration_ms, created_at
		FROM ai_audit_entries WHERE pipeline_run_id = ? ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AIAuditEntry
	for rows.Next() {
		var a domain.AIAuditEntry
		var stage string
		if err := rows.Scan(&a.ID, &a.PipelineRunID, &stage, &a.SenderDomain, &a.PromptTemplateID,
			&a.PromptRendered, &a.SystemPrompt, &a.ModelUsed, &a.ResponseRaw, &a.ResponseParsed,
			&a.DurationMS, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Stage = domain.StageName(stage)
		out = append(out, a)
	}
	return out, rows.Err()
}
