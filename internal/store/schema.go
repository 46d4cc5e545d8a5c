package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one additive schema change. Table creation statements are
// idempotent (CREATE TABLE IF NOT EXISTS); column additions are guarded by
// columnExists since SQLite's ADD COLUMN has no IF NOT EXISTS form — this
// is the "migration registry must detect absent columns and add them"
// requirement of §4.1.
type migration struct {
	table  string
	column string // empty for a table-creation migration
	ddl    string
}

var baseTables = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		from_name TEXT,
		from_address TEXT NOT NULL,
		to_json TEXT,
		cc_json TEXT,
		reply_to TEXT,
		subject TEXT,
		raw_headers_json TEXT,
		html_body TEXT,
		text_body TEXT,
		labels_json TEXT,
		size_bytes INTEGER,
		is_sent_by_user INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS threads (
		thread_id TEXT PRIMARY KEY,
		normalized_subject TEXT,
		participant_count INTEGER NOT NULL DEFAULT 0,
		message_count INTEGER NOT NULL DEFAULT 0,
		first_message_date DATETIME,
		last_message_date DATETIME,
		last_sender TEXT,
		user_participated INTEGER NOT NULL DEFAULT 0,
		user_last_replied DATETIME,
		awaiting_response_from TEXT NOT NULL DEFAULT 'none',
		days_dormant INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL REFERENCES messages(message_id),
		filename TEXT,
		mime_type TEXT,
		size_bytes INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS sync_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_history_id TEXT,
		last_full_sync DATETIME,
		last_incremental_sync DATETIME,
		total_synced INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS parsed_metadata (
		message_id TEXT PRIMARY KEY REFERENCES messages(message_id),
		sender_domain TEXT NOT NULL,
		sender_subdomain TEXT,
		envelope_sender TEXT,
		esp_identified TEXT,
		esp_confidence TEXT,
		dkim_domain TEXT,
		spf_result TEXT,
		dmarc_result TEXT,
		sending_ip TEXT,
		mail_server TEXT,
		x_mailer TEXT,
		precedence TEXT,
		feedback_id TEXT,
		list_unsubscribe_url TEXT,
		list_unsubscribe_email TEXT,
		is_bulk INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sender_temporal (
		sender_domain TEXT PRIMARY KEY,
		first_seen TEXT,
		last_seen TEXT,
		total_messages INTEGER NOT NULL DEFAULT 0,
		avg_frequency_days REAL NOT NULL DEFAULT 0,
		most_common_hour INTEGER NOT NULL DEFAULT 0,
		most_common_weekday INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS parsed_content (
		message_id TEXT PRIMARY KEY REFERENCES messages(message_id),
		body_clean TEXT,
		signature_block TEXT,
		footer_block TEXT,
		primary_headline TEXT,
		cta_texts_json TEXT,
		offer_types_json TEXT,
		has_personalization INTEGER NOT NULL DEFAULT 0,
		personalization_tokens_json TEXT,
		link_count INTEGER NOT NULL DEFAULT 0,
		tracking_pixel_count INTEGER NOT NULL DEFAULT 0,
		unique_link_domains_json TEXT,
		link_intents_json TEXT,
		utm_campaigns_json TEXT,
		physical_address TEXT,
		social_links_json TEXT,
		image_count INTEGER NOT NULL DEFAULT 0,
		template_complexity_score INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS extracted_entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL REFERENCES messages(message_id),
		entity_type TEXT NOT NULL,
		value TEXT,
		normalized TEXT,
		context TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		source TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entity_extraction_done (
		message_id TEXT PRIMARY KEY REFERENCES messages(message_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ai_classifications (
		message_id TEXT PRIMARY KEY REFERENCES messages(message_id),
		industry TEXT,
		company_size_estimate TEXT,
		marketing_sophistication INTEGER NOT NULL DEFAULT 0,
		sender_intent TEXT,
		product_type TEXT,
		product_description TEXT,
		pain_points_json TEXT,
		target_audience TEXT,
		partner_program_detected INTEGER NOT NULL DEFAULT 0,
		renewal_signal_detected INTEGER NOT NULL DEFAULT 0,
		ai_confidence REAL NOT NULL DEFAULT 0,
		model_used TEXT,
		has_override INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS classification_overrides (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT,
		sender_domain TEXT NOT NULL,
		field_name TEXT NOT NULL,
		original_value TEXT,
		corrected_value TEXT,
		scope TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sender_profiles (
		sender_domain TEXT PRIMARY KEY,
		company_name TEXT,
		primary_email TEXT,
		reply_to_email TEXT,
		industry TEXT,
		company_size TEXT,
		marketing_sophistication_avg REAL NOT NULL DEFAULT 0,
		sophistication_trend TEXT,
		esp_used TEXT,
		product_type TEXT,
		product_description TEXT,
		pain_points_json TEXT,
		target_audience TEXT,
		known_contacts_json TEXT,
		total_messages INTEGER NOT NULL DEFAULT 0,
		first_contact DATETIME,
		last_contact DATETIME,
		avg_frequency_days REAL NOT NULL DEFAULT 0,
		offer_type_distribution_json TEXT,
		cta_texts_all_json TEXT,
		social_links_json TEXT,
		physical_address TEXT,
		utm_campaign_names_json TEXT,
		has_personalization INTEGER NOT NULL DEFAULT 0,
		has_partner_program INTEGER NOT NULL DEFAULT 0,
		partner_program_urls_json TEXT,
		renewal_dates_json TEXT,
		monetary_signals_json TEXT,
		authentication_quality TEXT,
		unsubscribe_url TEXT,
		economic_segments_json TEXT,
		thread_initiation_ratio REAL NOT NULL DEFAULT 0,
		user_reply_rate REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sender_relationships (
		sender_domain TEXT PRIMARY KEY REFERENCES sender_profiles(sender_domain),
		relationship_type TEXT NOT NULL,
		note TEXT,
		suppress_gems INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS gems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gem_type TEXT NOT NULL,
		sender_domain TEXT NOT NULL REFERENCES sender_profiles(sender_domain),
		thread_id TEXT,
		score REAL NOT NULL DEFAULT 0,
		explanation_json TEXT,
		recommended_actions_json TEXT,
		source_message_ids_json TEXT,
		status TEXT NOT NULL DEFAULT 'new'
	)`,
	`CREATE TABLE IF NOT EXISTS sender_segments (
		sender_domain TEXT NOT NULL,
		segment TEXT NOT NULL,
		sub_segment TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (sender_domain, segment, sub_segment)
	)`,
	`CREATE TABLE IF NOT EXISTS engagement_drafts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gem_id INTEGER NOT NULL REFERENCES gems(id),
		sender_domain TEXT NOT NULL,
		strategy TEXT NOT NULL,
		channel TEXT NOT NULL DEFAULT 'email',
		subject_line TEXT,
		body_text TEXT,
		body_html TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		generated_at DATETIME NOT NULL,
		sent_at DATETIME,
		response_received INTEGER NOT NULL DEFAULT 0,
		response_sentiment TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		items_processed INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		config_snapshot TEXT,
		triggered_by TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ai_audit_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pipeline_run_id INTEGER NOT NULL REFERENCES pipeline_runs(id),
		stage TEXT NOT NULL,
		sender_domain TEXT,
		prompt_template_id TEXT,
		prompt_rendered TEXT,
		system_prompt TEXT,
		model_used TEXT,
		response_raw TEXT,
		response_parsed TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
}

var baseIndices = []string{
	`CREATE INDEX IF NOT EXISTS idx_messages_from_address ON messages(from_address)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_thread_id ON messages(thread_id)`,
	`CREATE INDEX IF NOT EXISTS idx_parsed_metadata_sender_domain ON parsed_metadata(sender_domain)`,
	`CREATE INDEX IF NOT EXISTS idx_extracted_entities_type ON extracted_entities(entity_type)`,
	`CREATE INDEX IF NOT EXISTS idx_extracted_entities_message_id ON extracted_entities(message_id)`,
	`CREATE INDEX IF NOT EXISTS idx_gems_type ON gems(gem_type)`,
	`CREATE INDEX IF NOT EXISTS idx_gems_score ON gems(score DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_gems_status ON gems(status)`,
	`CREATE INDEX IF NOT EXISTS idx_overrides_sender_domain ON classification_overrides(sender_domain)`,
}

// columnMigrations lists additive columns introduced after the base
// schema. Appended here rather than rewritten into baseTables, matching
// §4.1 "additive, new columns only".
var columnMigrations = []migration{
	{table: "threads", column: "sender_domain", ddl: `ALTER TABLE threads ADD COLUMN sender_domain TEXT NOT NULL DEFAULT ''`},
	{table: "threads", column: "initiated_by_user", ddl: `ALTER TABLE threads ADD COLUMN initiated_by_user INTEGER NOT NULL DEFAULT 0`},
}

// Migrate creates any missing tables/indices and applies any pending
// additive column migrations. Safe to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, ddl := range baseTables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, ddl := range baseIndices {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	for _, m := range columnMigrations {
		exists, err := columnExists(ctx, s.db, m.table, m.column)
		if err != nil {
			return fmt.Errorf("check column %s.%s: %w", m.table, m.column, err)
		}
		if exists {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("add column %s.%s: %w", m.table, m.column, err)
		}
	}
	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Reset drops every gemsieve-owned table, used only by `db --reset` in
// dev/test (SUPPLEMENTED FEATURES §1).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"ai_audit_entries", "pipeline_runs", "engagement_drafts", "sender_segments",
		"gems", "sender_relationships", "sender_profiles", "classification_overrides",
		"ai_classifications", "entity_extraction_done", "extracted_entities", "parsed_content", "sender_temporal",
		"parsed_metadata", "attachments", "threads", "messages", "sync_state",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", t)); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return s.Migrate(ctx)
}

// TableStats returns a row count per gemsieve-owned table, used by
// `db --stats`.
func (s *Store) TableStats(ctx context.Context) (map[string]int, error) {
	tables := []string{
		"messages", "threads", "attachments", "parsed_metadata", "sender_temporal",
		"parsed_content", "extracted_entities", "entity_extraction_done", "ai_classifications",
		"classification_overrides", "sender_profiles", "sender_relationships",
		"gems", "sender_segments", "engagement_drafts", "pipeline_runs", "ai_audit_entries",
	}
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out[t] = n
	}
	return out, nil
}
