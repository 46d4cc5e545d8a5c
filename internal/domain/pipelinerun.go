package domain

import "time"

// PipelineRun is one invocation record for a single stage (§3, §4.10).
type PipelineRun struct {
	ID             int64       `json:"id"`
	Stage          StageName   `json:"stage"`
	Status         RunStatus   `json:"status"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	ItemsProcessed int         `json:"items_processed"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	ConfigSnapshot string      `json:"config_snapshot"` // JSON blob
	TriggeredBy    TriggeredBy `json:"triggered_by"`
}

// AIAuditEntry captures the exact prompt/response of one language-model
// call made under a pipeline run (§3, §4.10 "AI audit interceptor").
type AIAuditEntry struct {
	ID              int64     `json:"id"`
	PipelineRunID   int64     `json:"pipeline_run_id"`
	Stage           StageName `json:"stage"`
	SenderDomain    string    `json:"sender_domain"`
	PromptTemplateID string    `json:"prompt_template_id"`
	PromptRendered   string    `json:"prompt_rendered"`
	SystemPrompt     string    `json:"system_prompt"`
	ModelUsed        string    `json:"model_used"`
	ResponseRaw      string    `json:"response_raw"`
	ResponseParsed   string    `json:"response_parsed"` // JSON blob
	DurationMS       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
