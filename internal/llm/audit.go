package llm

import (
	"context"
	"time"

	"github.com/hoyack/gemsieve/internal/domain"
)

// Recorder persists one audited AI call. internal/store.Store implements
// this via InsertAuditEntry; kept as a narrow interface so llm never
// imports store.
type Recorder interface {
	InsertAuditEntry(ctx context.Context, entry domain.AIAuditEntry) error
}

// AuditedProvider decorates a Provider with the AI-call audit trail every
// stage's language-model call must produce (§4.10 "AI audit interceptor").
// It implements the same Provider contract so call sites never know
// they're being audited — the same decorator shape as the teacher's
// OpenAIAgent wrapping a plain Agent for data access.
type AuditedProvider struct {
	inner        Provider
	recorder     Recorder
	runID        int64
	stage        domain.StageName
	templateID   string
}

// NewAuditedProvider wraps inner so every Complete call is logged against
// runID/stage/templateID before the result is returned to the caller.
func NewAuditedProvider(inner Provider, recorder Recorder, runID int64, stage domain.StageName, templateID string) *AuditedProvider {
	return &AuditedProvider{inner: inner, recorder: recorder, runID: runID, stage: stage, templateID: templateID}
}

// Complete calls the wrapped provider, then records the prompt, response,
// and latency — errors from the inner call are recorded too (with an
// empty response) because a failed call is still audit-worthy (§5).
func (a *AuditedProvider) Complete(ctx context.Context, req Request) (Response, error) {
	return a.CompleteFor(ctx, req, "")
}

// CompleteFor is Complete with an explicit sender domain attached to the
// audit row, used by classify/engage where every call is about one sender.
func (a *AuditedProvider) CompleteFor(ctx context.Context, req Request, senderDomain string) (Response, error) {
	start := time.Now()
	resp, err := a.inner.Complete(ctx, req)
	duration := time.Since(start)

	entry := domain.AIAuditEntry{
		PipelineRunID:    a.runID,
		Stage:            a.stage,
		SenderDomain:     senderDomain,
		PromptTemplateID: a.templateID,
		PromptRendered:   req.User,
		SystemPrompt:     req.System,
		ModelUsed:        resp.ModelUsed,
		ResponseRaw:      resp.RawPayload,
		ResponseParsed:   resp.Text,
		DurationMS:       duration.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}
	if recErr := a.recorder.InsertAuditEntry(ctx, entry); recErr != nil {
		// audit logging must never mask the underlying call's own error.
		if err == nil {
			err = recErr
		}
	}
	return resp, err
}
