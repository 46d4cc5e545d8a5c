// Package pipeline is gemsieve's stage orchestrator: it owns the stage
// registry, run records, bounded concurrency, live event broadcast, AI-call
// auditing, and a circuit breaker around the language model (a failed call
// is not retried), wiring together
// internal/metadata, internal/content, internal/entities, internal/classify,
// internal/profile, internal/segment and internal/engage behind one
// re-entrant, idempotent "run a stage" operation (§4.10, §5).
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/engage"
	"github.com/hoyack/gemsieve/internal/knownentities"
	"github.com/hoyack/gemsieve/internal/llm"
	"github.com/hoyack/gemsieve/internal/mailprovider"
	"github.com/hoyack/gemsieve/internal/ner"
	"github.com/hoyack/gemsieve/internal/store"
)

// stageOrder is the §4.10 fixed execution order for "Run all". engage is
// deliberately excluded — outreach generation is never part of the
// automatic sweep, only ever run explicitly (§4.9 "never auto-sent").
var stageOrder = []domain.StageName{
	domain.StageIngest,
	domain.StageMetadata,
	domain.StageContent,
	domain.StageEntities,
	domain.StageClassify,
	domain.StageProfile,
	domain.StageSegment,
}

// Orchestrator is the composition root tying every analytic package to the
// store, the mail collaborator, the NER tagger, the known-entities table
// and the configured language model. It is the generalized shape of the
// teacher's engine.Orchestrator: one struct holding concrete collaborators,
// a Start/Stop lifecycle, and mutex-guarded shared state, instead of a
// 48-agent ISP fleet it runs gemsieve's seven analytic stages.
type Orchestrator struct {
	store    *store.Store
	cfg      config.Config
	mail     mailprovider.Provider
	tagger   ner.Tagger
	known    *knownentities.Table
	events   Broadcaster
	provider llm.Provider

	mu       sync.Mutex
	running  map[domain.StageName]bool
	cancelFn context.CancelFunc
}

// New builds an Orchestrator. known may be knownentities.Empty() when no
// known-entities file is configured.
func New(st *store.Store, cfg config.Config, mail mailprovider.Provider, tagger ner.Tagger, known *knownentities.Table, events Broadcaster) (*Orchestrator, error) {
	provider, err := llm.New(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build ai provider: %w", err)
	}
	if events == nil {
		events = NoopBroadcaster{}
	}
	return &Orchestrator{
		store:    st,
		cfg:      cfg,
		mail:     mail,
		tagger:   tagger,
		known:    known,
		events:   events,
		provider: newBreakerProvider(provider, string(cfg.AI.Provider)),
		running:  map[domain.StageName]bool{},
	}, nil
}

// MailProvider returns the orchestrator's configured mail collaborator, so
// callers that need provider-specific capabilities beyond the Provider
// interface (the CLI's ingest --query, via a type assertion) can reach it
// without the orchestrator itself knowing about any concrete provider.
func (o *Orchestrator) MailProvider() mailprovider.Provider {
	return o.mail
}

// IsRunning reports whether the named stage currently has a run in flight.
func (o *Orchestrator) IsRunning(stage domain.StageName) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running[stage]
}

// Stop cancels any run started through RunAllAsync. RunStage/RunAll calls
// made directly with the caller's own context are unaffected — Stop only
// reaches background work this orchestrator itself started.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelFn != nil {
		o.cancelFn()
		o.cancelFn = nil
	}
}

// RunAllAsync starts RunAll in a background goroutine, cancellable via
// Stop, for the admin surface's "start a sweep" button (§6.5).
func (o *Orchestrator) RunAllAsync(parent context.Context, triggeredBy domain.TriggeredBy) {
	ctx, cancel := context.WithCancel(parent)
	o.mu.Lock()
	o.cancelFn = cancel
	o.mu.Unlock()

	go func() {
		if _, err := o.RunAll(ctx, triggeredBy); err != nil {
			log.Printf("pipeline: run all: %v", err)
		}
	}()
}

// RunAll runs every stage in stageOrder in sequence, stopping at the first
// stage that fails (§4.10 "Run all").
func (o *Orchestrator) RunAll(ctx context.Context, triggeredBy domain.TriggeredBy) ([]domain.PipelineRun, error) {
	var runs []domain.PipelineRun
	for _, stage := range stageOrder {
		run, err := o.RunStage(ctx, stage, triggeredBy)
		runs = append(runs, run)
		if err != nil {
			return runs, err
		}
	}
	return runs, nil
}

// RunStage runs one stage to completion, recording a pipeline_runs row and
// broadcasting started/done/failed events around it. Running the same
// stage twice concurrently is rejected — two instances of a stage racing
// over the same backlog would double-process idempotent work for nothing
// (§5 "never run two instances of the same stage in parallel").
func (o *Orchestrator) RunStage(ctx context.Context, stage domain.StageName, triggeredBy domain.TriggeredBy) (domain.PipelineRun, error) {
	run, err := o.beginRun(ctx, stage, triggeredBy)
	if err != nil {
		return run, err
	}
	return o.finishRun(ctx, run, triggeredBy)
}

// StartStageAsync begins a stage run and returns its run id as soon as the
// pipeline_runs row exists, running the stage body in the background — the
// admin surface's `POST /api/pipeline/run/{stage}` contract, which "returns
// a run id" rather than blocking on the whole stage (§6.5). Unlike
// RunAllAsync, a stage started this way is not reachable from Stop(); the
// admin surface polls GET /api/pipeline/status/{run_id} instead.
func (o *Orchestrator) StartStageAsync(stage domain.StageName, triggeredBy domain.TriggeredBy) (int64, error) {
	run, err := o.beginRun(context.Background(), stage, triggeredBy)
	if err != nil {
		return 0, err
	}
	go func() {
		if _, err := o.finishRun(context.Background(), run, triggeredBy); err != nil {
			log.Printf("pipeline: run %d: %v", run.ID, err)
		}
	}()
	return run.ID, nil
}

// beginRun claims the same-stage-concurrency slot and records the run's
// "running" row, returning before the stage body executes.
func (o *Orchestrator) beginRun(ctx context.Context, stage domain.StageName, triggeredBy domain.TriggeredBy) (domain.PipelineRun, error) {
	o.mu.Lock()
	if o.running[stage] {
		o.mu.Unlock()
		return domain.PipelineRun{}, stageErr(stage, ErrKindInvariant, fmt.Errorf("stage already running"))
	}
	o.running[stage] = true
	o.mu.Unlock()

	snapshot, err := json.Marshal(redactedConfig(o.cfg))
	if err != nil {
		snapshot = []byte("{}")
	}

	run := domain.PipelineRun{
		Stage:          stage,
		Status:         domain.RunRunning,
		StartedAt:      time.Now().UTC(),
		ConfigSnapshot: string(snapshot),
		TriggeredBy:    triggeredBy,
	}
	runID, err := o.store.InsertRun(ctx, run)
	if err != nil {
		o.mu.Lock()
		o.running[stage] = false
		o.mu.Unlock()
		return run, fmt.Errorf("pipeline: insert run: %w", err)
	}
	run.ID = runID
	o.events.Publish(ctx, Event{RunID: runID, Stage: stage, Kind: "started", At: time.Now().UTC()})
	return run, nil
}

// finishRun executes a begun run's stage body and records its outcome.
// Always pairs with a beginRun that returned successfully; releases the
// stage's running slot unconditionally.
func (o *Orchestrator) finishRun(ctx context.Context, run domain.PipelineRun, triggeredBy domain.TriggeredBy) (domain.PipelineRun, error) {
	stage := run.Stage
	defer func() {
		o.mu.Lock()
		o.running[stage] = false
		o.mu.Unlock()
	}()

	items, runErr := o.runStageBody(ctx, run.ID, stage, triggeredBy)
	return o.completeRun(ctx, run, items, runErr)
}

// completeRun records a begun run's outcome — completion status, item
// count, error message, and the done/failed broadcast event — shared by
// finishRun and GenerateForGem, which both begin a run but diverge on what
// runs in between.
func (o *Orchestrator) completeRun(ctx context.Context, run domain.PipelineRun, items int, runErr error) (domain.PipelineRun, error) {
	completedAt := time.Now().UTC()
	status := domain.RunCompleted
	errMsg := ""
	kind := "done"
	if runErr != nil {
		status = domain.RunFailed
		errMsg = runErr.Error()
		kind = "failed"
	}
	if err := o.store.CompleteRun(ctx, run.ID, status, completedAt, items, errMsg); err != nil {
		log.Printf("pipeline: complete run %d: %v", run.ID, err)
	}
	o.events.Publish(ctx, Event{RunID: run.ID, Stage: run.Stage, Kind: kind, Message: errMsg, At: completedAt})

	run.Status = status
	run.CompletedAt = &completedAt
	run.ItemsProcessed = items
	run.ErrorMessage = errMsg
	return run, runErr
}

// GenerateForGem generates one engagement draft immediately outside the
// normal stage sweep (§4.9 "a specific gem id is requested" bypasses
// preferred_strategies and the daily cap). It still opens and closes a
// pipeline_runs row under the engage stage, so a web-triggered call leaves
// the same audit trail any other stage run does.
func (o *Orchestrator) GenerateForGem(ctx context.Context, gemID int64, triggeredBy domain.TriggeredBy) (domain.EngagementDraft, error) {
	run, err := o.beginRun(ctx, domain.StageEngage, triggeredBy)
	if err != nil {
		return domain.EngagementDraft{}, err
	}
	defer func() {
		o.mu.Lock()
		o.running[domain.StageEngage] = false
		o.mu.Unlock()
	}()

	provider := o.auditedProvider(run.ID, domain.StageEngage, "engage.v1", triggeredBy)
	draft, genErr := engage.New(o.store, provider, o.cfg.Engage, o.cfg.AI.Model).GenerateForGem(ctx, gemID)

	items := 0
	if genErr == nil {
		items = 1
	} else {
		genErr = stageErr(domain.StageEngage, ErrKindTransport, genErr)
	}
	if _, err := o.completeRun(ctx, run, items, genErr); err != nil {
		return domain.EngagementDraft{}, err
	}
	return draft, nil
}

// GenerateBatch generates drafts for one strategy outside the normal stage
// sweep (§6.1 "generate --strategy S --top N|--all"), unlike RunStage's
// engage stage which always sweeps every strategy at once. It opens and
// closes its own pipeline_runs row the same way GenerateForGem does.
func (o *Orchestrator) GenerateBatch(ctx context.Context, strategy domain.Strategy, limit int, all bool, triggeredBy domain.TriggeredBy) ([]domain.EngagementDraft, error) {
	run, err := o.beginRun(ctx, domain.StageEngage, triggeredBy)
	if err != nil {
		return nil, err
	}
	defer func() {
		o.mu.Lock()
		o.running[domain.StageEngage] = false
		o.mu.Unlock()
	}()

	provider := o.auditedProvider(run.ID, domain.StageEngage, "engage.v1", triggeredBy)
	drafts, genErr := engage.New(o.store, provider, o.cfg.Engage, o.cfg.AI.Model).GenerateBatch(ctx, strategy, limit, all)
	if genErr != nil {
		genErr = stageErr(domain.StageEngage, ErrKindTransport, genErr)
	}
	if _, err := o.completeRun(ctx, run, len(drafts), genErr); err != nil {
		return nil, err
	}
	return drafts, nil
}

// runStageBody dispatches to the stage's own implementation and returns
// the count of items processed (messages for the ingest-through-classify
// stages, sender domains for profile/segment, drafts generated for engage).
func (o *Orchestrator) runStageBody(ctx context.Context, runID int64, stage domain.StageName, triggeredBy domain.TriggeredBy) (int, error) {
	switch stage {
	case domain.StageIngest:
		return o.runIngest(ctx, stage)
	case domain.StageMetadata:
		return o.runMetadata(ctx, stage)
	case domain.StageContent:
		return o.runContent(ctx, stage)
	case domain.StageEntities:
		return o.runEntities(ctx, stage)
	case domain.StageClassify:
		return o.runClassify(ctx, runID, stage, triggeredBy)
	case domain.StageProfile:
		return o.runProfile(ctx, stage)
	case domain.StageSegment:
		return o.runSegment(ctx, stage)
	case domain.StageEngage:
		return o.runEngage(ctx, runID, stage, triggeredBy)
	default:
		return 0, stageErr(stage, ErrKindConfig, fmt.Errorf("unknown stage %q", stage))
	}
}

// redactedConfig strips secrets out of a config before it's persisted as a
// run's config_snapshot — the AI API key must never end up sitting in the
// database in plaintext just because a run happened to record its config.
func redactedConfig(cfg config.Config) config.Config {
	if cfg.AI.APIKey != "" {
		cfg.AI.APIKey = "REDACTED"
	}
	return cfg
}

// noopRecorder discards AI audit entries — used on the CLI path, where
// audit logging is deliberately off by convention (§4.10 "audit logging
// active only for web").
type noopRecorder struct{}

func (noopRecorder) InsertAuditEntry(ctx context.Context, entry domain.AIAuditEntry) error {
	return nil
}

// auditedProvider wraps the orchestrator's circuit-broken provider with
// per-run audit logging. CLI-triggered runs get a recorder that discards
// every entry, so the wrapping is uniform but only web runs leave a trail.
func (o *Orchestrator) auditedProvider(runID int64, stage domain.StageName, templateID string, triggeredBy domain.TriggeredBy) *llm.AuditedProvider {
	if triggeredBy != domain.TriggeredByWeb {
		return llm.NewAuditedProvider(o.provider, noopRecorder{}, runID, stage, templateID)
	}
	return llm.NewAuditedProvider(o.provider, o.store, runID, stage, templateID)
}
