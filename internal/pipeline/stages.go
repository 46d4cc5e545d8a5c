package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hoyack/gemsieve/internal/classify"
	"github.com/hoyack/gemsieve/internal/content"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/engage"
	"github.com/hoyack/gemsieve/internal/entities"
	"github.com/hoyack/gemsieve/internal/metadata"
	"github.com/hoyack/gemsieve/internal/profile"
	"github.com/hoyack/gemsieve/internal/segment"
)

// runMetadata extracts header/ESP/temporal metadata for every message not
// yet in parsed_metadata (§4.3).
func (o *Orchestrator) runMetadata(ctx context.Context, stage domain.StageName) (int, error) {
	ids, err := o.store.MessagesMissingFrom(ctx, "parsed_metadata", o.cfg.Pipeline.BatchSize)
	if err != nil {
		return 0, stageErr(stage, ErrKindSchema, err)
	}

	processed, runErr := runConcurrent(ctx, ids, o.cfg.Pipeline.MaxConcurrency, func(ctx context.Context, id string) error {
		msg, err := o.store.GetMessage(ctx, id)
		if err != nil {
			return fmt.Errorf("load message %s: %w", id, err)
		}
		pm := metadata.Extract(msg)
		return o.store.UpsertParsedMetadata(ctx, pm)
	})
	if runErr != nil {
		return processed, stageErr(stage, ErrKindInvariant, runErr)
	}

	if err := o.rollupTemporal(ctx); err != nil {
		return processed, stageErr(stage, ErrKindInvariant, err)
	}
	return processed, nil
}

// rollupTemporal recomputes the per-domain send-cadence rollup (§4.3) for
// every sender domain with metadata, not only the domains this run
// touched. Re-running it is always safe:
// RollupTemporal is a pure fold over a domain's full message history.
func (o *Orchestrator) rollupTemporal(ctx context.Context) error {
	domains, err := o.store.DistinctSenderDomains(ctx)
	if err != nil {
		return err
	}
	for _, d := range domains {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msgs, err := o.store.MessagesBySenderDomain(ctx, d)
		if err != nil {
			return err
		}
		rolled := metadata.RollupTemporal(d, datesOf(msgs))
		if err := o.store.UpsertSenderTemporal(ctx, rolled); err != nil {
			return err
		}
	}
	return nil
}

func datesOf(msgs []domain.Message) []time.Time {
	out := make([]time.Time, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Date)
	}
	return out
}

// runContent parses HTML/text content for every message not yet in
// parsed_content (§4.4).
func (o *Orchestrator) runContent(ctx context.Context, stage domain.StageName) (int, error) {
	ids, err := o.store.MessagesMissingFrom(ctx, "parsed_content", o.cfg.Pipeline.BatchSize)
	if err != nil {
		return 0, stageErr(stage, ErrKindSchema, err)
	}

	processed, runErr := runConcurrent(ctx, ids, o.cfg.Pipeline.MaxConcurrency, func(ctx context.Context, id string) error {
		msg, err := o.store.GetMessage(ctx, id)
		if err != nil {
			return fmt.Errorf("load message %s: %w", id, err)
		}
		pc := content.Parse(msg)
		return o.store.UpsertParsedContent(ctx, pc)
	})
	if runErr != nil {
		return processed, stageErr(stage, ErrKindInvariant, runErr)
	}
	return processed, nil
}

// runEntities extracts named entities for every message the entities stage
// hasn't visited yet. The backlog is tracked via entity_extraction_done
// rather than an anti-join on extracted_entities itself, since a message
// can legitimately yield zero entities (§4.5).
func (o *Orchestrator) runEntities(ctx context.Context, stage domain.StageName) (int, error) {
	ids, err := o.store.MessagesMissingFrom(ctx, "entity_extraction_done", o.cfg.Pipeline.BatchSize)
	if err != nil {
		return 0, stageErr(stage, ErrKindSchema, err)
	}

	processed, runErr := runConcurrent(ctx, ids, o.cfg.Pipeline.MaxConcurrency, func(ctx context.Context, id string) error {
		msg, err := o.store.GetMessage(ctx, id)
		if err != nil {
			return fmt.Errorf("load message %s: %w", id, err)
		}
		pc, err := o.store.GetParsedContent(ctx, id)
		if err != nil {
			return fmt.Errorf("load parsed content %s: %w", id, err)
		}
		ents, err := entities.Extract(ctx, msg, pc, o.tagger, o.cfg.Entities)
		if err != nil {
			return fmt.Errorf("extract entities %s: %w", id, err)
		}
		for _, e := range ents {
			if err := o.store.InsertEntity(ctx, e); err != nil {
				return fmt.Errorf("insert entity for %s: %w", id, err)
			}
		}
		return o.store.MarkEntityExtractionDone(ctx, id)
	})
	if runErr != nil {
		return processed, stageErr(stage, ErrKindInvariant, runErr)
	}
	return processed, nil
}

// runClassify calls the AI classifier for every message not yet in
// ai_classifications (§4.6).
func (o *Orchestrator) runClassify(ctx context.Context, runID int64, stage domain.StageName, triggeredBy domain.TriggeredBy) (int, error) {
	ids, err := o.store.MessagesMissingFrom(ctx, "ai_classifications", o.cfg.Pipeline.BatchSize)
	if err != nil {
		return 0, stageErr(stage, ErrKindSchema, err)
	}

	provider := o.auditedProvider(runID, stage, "classify.v1", triggeredBy)
	classifier := classify.New(o.store, provider, o.cfg.AI)

	processed, runErr := runConcurrent(ctx, ids, o.cfg.Pipeline.MaxConcurrency, func(ctx context.Context, id string) error {
		return classifier.ClassifyMessage(ctx, id)
	})
	if runErr != nil {
		return processed, stageErr(stage, ErrKindTransport, runErr)
	}
	return processed, nil
}

// runProfile re-assembles the sender profile, relationship and open gems
// for every sender domain with metadata (§4.7). Profiles are always fully
// rebuilt rather than patched, so an interrupted run is simply resumed by
// re-running the whole stage.
func (o *Orchestrator) runProfile(ctx context.Context, stage domain.StageName) (int, error) {
	domains, err := o.store.DistinctSenderDomains(ctx)
	if err != nil {
		return 0, stageErr(stage, ErrKindSchema, err)
	}

	gemCfg := profile.GemDetectionConfig{
		MinDormancyDays:  o.cfg.Pipeline.DormantThreadDays,
		TargetIndustries: o.cfg.Scoring.TargetIndustries,
		YourAudience:     o.cfg.Engage.YourAudience,
	}

	processed, runErr := runConcurrent(ctx, domains, o.cfg.Pipeline.MaxConcurrency, func(ctx context.Context, d string) error {
		p, err := profile.Assemble(ctx, o.store, d)
		if err != nil {
			return fmt.Errorf("assemble profile %s: %w", d, err)
		}

		rel, err := profile.ClassifyRelationship(ctx, o.store, o.known, p)
		if err != nil {
			return fmt.Errorf("classify relationship %s: %w", d, err)
		}
		if err := o.store.UpsertSenderRelationship(ctx, rel); err != nil {
			return fmt.Errorf("persist relationship %s: %w", d, err)
		}

		industryCount, err := o.industryProfileCount(ctx, p.Industry)
		if err != nil {
			return fmt.Errorf("count industry profiles %s: %w", d, err)
		}

		if _, err := profile.DetectGems(ctx, o.store, gemCfg, rel, p, industryCount); err != nil {
			return fmt.Errorf("detect gems %s: %w", d, err)
		}
		return nil
	})
	if runErr != nil {
		return processed, stageErr(stage, ErrKindInvariant, runErr)
	}
	return processed, nil
}

// industryProfileCount counts every sender profile sharing an industry
// label, the denominator detectIndustryIntel's ">=10 profiles" gate reads
// (§4.7.4).
func (o *Orchestrator) industryProfileCount(ctx context.Context, industry string) (int, error) {
	if industry == "" {
		return 0, nil
	}
	all, err := o.store.AllSenderProfiles(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range all {
		if p.Industry == industry {
			n++
		}
	}
	return n, nil
}

// runSegment assigns sub-segments and the final relationship-capped score
// for every sender domain with a profile (§4.8).
func (o *Orchestrator) runSegment(ctx context.Context, stage domain.StageName) (int, error) {
	all, err := o.store.AllSenderProfiles(ctx)
	if err != nil {
		return 0, stageErr(stage, ErrKindSchema, err)
	}

	domains := make([]string, 0, len(all))
	for _, p := range all {
		domains = append(domains, p.SenderDomain)
	}

	processed, runErr := runConcurrent(ctx, domains, o.cfg.Pipeline.MaxConcurrency, func(ctx context.Context, d string) error {
		p, err := o.store.GetSenderProfile(ctx, d)
		if err != nil {
			return fmt.Errorf("load profile %s: %w", d, err)
		}
		_, err = segment.Assign(ctx, o.store, o.cfg.Scoring, p)
		return err
	})
	if runErr != nil {
		return processed, stageErr(stage, ErrKindInvariant, runErr)
	}
	return processed, nil
}

// runEngage generates drafts for every open gem, respecting
// preferred_strategies and the daily-outreach cap (§4.9). Unlike the other
// stages it is never part of RunAll — it is only ever invoked directly.
func (o *Orchestrator) runEngage(ctx context.Context, runID int64, stage domain.StageName, triggeredBy domain.TriggeredBy) (int, error) {
	provider := o.auditedProvider(runID, stage, "engage.v1", triggeredBy)
	gen := engage.New(o.store, provider, o.cfg.Engage, o.cfg.AI.Model)

	total := 0
	for _, strategy := range allStrategies {
		if ctx.Err() != nil {
			return total, stageErr(stage, ErrKindCancellation, ctx.Err())
		}
		drafts, err := gen.GenerateBatch(ctx, strategy, 0, true)
		if err != nil {
			return total, stageErr(stage, ErrKindTransport, err)
		}
		total += len(drafts)
	}
	return total, nil
}

var allStrategies = []domain.Strategy{
	domain.StrategyAudit, domain.StrategyRevival, domain.StrategyPartner,
	domain.StrategyRenewalNegotiation, domain.StrategyIndustryReport,
	domain.StrategyMirror, domain.StrategyDistributionPitch,
}
