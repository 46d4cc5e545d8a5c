// Package engage generates engagement drafts: per-gem-type strategy
// routing, prompt assembly, and the AI call that produces a subject line
// and body (§4.9).
package engage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/llm"
	"github.com/hoyack/gemsieve/internal/prompttpl"
)

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now

// Store is the subset of internal/store.Store the engagement generator
// needs.
type Store interface {
	GetGem(ctx context.Context, id int64) (domain.Gem, error)
	ListGems(ctx context.Context, status domain.GemStatus, gemType domain.GemType, limit int) ([]domain.Gem, error)
	GetSenderProfile(ctx context.Context, senderDomain string) (domain.SenderProfile, error)
	GetThread(ctx context.Context, threadID string) (domain.Thread, error)
	InsertDraft(ctx context.Context, d domain.EngagementDraft) (int64, error)
	DraftsGeneratedSince(ctx context.Context, since time.Time) (int, error)
}

// completer is the narrow slice of llm.AuditedProvider engage calls —
// every draft generation call is audited and sender-attributed.
type completer interface {
	CompleteFor(ctx context.Context, req llm.Request, senderDomain string) (llm.Response, error)
}

// strategyByGemType implements the §4.9 "each gem type maps to one of
// seven strategies" routing table.
var strategyByGemType = map[domain.GemType]domain.Strategy{
	domain.GemDormantWarmThread:   domain.StrategyRevival,
	domain.GemUnansweredAsk:       domain.StrategyMirror,
	domain.GemWeakMarketingLead:   domain.StrategyAudit,
	domain.GemPartnerProgram:      domain.StrategyPartner,
	domain.GemRenewalLeverage:     domain.StrategyRenewalNegotiation,
	domain.GemDistributionChannel: domain.StrategyDistributionPitch,
	domain.GemCoMarketing:         domain.StrategyDistributionPitch,
	domain.GemIndustryIntel:       domain.StrategyIndustryReport,
	domain.GemProcurementSignal:   domain.StrategyMirror,
}

// RouteStrategy returns the strategy a gem type maps to. The fallback
// case is unreachable in practice — every live gem type is listed above
// and vendor_upsell is retired and never emitted (§4.7.4) — but is kept
// explicit rather than a zero-value panic.
func RouteStrategy(gemType domain.GemType) domain.Strategy {
	if s, ok := strategyByGemType[gemType]; ok {
		return s
	}
	return domain.StrategyMirror
}

// Generator produces engagement drafts for gems.
type Generator struct {
	store    Store
	provider completer
	tpl      *prompttpl.Engine
	cfg      config.EngageConfig
	aiModel  string
}

// New builds a Generator. provider is expected to be an
// *llm.AuditedProvider so every call lands in the AI audit trail. model
// is the AI config's model string (engagement drafts share the
// classifier's provider/model selection, §6.2 "ai.*").
func New(store Store, provider completer, cfg config.EngageConfig, model string) *Generator {
	return &Generator{store: store, provider: provider, tpl: prompttpl.New(), cfg: cfg, aiModel: model}
}

// GenerateForGem generates a draft for one gem, bypassing the
// preferred_strategies filter and the max_outreach_per_day cap — both
// only apply "unless a specific gem id is requested" (§4.9).
func (g *Generator) GenerateForGem(ctx context.Context, gemID int64) (domain.EngagementDraft, error) {
	gem, err := g.store.GetGem(ctx, gemID)
	if err != nil {
		return domain.EngagementDraft{}, fmt.Errorf("engage: load gem: %w", err)
	}
	return g.generate(ctx, gem)
}

// GenerateBatch generates drafts for every open gem matching strategy,
// applying the preferred_strategies filter and the max_outreach_per_day
// cap. limit caps the number of gems considered; pass 0 (with all=true)
// to mean "every eligible gem" capped only by max_drafts_per_run.
func (g *Generator) GenerateBatch(ctx context.Context, strategy domain.Strategy, limit int, all bool) ([]domain.EngagementDraft, error) {
	if len(g.cfg.PreferredStrategies) > 0 && !containsStrategy(g.cfg.PreferredStrategies, strategy) {
		return nil, nil
	}

	gems, err := g.store.ListGems(ctx, domain.GemStatusNew, "", 0)
	if err != nil {
		return nil, fmt.Errorf("engage: list gems: %w", err)
	}

	var matching []domain.Gem
	for _, gm := range gems {
		if RouteStrategy(gm.GemType) == strategy {
			matching = append(matching, gm)
		}
	}

	maxDrafts := g.cfg.MaxDraftsPerRun
	if !all && limit > 0 && (maxDrafts == 0 || limit < maxDrafts) {
		maxDrafts = limit
	}

	startOfDay := time.Date(nowFunc().Year(), nowFunc().Month(), nowFunc().Day(), 0, 0, 0, 0, nowFunc().Location())
	generatedToday, err := g.store.DraftsGeneratedSince(ctx, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("engage: count today's drafts: %w", err)
	}

	var drafts []domain.EngagementDraft
	for _, gm := range matching {
		if g.cfg.MaxOutreachPerDay > 0 && generatedToday >= g.cfg.MaxOutreachPerDay {
			break
		}
		if maxDrafts > 0 && len(drafts) >= maxDrafts {
			break
		}
		draft, err := g.generate(ctx, gm)
		if err != nil {
			return drafts, err
		}
		drafts = append(drafts, draft)
		generatedToday++
	}
	return drafts, nil
}

func containsStrategy(list []string, s domain.Strategy) bool {
	for _, v := range list {
		if strings.EqualFold(v, string(s)) {
			return true
		}
	}
	return false
}

func (g *Generator) generate(ctx context.Context, gem domain.Gem) (domain.EngagementDraft, error) {
	profile, err := g.store.GetSenderProfile(ctx, gem.SenderDomain)
	if err != nil {
		return domain.EngagementDraft{}, fmt.Errorf("engage: load profile: %w", err)
	}

	strategy := RouteStrategy(gem.GemType)
	vars, err := g.buildContext(ctx, strategy, gem, profile)
	if err != nil {
		return domain.EngagementDraft{}, fmt.Errorf("engage: build context: %w", err)
	}

	prompt, err := g.tpl.Render(string(strategy), templateForStrategy(strategy), vars)
	if err != nil {
		return domain.EngagementDraft{}, fmt.Errorf("engage: render prompt: %w", err)
	}

	resp, err := g.provider.CompleteFor(ctx, llm.Request{
		System:   engagementSystemPrompt,
		User:     prompt,
		Model:    g.aiModel,
		JSONMode: true,
	}, gem.SenderDomain)
	if err != nil {
		return domain.EngagementDraft{}, fmt.Errorf("engage: ai call: %w", err)
	}

	var parsed draftResponsePayload
	draft := domain.EngagementDraft{
		GemID:        gem.ID,
		SenderDomain: gem.SenderDomain,
		Strategy:     strategy,
		Channel:      "email",
		Status:       domain.DraftStatusDraft,
		GeneratedAt:  nowFunc(),
	}
	if err := json.Unmarshal([]byte(resp.Text), &parsed); err != nil {
		draft.Status = domain.DraftStatusDraft
		draft.SubjectLine = ""
		draft.BodyText = fmt.Sprintf("draft generation error: invalid JSON response: %v", err)
	} else {
		draft.SubjectLine = parsed.SubjectLine
		draft.BodyText = parsed.Body
	}

	id, err := g.store.InsertDraft(ctx, draft)
	if err != nil {
		return domain.EngagementDraft{}, fmt.Errorf("engage: persist draft: %w", err)
	}
	draft.ID = id
	return draft, nil
}

type draftResponsePayload struct {
	SubjectLine string `json:"subject_line"`
	Body        string `json:"body"`
}

// buildContext assembles the variable map every strategy template reads,
// plus the strategy-specific additions (§4.9).
func (g *Generator) buildContext(ctx context.Context, strategy domain.Strategy, gem domain.Gem, p domain.SenderProfile) (map[string]interface{}, error) {
	explanationJSON, err := json.Marshal(gem.Explanation)
	if err != nil {
		return nil, err
	}

	contactName, contactRole := bestContact(p.KnownContacts)

	vars := map[string]interface{}{
		"company_name":        orFallback(p.CompanyName, gem.SenderDomain),
		"contact_name":        contactName,
		"contact_role":        contactRole,
		"industry":            p.Industry,
		"company_size":        string(p.CompanySize),
		"esp_used":            p.ESPUsed,
		"sophistication":      p.MarketingSophisticationAvg,
		"product_description": p.ProductDescription,
		"pain_points":         p.PainPoints,
		"your_service":        g.cfg.YourService,
		"your_tone":           g.cfg.YourTone,
		"your_audience":       g.cfg.YourAudience,
		"gem_type":            string(gem.GemType),
		"gem_explanation":     string(explanationJSON),
		"observation":         observation(p),
	}

	switch strategy {
	case domain.StrategyRevival:
		th, err := g.store.GetThread(ctx, gem.ThreadID)
		if err != nil {
			th = domain.Thread{}
		}
		vars["thread_subject"] = th.NormalizedSubject
		vars["dormancy_days"] = th.DaysDormant
	case domain.StrategyRenewalNegotiation:
		vars["renewal_dates"] = p.RenewalDates
		vars["monetary_signals"] = p.MonetarySignals
	case domain.StrategyPartner:
		vars["partner_urls"] = p.PartnerProgramURLs
	case domain.StrategyDistributionPitch:
		vars["target_audience"] = p.TargetAudience
	}

	return vars, nil
}

// bestContact returns the highest-priority known contact's name and role
// ("best person from profile by rank", §4.9). KnownContacts is already
// collapsed and rank-ordered by internal/profile.Assemble.
func bestContact(contacts []domain.Contact) (string, string) {
	if len(contacts) == 0 {
		return "", ""
	}
	return contacts[0].Name, contacts[0].Role
}

func orFallback(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// observation derives a one-line hook from the profile: a sample CTA
// text if one exists, else the most common offer type (§4.9
// "observation (a derived one-liner)").
func observation(p domain.SenderProfile) string {
	if len(p.CTATextsAll) > 0 {
		return p.CTATextsAll[0]
	}
	topOffer, count := "", 0
	for offer, n := range p.OfferTypeDistribution {
		if n > count {
			topOffer, count = offer, n
		}
	}
	if topOffer != "" {
		return fmt.Sprintf("frequently uses %s offers", topOffer)
	}
	return ""
}
