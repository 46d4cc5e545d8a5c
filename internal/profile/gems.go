package profile

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/hoyack/gemsieve/internal/domain"
)

// GemStore is the subset of internal/store.Store the gem detector needs.
type GemStore interface {
	ThreadsForSenderDomain(ctx context.Context, senderDomain string) ([]domain.Thread, error)
	MessagesBySenderDomain(ctx context.Context, senderDomain string) ([]domain.Message, error)
	EntitiesForMessages(ctx context.Context, messageIDs []string) ([]domain.ExtractedEntity, error)
	ClassificationsByMessageIDs(ctx context.Context, messageIDs []string) (map[string]domain.AIClassification, error)
	OpenGemsForDomain(ctx context.Context, senderDomain string) ([]domain.Gem, error)
	InsertGem(ctx context.Context, g domain.Gem) (int64, error)
}

// GemDetectionConfig bundles the operator-tunable knobs gem detection
// reads from config.PipelineConfig/config.ScoringConfig/config.EngageConfig.
type GemDetectionConfig struct {
	MinDormancyDays int
	TargetIndustries []string
	YourAudience    []string
}

// eligibility is the §4.7.4 relationship-type gate per gem type.
// vendor_upsell is retired and deliberately absent — never emitted.
var eligibility = map[domain.GemType][]domain.RelationshipType{
	domain.GemDormantWarmThread:  {domain.RelInboundProspect, domain.RelWarmContact, domain.RelPotentialPartner},
	domain.GemUnansweredAsk:      {domain.RelInboundProspect, domain.RelWarmContact, domain.RelPotentialPartner},
	domain.GemWeakMarketingLead:  {domain.RelInboundProspect, domain.RelWarmContact},
	domain.GemPartnerProgram:     {domain.RelMyVendor, domain.RelWarmContact, domain.RelPotentialPartner},
	domain.GemRenewalLeverage:    {domain.RelMyVendor, domain.RelMyServiceProvider, domain.RelMyInfrastructure},
	domain.GemDistributionChannel: {domain.RelWarmContact, domain.RelPotentialPartner, domain.RelCommunity},
	domain.GemCoMarketing:        {domain.RelWarmContact, domain.RelPotentialPartner},
	domain.GemIndustryIntel:      {domain.RelSellingToMe, domain.RelInboundProspect, domain.RelWarmContact, domain.RelPotentialPartner, domain.RelCommunity},
	domain.GemProcurementSignal:  {domain.RelInboundProspect, domain.RelWarmContact},
}

func eligible(gemType domain.GemType, rel domain.RelationshipType) bool {
	for _, r := range eligibility[gemType] {
		if r == rel {
			return true
		}
	}
	return false
}

var (
	pricingPattern         = regexp.MustCompile(`(?i)\b(pricing|price list|how much (does|would|is)|cost of|quote for|what('| i)s your rate)\b`)
	meetingRequestPattern  = regexp.MustCompile(`(?i)\b(schedule a (call|meeting|demo)|set up (a )?(call|meeting)|find time to (chat|talk|connect)|book a (time|slot))\b`)
	explicitAskPattern     = regexp.MustCompile(`(?i)\b(can you|could you|would you|do you have|are you able to|let me know if)\b`)
	followUpPattern        = regexp.MustCompile(`(?i)\b(following up|just checking in|wanted to follow up|circling back|any update)\b`)
	decisionMakerMention   = regexp.MustCompile(`(?i)\b(our (ceo|cfo|coo|cto|vp|director)|decision[- ]maker|final say|sign[- ]off from)\b`)
	budgetIndicatorPattern = regexp.MustCompile(`(?i)\b(budget (for|of|is|allocated)|we('| ha)ve (a )?budget|approved budget|budget approval)\b`)
	completionSignalPattern = regexp.MustCompile(`(?i)\b(final (deliverable|version|report|invoice)|project (complete|finished|wrapped|closed)|thanks? for (everything|your work|the help)|great working with you|contract (ended|expired|terminated)|engagement (complete|concluded)|closing out (this|the) project|all set.*thanks)\b`)
	distributionContentPattern = regexp.MustCompile(`(?i)\b(guest post|call for speakers|submit your story|podcast interview|sponsorship opportunit)\w*\b`)
)

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now

// DetectGems runs every eligible gem rule against one profile and persists
// newly found gems, skipping any gem type already open for the domain
// (§4.7.4 "re-running must not duplicate an open gem").
func DetectGems(ctx context.Context, store GemStore, cfg GemDetectionConfig, rel domain.SenderRelationship, p domain.SenderProfile, industryProfileCount int) ([]domain.Gem, error) {
	if rel.SuppressGems {
		return nil, nil
	}

	msgs, err := store.MessagesBySenderDomain(ctx, p.SenderDomain)
	if err != nil {
		return nil, fmt.Errorf("profile: gems: load messages: %w", err)
	}
	ids := make([]string, len(msgs))
	byThread := map[string][]domain.Message{}
	for i, m := range msgs {
		ids[i] = m.MessageID
		byThread[m.ThreadID] = append(byThread[m.ThreadID], m)
	}
	ents, err := store.EntitiesForMessages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("profile: gems: load entities: %w", err)
	}
	classifications, err := store.ClassificationsByMessageIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("profile: gems: load classifications: %w", err)
	}
	threads, err := store.ThreadsForSenderDomain(ctx, p.SenderDomain)
	if err != nil {
		return nil, fmt.Errorf("profile: gems: load threads: %w", err)
	}
	open, err := store.OpenGemsForDomain(ctx, p.SenderDomain)
	if err != nil {
		return nil, fmt.Errorf("profile: gems: load open gems: %w", err)
	}

	var candidates []domain.Gem
	for _, th := range threads {
		if g := detectDormantWarmThread(cfg, rel.RelationshipType, th, byThread[th.ThreadID], ents); g != nil {
			candidates = append(candidates, *g)
		}
		if g := detectUnansweredAsk(rel.RelationshipType, th, ents); g != nil {
			candidates = append(candidates, *g)
		}
	}
	if g := detectWeakMarketingLead(cfg, rel.RelationshipType, p); g != nil {
		candidates = append(candidates, *g)
	}
	if g := detectPartnerProgram(rel.RelationshipType, p, ents); g != nil {
		candidates = append(candidates, *g)
	}
	if g := detectRenewalLeverage(rel.RelationshipType, p, ents, classifications); g != nil {
		candidates = append(candidates, *g)
	}
	if g := detectDistributionChannel(rel.RelationshipType, p, classifications, msgs); g != nil {
		candidates = append(candidates, *g)
	}
	if g := detectCoMarketing(cfg, rel.RelationshipType, p, classifications); g != nil {
		candidates = append(candidates, *g)
	}
	if g := detectIndustryIntel(rel.RelationshipType, p, industryProfileCount); g != nil {
		candidates = append(candidates, *g)
	}
	if g := detectProcurementSignal(rel.RelationshipType, p, ents); g != nil {
		candidates = append(candidates, *g)
	}

	openKey := func(gemType domain.GemType, threadID string) string { return string(gemType) + "|" + threadID }
	openSet := map[string]bool{}
	for _, g := range open {
		openSet[openKey(g.GemType, g.ThreadID)] = true
	}

	var inserted []domain.Gem
	for _, g := range candidates {
		if openSet[openKey(g.GemType, g.ThreadID)] {
			continue
		}
		id, err := store.InsertGem(ctx, g)
		if err != nil {
			return inserted, fmt.Errorf("profile: gems: insert %s: %w", g.GemType, err)
		}
		g.ID = id
		inserted = append(inserted, g)
		openSet[openKey(g.GemType, g.ThreadID)] = true
	}
	return inserted, nil
}

func threadText(msgs []domain.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Subject)
		b.WriteString("\n")
		b.WriteString(m.TextBody)
		b.WriteString("\n")
	}
	return b.String()
}

// warmSignalScan implements the §4.7.4 warm-signal category table: first
// match per category, capped at 30.
func warmSignalScan(text string) (int, []string) {
	type category struct {
		name    string
		pattern *regexp.Regexp
		points  int
	}
	categories := []category{
		{"pricing", pricingPattern, 15},
		{"meeting_request", meetingRequestPattern, 12},
		{"explicit_ask", explicitAskPattern, 10},
		{"follow_up", followUpPattern, 5},
		{"decision_maker_mention", decisionMakerMention, 8},
		{"budget_indicator", budgetIndicatorPattern, 12},
	}
	var total int
	var hits []string
	for _, c := range categories {
		if c.pattern.MatchString(text) {
			total += c.points
			hits = append(hits, c.name)
		}
	}
	if total > 30 {
		total = 30
	}
	return total, hits
}

func hasMoneyEntity(ents []domain.ExtractedEntity, messageIDs map[string]bool) bool {
	for _, e := range ents {
		if e.Type == domain.EntityMoney && (messageIDs == nil || messageIDs[e.MessageID]) {
			return true
		}
	}
	return false
}

func hasDecisionMakerEntity(ents []domain.ExtractedEntity, messageIDs map[string]bool) bool {
	for _, e := range ents {
		if e.Type == domain.EntityPerson && e.Context == string(domain.PersonDecisionMaker) && (messageIDs == nil || messageIDs[e.MessageID]) {
			return true
		}
	}
	return false
}

func idSet(msgs []domain.Message) map[string]bool {
	out := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		out[m.MessageID] = true
	}
	return out
}

// detectDormantWarmThread implements the §4.7.4 six-gate pipeline.
func detectDormantWarmThread(cfg GemDetectionConfig, rel domain.RelationshipType, th domain.Thread, msgs []domain.Message, ents []domain.ExtractedEntity) *domain.Gem {
	if !eligible(domain.GemDormantWarmThread, rel) {
		return nil
	}
	if th.AwaitingResponseFrom != domain.AwaitingUser {
		return nil
	}
	minDays := cfg.MinDormancyDays
	if minDays == 0 {
		minDays = 14
	}
	if th.DaysDormant < minDays {
		return nil
	}
	if !th.UserParticipated {
		return nil
	}
	if th.MessageCount < 2 {
		return nil
	}

	text := threadText(msgs)
	boost, hits := warmSignalScan(text)
	if boost == 0 {
		return nil
	}

	last := msgs
	if len(last) > 3 {
		last = last[len(last)-3:]
	}
	if completionSignalPattern.MatchString(threadText(last)) {
		return nil
	}

	ids := idSet(msgs)
	entityBonus := 0
	if hasMoneyEntity(ents, ids) {
		entityBonus += 10
		hits = append(hits, "money_entity")
	}
	if hasDecisionMakerEntity(ents, ids) {
		entityBonus += 8
		hits = append(hits, "decision_maker_entity")
	}

	const base = 50
	score := clampScore(float64(base + boost + entityBonus))

	urgency := domain.UrgencyLow
	switch {
	case boost >= 25:
		urgency = domain.UrgencyHigh
	case boost >= 10:
		urgency = domain.UrgencyMedium
	}

	signals := make([]domain.GemSignal, 0, len(hits))
	for _, h := range hits {
		signals = append(signals, domain.GemSignal{Signal: h})
	}

	return &domain.Gem{
		GemType:      domain.GemDormantWarmThread,
		SenderDomain: th.SenderDomain,
		ThreadID:     th.ThreadID,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType:        domain.GemDormantWarmThread,
			Summary:        fmt.Sprintf("Thread dormant %d days awaiting your reply, with warm signals: %s", th.DaysDormant, strings.Join(hits, ", ")),
			Signals:        signals,
			Confidence:     0.7,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        urgency,
		},
		SourceMessageIDs: messageIDs(msgs),
		Status:           domain.GemStatusNew,
	}
}

// detectUnansweredAsk: thread where the user owes a reply and last activity
// is recent (§4.7.4 "other gem rules").
func detectUnansweredAsk(rel domain.RelationshipType, th domain.Thread, ents []domain.ExtractedEntity) *domain.Gem {
	if !eligible(domain.GemUnansweredAsk, rel) {
		return nil
	}
	if th.AwaitingResponseFrom != domain.AwaitingUser {
		return nil
	}
	daysSinceActivity := int(nowFunc().Sub(th.LastMessageDate).Hours() / 24)
	if daysSinceActivity > 30 {
		return nil
	}

	score := 60.0
	signals := []domain.GemSignal{{Signal: "awaiting_user_reply", Evidence: fmt.Sprintf("%d days since last activity", daysSinceActivity)}}
	if hasDecisionMakerEntity(ents, nil) {
		score += 10
		signals = append(signals, domain.GemSignal{Signal: "decision_maker_entity"})
	}
	score = clampScore(score)

	return &domain.Gem{
		GemType:      domain.GemUnansweredAsk,
		SenderDomain: th.SenderDomain,
		ThreadID:     th.ThreadID,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType:        domain.GemUnansweredAsk,
			Summary:        "You owe this thread a reply and it is still recent.",
			Signals:        signals,
			Confidence:     0.6,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        domain.UrgencyMedium,
		},
		Status: domain.GemStatusNew,
	}
}

func detectWeakMarketingLead(cfg GemDetectionConfig, rel domain.RelationshipType, p domain.SenderProfile) *domain.Gem {
	if !eligible(domain.GemWeakMarketingLead, rel) {
		return nil
	}
	if p.CompanySize != domain.CompanySizeSmall && p.CompanySize != domain.CompanySizeMedium {
		return nil
	}
	if p.MarketingSophisticationAvg > 5 {
		return nil
	}
	if !containsFold(cfg.TargetIndustries, p.Industry) {
		return nil
	}

	score := clampScore(40 + (5-p.MarketingSophisticationAvg)*5)
	return &domain.Gem{
		GemType:      domain.GemWeakMarketingLead,
		SenderDomain: p.SenderDomain,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType: domain.GemWeakMarketingLead,
			Summary: fmt.Sprintf("%s is a %s-size %s company with low marketing sophistication (%.1f/10) — an audit opportunity.", p.SenderDomain, p.CompanySize, p.Industry, p.MarketingSophisticationAvg),
			Signals: []domain.GemSignal{
				{Signal: "company_size", Value: string(p.CompanySize)},
				{Signal: "industry_target_match", Value: p.Industry},
				{Signal: "sophistication", Value: p.MarketingSophisticationAvg, Threshold: 5},
			},
			Confidence:     0.6,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        domain.UrgencyLow,
		},
		Status: domain.GemStatusNew,
	}
}

func detectPartnerProgram(rel domain.RelationshipType, p domain.SenderProfile, ents []domain.ExtractedEntity) *domain.Gem {
	if !eligible(domain.GemPartnerProgram, rel) {
		return nil
	}
	_, hasPartnershipOffer := p.OfferTypeDistribution["partnership"]
	if !p.HasPartnerProgram && !hasPartnershipOffer {
		return nil
	}

	score := 30.0
	signals := []domain.GemSignal{{Signal: "has_partner_program", Value: true}}
	if hasCommissionPercentageEntity(ents) {
		score += 10
		signals = append(signals, domain.GemSignal{Signal: "commission_percentage_entity"})
	}
	score = clampScore(score)

	return &domain.Gem{
		GemType:      domain.GemPartnerProgram,
		SenderDomain: p.SenderDomain,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType:        domain.GemPartnerProgram,
			Summary:        fmt.Sprintf("%s runs a partner/affiliate program you haven't joined.", p.SenderDomain),
			Signals:        signals,
			Confidence:     0.65,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        domain.UrgencyLow,
		},
		RecommendedActions: []string{"Review the partner program terms and apply."},
		Status:              domain.GemStatusNew,
	}
}

func hasCommissionPercentageEntity(ents []domain.ExtractedEntity) bool {
	for _, e := range ents {
		if e.Type == domain.EntityMoney && strings.Contains(e.Value, "%") {
			return true
		}
	}
	return false
}

// detectRenewalLeverage: a future renewal date plus transactional intent
// (§4.7.4).
func detectRenewalLeverage(rel domain.RelationshipType, p domain.SenderProfile, ents []domain.ExtractedEntity, classifications map[string]domain.AIClassification) *domain.Gem {
	if !eligible(domain.GemRenewalLeverage, rel) {
		return nil
	}
	if !hasFutureRenewal(p.RenewalDates) {
		return nil
	}
	if !anyIntent(classifications, domain.IntentTransactional) {
		return nil
	}

	daysToRenewal, ok := nearestFutureRenewalDays(ents)
	urgency := domain.UrgencyLow
	if ok {
		switch {
		case daysToRenewal <= 30:
			urgency = domain.UrgencyHigh
		case daysToRenewal <= 60:
			urgency = domain.UrgencyMedium
		}
	}

	score := clampScore(40)
	signals := []domain.GemSignal{{Signal: "renewal_date_future", Evidence: "renewal entity detected"}}
	if ok {
		signals = append(signals, domain.GemSignal{Signal: "days_to_renewal", Value: daysToRenewal})
	}

	return &domain.Gem{
		GemType:      domain.GemRenewalLeverage,
		SenderDomain: p.SenderDomain,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType:        domain.GemRenewalLeverage,
			Summary:        fmt.Sprintf("%s has an upcoming renewal — a chance to renegotiate terms.", p.SenderDomain),
			Signals:        signals,
			Confidence:     0.6,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        urgency,
		},
		Status: domain.GemStatusNew,
	}
}

func hasFutureRenewal(renewalDates []string) bool {
	for _, d := range renewalDates {
		if strings.HasSuffix(d, ":future") {
			return true
		}
	}
	return false
}

func anyIntent(classifications map[string]domain.AIClassification, intent domain.SenderIntent) bool {
	for _, c := range classifications {
		if c.SenderIntent == intent {
			return true
		}
	}
	return false
}

// nearestFutureRenewalDays re-parses date entities to find the soonest
// future renewal-band date, for urgency banding.
func nearestFutureRenewalDays(ents []domain.ExtractedEntity) (int, bool) {
	best := -1
	found := false
	for _, e := range ents {
		if e.Type != domain.EntityDate || !strings.HasPrefix(e.Normalized, "renewal:future") {
			continue
		}
		parsed, err := dateparse.ParseAny(e.Value)
		if err != nil {
			continue
		}
		days := int(parsed.Sub(nowFunc()).Hours() / 24)
		if days < 0 {
			continue
		}
		if !found || days < best {
			best = days
			found = true
		}
	}
	return best, found
}

func detectDistributionChannel(rel domain.RelationshipType, p domain.SenderProfile, classifications map[string]domain.AIClassification, msgs []domain.Message) *domain.Gem {
	if !eligible(domain.GemDistributionChannel, rel) {
		return nil
	}
	if !distributionIntent(classifications) {
		return nil
	}
	if p.TotalMessages < 5 {
		return nil
	}

	score := 35.0
	signals := []domain.GemSignal{{Signal: "distribution_intent"}}
	if distributionContentPattern.MatchString(threadText(msgs)) {
		score += 15
		signals = append(signals, domain.GemSignal{Signal: "distribution_content_keywords"})
	}
	score = clampScore(score)

	return &domain.Gem{
		GemType:      domain.GemDistributionChannel,
		SenderDomain: p.SenderDomain,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType:        domain.GemDistributionChannel,
			Summary:        fmt.Sprintf("%s runs a newsletter/event/community channel you could pitch into.", p.SenderDomain),
			Signals:        signals,
			Confidence:     0.55,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        domain.UrgencyLow,
		},
		Status: domain.GemStatusNew,
	}
}

func distributionIntent(classifications map[string]domain.AIClassification) bool {
	return anyIntent(classifications, domain.IntentNewsletter) ||
		anyIntent(classifications, domain.IntentEventInvitation) ||
		anyIntent(classifications, domain.IntentCommunity)
}

func detectCoMarketing(cfg GemDetectionConfig, rel domain.RelationshipType, p domain.SenderProfile, classifications map[string]domain.AIClassification) *domain.Gem {
	if !eligible(domain.GemCoMarketing, rel) {
		return nil
	}
	if len(cfg.YourAudience) == 0 {
		return nil
	}
	overlap := keywordOverlap(p.TargetAudience, cfg.YourAudience)
	if overlap < 2 {
		return nil
	}

	score := 40.0
	signals := []domain.GemSignal{{Signal: "audience_overlap", Value: overlap, Threshold: 2}}
	if distributionIntent(classifications) || p.TotalMessages >= 5 {
		score += 10
		signals = append(signals, domain.GemSignal{Signal: "distribution_reach"})
	}
	score = clampScore(score)

	return &domain.Gem{
		GemType:      domain.GemCoMarketing,
		SenderDomain: p.SenderDomain,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType:        domain.GemCoMarketing,
			Summary:        fmt.Sprintf("%s targets an audience that overlaps with yours — a co-marketing fit.", p.SenderDomain),
			Signals:        signals,
			Confidence:     0.55,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        domain.UrgencyLow,
		},
		Status: domain.GemStatusNew,
	}
}

func keywordOverlap(targetAudience string, yourAudience []string) int {
	words := strings.Fields(strings.ToLower(targetAudience))
	set := map[string]bool{}
	for _, w := range words {
		set[w] = true
	}
	count := 0
	for _, a := range yourAudience {
		if set[strings.ToLower(a)] {
			count++
		}
	}
	return count
}

func detectIndustryIntel(rel domain.RelationshipType, p domain.SenderProfile, industryProfileCount int) *domain.Gem {
	if !eligible(domain.GemIndustryIntel, rel) {
		return nil
	}
	if p.Industry == "" || industryProfileCount < 10 {
		return nil
	}

	score := clampScore(20)
	return &domain.Gem{
		GemType:      domain.GemIndustryIntel,
		SenderDomain: p.SenderDomain,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType: domain.GemIndustryIntel,
			Summary: fmt.Sprintf("%s's industry (%s) is saturated in your mailbox — %d profiles and counting.", p.SenderDomain, p.Industry, industryProfileCount),
			Signals: []domain.GemSignal{
				{Signal: "industry_profile_count", Value: industryProfileCount, Threshold: 10},
			},
			Confidence:     0.5,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        domain.UrgencyLow,
		},
		Status: domain.GemStatusNew,
	}
}

func detectProcurementSignal(rel domain.RelationshipType, p domain.SenderProfile, ents []domain.ExtractedEntity) *domain.Gem {
	if !eligible(domain.GemProcurementSignal, rel) {
		return nil
	}
	present, securityReview := procurementBands(ents)
	if !present {
		return nil
	}

	score := 50.0
	signals := []domain.GemSignal{{Signal: "procurement_signal_entity"}}
	if securityReview {
		score += 15
		signals = append(signals, domain.GemSignal{Signal: "security_review_band"})
	}
	score = clampScore(score)

	return &domain.Gem{
		GemType:      domain.GemProcurementSignal,
		SenderDomain: p.SenderDomain,
		Score:        score,
		Explanation: domain.GemExplanation{
			GemType:        domain.GemProcurementSignal,
			Summary:        fmt.Sprintf("%s is running a procurement process that names you.", p.SenderDomain),
			Signals:        signals,
			Confidence:     0.6,
			EstimatedValue: estimatedValueFromScore(score),
			Urgency:        domain.UrgencyMedium,
		},
		Status: domain.GemStatusNew,
	}
}

func procurementBands(ents []domain.ExtractedEntity) (present, securityReview bool) {
	for _, e := range ents {
		if e.Type != domain.EntityProcurementSignal {
			continue
		}
		present = true
		if e.Normalized == "security_review" {
			securityReview = true
		}
	}
	return present, securityReview
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func estimatedValueFromScore(score float64) domain.EstimatedValue {
	switch {
	case score >= 70:
		return domain.ValueHigh
	case score >= 50:
		return domain.ValueMediumHigh
	case score >= 30:
		return domain.ValueMedium
	default:
		return domain.ValueLow
	}
}

func messageIDs(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.MessageID
	}
	sort.Strings(out)
	return out
}
