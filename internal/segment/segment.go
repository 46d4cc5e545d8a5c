// Package segment assigns each sender profile to zero or more economic
// segments and computes the final, relationship-capped score for the
// profile's gems (§4.8).
package segment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
)

// Store is the subset of internal/store.Store the segmenter needs.
type Store interface {
	MessagesBySenderDomain(ctx context.Context, senderDomain string) ([]domain.Message, error)
	EntitiesForMessages(ctx context.Context, messageIDs []string) ([]domain.ExtractedEntity, error)
	GetSenderRelationship(ctx context.Context, senderDomain string) (domain.SenderRelationship, error)
	OpenGemsForDomain(ctx context.Context, senderDomain string) ([]domain.Gem, error)
	ReplaceSenderSegments(ctx context.Context, senderDomain string, segs []domain.SenderSegment) error
	UpdateGemScore(ctx context.Context, id int64, score float64) error
}

// relationshipCap is the §4.8 final scoring ceiling, keyed by relationship
// type. A relationship absent from the table (should not happen, every
// RelationshipType is listed) falls back to 0 via the zero value.
var relationshipCap = map[domain.RelationshipType]float64{
	domain.RelInboundProspect:   100,
	domain.RelWarmContact:       90,
	domain.RelPotentialPartner:  80,
	domain.RelCommunity:        50,
	domain.RelUnknown:          60,
	domain.RelSellingToMe:      20,
	domain.RelMyVendor:         25,
	domain.RelMyServiceProvider: 15,
	domain.RelMyInfrastructure: 5,
	domain.RelInstitutional:    5,
}

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now

// opportunitySide reports whether the relationship type represents a
// sender who could become a commercial opportunity for the mailbox
// owner, as opposed to a party the owner already pays (my_vendor/
// my_service_provider/my_infrastructure/institutional). The scoring
// formula's monetary-signal subscore only applies on this side (§4.8
// "monetary-signal present, only for opportunity-side relationships").
func opportunitySide(rt domain.RelationshipType) bool {
	switch rt {
	case domain.RelMyVendor, domain.RelMyServiceProvider, domain.RelMyInfrastructure, domain.RelInstitutional:
		return false
	default:
		return true
	}
}

// Assign runs all six segment rules and the scoring formula for one
// profile, replacing its sender_segments rows and reconciling the score
// of every one of its open gems.
func Assign(ctx context.Context, store Store, cfg config.ScoringConfig, p domain.SenderProfile) ([]domain.SenderSegment, error) {
	rel, err := store.GetSenderRelationship(ctx, p.SenderDomain)
	if err != nil {
		return nil, fmt.Errorf("segment: load relationship: %w", err)
	}

	gems, err := store.OpenGemsForDomain(ctx, p.SenderDomain)
	if err != nil {
		return nil, fmt.Errorf("segment: load gems: %w", err)
	}

	msgs, err := store.MessagesBySenderDomain(ctx, p.SenderDomain)
	if err != nil {
		return nil, fmt.Errorf("segment: load messages: %w", err)
	}
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.MessageID
	}
	ents, err := store.EntitiesForMessages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("segment: load entities: %w", err)
	}

	segs := assignSegments(cfg, p, gems, ents)
	if err := store.ReplaceSenderSegments(ctx, p.SenderDomain, segs); err != nil {
		return nil, fmt.Errorf("segment: replace segments: %w", err)
	}

	score := computeScore(cfg, p, rel, gems)
	for _, g := range gems {
		if err := store.UpdateGemScore(ctx, g.ID, score); err != nil {
			return segs, fmt.Errorf("segment: update gem %d score: %w", g.ID, err)
		}
	}

	return segs, nil
}

// assignSegments evaluates the six independent segment rules (§4.8
// "Segment assignment").
func assignSegments(cfg config.ScoringConfig, p domain.SenderProfile, gems []domain.Gem, ents []domain.ExtractedEntity) []domain.SenderSegment {
	var segs []domain.SenderSegment

	if len(p.MonetarySignals) > 0 {
		sub := "active_subscription"
		switch {
		case hasFutureRenewal(p.RenewalDates):
			sub = "upcoming_renewal"
		case nowFunc().Sub(p.LastContact).Hours()/24 > 180:
			sub = "churned_vendor"
		}
		segs = append(segs, domain.SenderSegment{SenderDomain: p.SenderDomain, Segment: domain.SegmentSpendMap, SubSegment: sub, Confidence: 0.7})
	}

	if hasGemType(gems, domain.GemPartnerProgram) || p.HasPartnerProgram {
		sub := "general"
		for _, url := range p.PartnerProgramURLs {
			if strings.Contains(strings.ToLower(url), "referral") {
				sub = "referral_program"
				break
			}
		}
		segs = append(segs, domain.SenderSegment{SenderDomain: p.SenderDomain, Segment: domain.SegmentPartnerMap, SubSegment: sub, Confidence: 0.7})
	}

	if eligibleForWeakMarketingLead(cfg, p) {
		sub := "intelligence_value"
		switch {
		case p.MarketingSophisticationAvg <= 3:
			sub = "hot_lead"
		case p.MarketingSophisticationAvg <= 5:
			sub = "warm_prospect"
		}
		segs = append(segs, domain.SenderSegment{SenderDomain: p.SenderDomain, Segment: domain.SegmentProspectMap, SubSegment: sub, Confidence: 0.6})
	}

	if hasGemType(gems, domain.GemDormantWarmThread) {
		segs = append(segs, domain.SenderSegment{SenderDomain: p.SenderDomain, Segment: domain.SegmentDormantThreads, SubSegment: "unanswered", Confidence: 0.8})
	}

	if sub, ok := distributionSubSegment(p.OfferTypeDistribution); ok {
		segs = append(segs, domain.SenderSegment{SenderDomain: p.SenderDomain, Segment: domain.SegmentDistributionMap, SubSegment: sub, Confidence: 0.5})
	}

	if sub, ok := procurementSubSegment(ents); ok {
		segs = append(segs, domain.SenderSegment{SenderDomain: p.SenderDomain, Segment: domain.SegmentProcurementMap, SubSegment: sub, Confidence: 0.65})
	}

	return segs
}

func hasGemType(gems []domain.Gem, t domain.GemType) bool {
	for _, g := range gems {
		if g.GemType == t {
			return true
		}
	}
	return false
}

func hasFutureRenewal(dates []string) bool {
	for _, d := range dates {
		if strings.HasSuffix(d, ":future") {
			return true
		}
	}
	return false
}

// eligibleForWeakMarketingLead mirrors the profile-fit half of
// internal/profile's weak_marketing_lead gem gate (company size and
// target-industry match), deliberately dropping that rule's
// sophistication<=5 cap so the segment's "intelligence_value" (>=6)
// subsegment band is reachable.
func eligibleForWeakMarketingLead(cfg config.ScoringConfig, p domain.SenderProfile) bool {
	if p.CompanySize != domain.CompanySizeSmall && p.CompanySize != domain.CompanySizeMedium {
		return false
	}
	for _, ind := range cfg.TargetIndustries {
		if strings.EqualFold(ind, p.Industry) {
			return true
		}
	}
	return false
}

func distributionSubSegment(offers map[string]int) (string, bool) {
	for key := range offers {
		lower := strings.ToLower(key)
		switch {
		case strings.Contains(lower, "newsletter"):
			return "newsletter", true
		case strings.Contains(lower, "event"):
			return "event_organizer", true
		case strings.Contains(lower, "community"):
			return "community", true
		}
	}
	return "", false
}

func procurementSubSegment(ents []domain.ExtractedEntity) (string, bool) {
	best := ""
	for _, e := range ents {
		if e.Type != domain.EntityProcurementSignal {
			continue
		}
		switch e.Normalized {
		case "security_review":
			return "security_compliance", true
		case "contract_activity":
			if best == "" {
				best = "formal_rfp"
			}
		case "active_buying":
			if best == "" {
				best = "evaluation"
			}
		}
	}
	return best, best != ""
}

// computeScore implements the §4.8 deterministic scoring formula, capped
// by relationship type.
func computeScore(cfg config.ScoringConfig, p domain.SenderProfile, rel domain.SenderRelationship, gems []domain.Gem) float64 {
	if rel.SuppressGems {
		return 0
	}

	base := profileSubscore(cfg, p, rel)
	inbound := inboundSubscore(p)
	gem := gemSubscore(gems)

	total := base + inbound + gem
	cap, ok := relationshipCap[rel.RelationshipType]
	if !ok {
		cap = 0
	}
	if total > cap {
		total = cap
	}
	if total < 0 {
		total = 0
	}
	return total
}

func profileSubscore(cfg config.ScoringConfig, p domain.SenderProfile, rel domain.SenderRelationship) float64 {
	var score float64

	switch p.CompanySize {
	case domain.CompanySizeSmall:
		score += 10
	case domain.CompanySizeMedium:
		score += 7
	default:
		score += 2
	}

	if containsFold(cfg.TargetIndustries, p.Industry) {
		score += 8
	} else {
		score += 2
	}

	daysSinceContact := nowFunc().Sub(p.LastContact).Hours() / 24
	switch {
	case daysSinceContact <= 30:
		score += 8
	case daysSinceContact <= 90:
		score += 4
	}

	if hasDecisionMakerContact(p.KnownContacts) {
		score += 7
	}

	if opportunitySide(rel.RelationshipType) && len(p.MonetarySignals) > 0 {
		score += 7
	}

	return score
}

func hasDecisionMakerContact(contacts []domain.Contact) bool {
	for _, c := range contacts {
		if c.Priority == domain.PersonDecisionMaker {
			return true
		}
	}
	return false
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func inboundSubscore(p domain.SenderProfile) float64 {
	replyRate := p.UserReplyRate
	if replyRate > 1 {
		replyRate = 1
	}
	return (1-p.ThreadInitiationRatio)*15 + replyRate*15
}

func gemSubscore(gems []domain.Gem) float64 {
	types := map[domain.GemType]bool{}
	for _, g := range gems {
		types[g.GemType] = true
	}
	unique := len(types)
	if unique > 3 {
		unique = 3
	}
	score := float64(unique) * 5

	if types[domain.GemDormantWarmThread] {
		score += 10
	}
	if types[domain.GemPartnerProgram] {
		score += 3
	}
	if types[domain.GemProcurementSignal] {
		score += 7
	}
	return score
}
