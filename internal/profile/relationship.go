package profile

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/knownentities"
)

// RelationshipStore is the subset of internal/store.Store the relationship
// classifier needs.
type RelationshipStore interface {
	GetSenderRelationship(ctx context.Context, senderDomain string) (domain.SenderRelationship, error)
	MessagesBySenderDomain(ctx context.Context, senderDomain string) ([]domain.Message, error)
}

var transactionalReceiptPattern = regexp.MustCompile(`(?i)\b(your (receipt|invoice|order (confirmation|#\d+)|payment)|receipt for|order #\d+|thank you for your (purchase|payment|order))\b`)

var onboardingPattern = regexp.MustCompile(`(?i)\b(welcome to|getting started|your account (is|has been) (ready|created|set up)|complete your (setup|onboarding)|next steps to get started)\b`)

var supportThreadPattern = regexp.MustCompile(`(?i)\b(ticket #\d+|support request|we('| )ve received your (request|message)|your case (has been|is) (opened|updated)|re: \[ticket)\b`)

var referralLanguagePattern = regexp.MustCompile(`(?i)\b(referred (me|us) to you|(a )?mutual (contact|connection) (suggested|recommended)|was told to reach out|pointed me to you)\b`)

var coldOutreachPattern = regexp.MustCompile(`(?i)\b(i (came across|noticed|found) your|reaching out because|quick question (about|for)|would love (15|30) minutes|i('| a)m reaching out to)\b`)

// ClassifyRelationship implements the §4.7.3 four-step precedence. It never
// writes to the store; callers decide whether to persist the result (e.g.
// the pipeline stage upserts it as auto_detected, `relationships
// --auto-detect --apply` upserts it from the CLI).
func ClassifyRelationship(ctx context.Context, store RelationshipStore, known *knownentities.Table, p domain.SenderProfile) (domain.SenderRelationship, error) {
	pinned, err := store.GetSenderRelationship(ctx, p.SenderDomain)
	if err != nil {
		return domain.SenderRelationship{}, fmt.Errorf("profile: load relationship: %w", err)
	}
	if pinned.Source == domain.RelSourceManual {
		return pinned, nil
	}

	if rt, ok := known.Classify(p.SenderDomain); ok {
		return domain.SenderRelationship{
			SenderDomain:     p.SenderDomain,
			RelationshipType: rt,
			Source:           domain.RelSourceAutoDetected,
		}, nil
	}

	msgs, err := store.MessagesBySenderDomain(ctx, p.SenderDomain)
	if err != nil {
		return domain.SenderRelationship{}, fmt.Errorf("profile: load messages: %w", err)
	}

	rt := signalWeightedRelationship(p, msgs)
	return domain.SenderRelationship{
		SenderDomain:     p.SenderDomain,
		RelationshipType: rt,
		Source:           domain.RelSourceAutoDetected,
	}, nil
}

// signalWeightedRelationship implements §4.7.3 step 3. It scores the
// customer-side, inbound_prospect, and selling_to_me hypotheses against
// the domain's message bodies and the profile's aggregates, returning
// whichever scores highest, or unknown if none score at all.
func signalWeightedRelationship(p domain.SenderProfile, msgs []domain.Message) domain.RelationshipType {
	var transactional, onboarding, support, referral, coldOutreach int
	for _, m := range msgs {
		text := m.Subject + "\n" + m.TextBody + "\n" + m.HTMLBody
		if transactionalReceiptPattern.MatchString(text) {
			transactional++
		}
		if onboardingPattern.MatchString(text) {
			onboarding++
		}
		if supportThreadPattern.MatchString(text) {
			support++
		}
		if referralLanguagePattern.MatchString(text) {
			referral++
		}
		if coldOutreachPattern.MatchString(text) {
			coldOutreach++
		}
	}

	var customerScore, prospectScore, sellingScore int

	if transactional > 0 {
		customerScore += 10
	}
	if onboarding > 0 {
		customerScore += 8
	}
	if support > 0 {
		customerScore += 8
	}
	if p.ThreadInitiationRatio > 0.5 {
		customerScore += 6
	}

	if p.ThreadInitiationRatio < 0.5 && referral > 0 {
		prospectScore += 10
	}
	if p.TotalMessages <= 5 {
		prospectScore += 4
	}

	if p.TotalMessages >= 10 && p.UserReplyRate == 0 && coldOutreach > 0 {
		sellingScore += 12
	}

	best := 0
	winner := domain.RelUnknown
	if customerScore > best {
		best, winner = customerScore, pickCustomerSide(strings.ToLower(p.ProductType))
	}
	if prospectScore > best {
		best, winner = prospectScore, domain.RelInboundProspect
	}
	if sellingScore > best {
		best, winner = sellingScore, domain.RelSellingToMe
	}
	return winner
}

// pickCustomerSide picks which customer-side type a signal-weighted
// customer-side win maps to. Infrastructure/institutional matches are
// already handled by the known-entities step, so a signal-weighted
// customer-side hit defaults to a paid vendor relationship unless the
// profile's own product-type names a professional service.
func pickCustomerSide(productType string) domain.RelationshipType {
	if strings.Contains(productType, "service") || strings.Contains(productType, "consult") || strings.Contains(productType, "agency") {
		return domain.RelMyServiceProvider
	}
	return domain.RelMyVendor
}
