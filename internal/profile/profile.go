// Package profile assembles the per-sender-domain profile the gem
// detector, segmenter, and scorer all read, classifies each profile's
// relationship to the mailbox owner, and detects gems against it (§4.7).
package profile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hoyack/gemsieve/internal/domain"
)

// Store is the subset of internal/store.Store the profiler needs.
type Store interface {
	MessagesBySenderDomain(ctx context.Context, senderDomain string) ([]domain.Message, error)
	ParsedContentByMessageIDs(ctx context.Context, messageIDs []string) (map[string]domain.ParsedContent, error)
	EntitiesForMessages(ctx context.Context, messageIDs []string) ([]domain.ExtractedEntity, error)
	ClassificationsByMessageIDs(ctx context.Context, messageIDs []string) (map[string]domain.AIClassification, error)
	ParsedMetadataByDomain(ctx context.Context, senderDomain string) ([]domain.ParsedMetadata, error)
	GetSenderTemporal(ctx context.Context, senderDomain string) (domain.SenderTemporal, error)
	ThreadsForSenderDomain(ctx context.Context, senderDomain string) ([]domain.Thread, error)
	UpsertSenderProfile(ctx context.Context, p domain.SenderProfile) error
}

// espTiers groups ESP display names (as metadata.ESPIdentified produces
// them) into the §4.7.1 sophistication point table. Matched case-
// insensitively by substring since "Salesforce Marketing Cloud" etc. carry
// more than the bare vendor name.
var espTier3 = []string{"hubspot", "salesforce", "klaviyo", "activecampaign"}
var espTier2 = []string{"sendgrid", "mailchimp", "convertkit", "postmark", "constant contact"}

// Assemble builds and persists the sender_profiles row for one domain
// (§4.7.1). It is a pure function of the message history: re-running it
// fully replaces the prior row rather than accumulating into it.
func Assemble(ctx context.Context, store Store, senderDomain string) (domain.SenderProfile, error) {
	msgs, err := store.MessagesBySenderDomain(ctx, senderDomain)
	if err != nil {
		return domain.SenderProfile{}, fmt.Errorf("profile: load messages: %w", err)
	}
	if len(msgs) == 0 {
		return domain.SenderProfile{}, fmt.Errorf("profile: no messages for domain %s", senderDomain)
	}

	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.MessageID
	}

	content, err := store.ParsedContentByMessageIDs(ctx, ids)
	if err != nil {
		return domain.SenderProfile{}, fmt.Errorf("profile: load content: %w", err)
	}
	ents, err := store.EntitiesForMessages(ctx, ids)
	if err != nil {
		return domain.SenderProfile{}, fmt.Errorf("profile: load entities: %w", err)
	}
	classifications, err := store.ClassificationsByMessageIDs(ctx, ids)
	if err != nil {
		return domain.SenderProfile{}, fmt.Errorf("profile: load classifications: %w", err)
	}
	temporal, err := store.GetSenderTemporal(ctx, senderDomain)
	if err != nil {
		temporal = domain.SenderTemporal{SenderDomain: senderDomain}
	}
	threads, err := store.ThreadsForSenderDomain(ctx, senderDomain)
	if err != nil {
		return domain.SenderProfile{}, fmt.Errorf("profile: load threads: %w", err)
	}
	metadata, err := store.ParsedMetadataByDomain(ctx, senderDomain)
	if err != nil {
		return domain.SenderProfile{}, fmt.Errorf("profile: load metadata: %w", err)
	}

	p := domain.SenderProfile{
		SenderDomain:           senderDomain,
		TotalMessages:          len(msgs),
		OfferTypeDistribution:  map[string]int{},
		AvgFrequencyDays:       temporal.AvgFrequencyDays,
	}

	industryVotes := map[string]int{}
	sizeVotes := map[domain.CompanySize]int{}
	productTypeVotes := map[string]int{}
	ctaSet := map[string]bool{}
	utmSet := map[string]bool{}
	monetarySet := map[string]bool{}
	renewalSet := map[string]bool{}
	painPointSet := map[string]bool{}
	contacts := map[string]domain.Contact{}
	roleByMessage := map[string]string{}

	var aiSophisticationSum, aiSophisticationN float64
	var espName string
	var primaryEmail, replyToEmail string
	var maxTemplateComplexity int

	for _, e := range ents {
		if e.Type == domain.EntityRole {
			roleByMessage[e.MessageID] = e.Value
		}
	}

	orgByMessage := map[string]string{}
	for _, e := range ents {
		if e.Type == domain.EntityOrganization && e.Value != "" {
			orgByMessage[e.MessageID] = e.Value
		}
	}

	for _, m := range msgs {
		if primaryEmail == "" {
			primaryEmail = m.From.Email
		}
		if m.ReplyTo != "" {
			replyToEmail = m.ReplyTo
		}
		if org, ok := orgByMessage[m.MessageID]; ok {
			p.CompanyName = org
		}
		if p.FirstContact.IsZero() || m.Date.Before(p.FirstContact) {
			p.FirstContact = m.Date
		}
		if m.Date.After(p.LastContact) {
			p.LastContact = m.Date
		}

		c := content[m.MessageID]
		if c.TemplateComplexityScore > maxTemplateComplexity {
			maxTemplateComplexity = c.TemplateComplexityScore
		}
		for _, offer := range c.OfferTypes {
			p.OfferTypeDistribution[offer]++
		}
		for _, cta := range c.CTATexts {
			ctaSet[cta] = true
		}
		for _, utm := range c.UTMCampaigns {
			utmSet[utm] = true
		}
		if c.HasPersonalization {
			p.HasPersonalization = true
		}
		if c.PhysicalAddress != "" {
			p.PhysicalAddress = c.PhysicalAddress
		}
		for k, v := range c.SocialLinks {
			if p.SocialLinks == nil {
				p.SocialLinks = map[string]string{}
			}
			p.SocialLinks[k] = v
		}
		if urls, ok := c.LinkIntents["partner_program"]; ok {
			p.HasPartnerProgram = true
			p.PartnerProgramURLs = append(p.PartnerProgramURLs, urls...)
		}

		ai, ok := classifications[m.MessageID]
		if ok {
			if ai.Industry != "" {
				industryVotes[ai.Industry]++
			}
			if ai.CompanySizeEstimate != "" {
				sizeVotes[ai.CompanySizeEstimate]++
			}
			if ai.ProductType != "" {
				productTypeVotes[ai.ProductType]++
			}
			if ai.ProductDescription != "" {
				p.ProductDescription = ai.ProductDescription
			}
			if ai.TargetAudience != "" {
				p.TargetAudience = ai.TargetAudience
			}
			if ai.PartnerProgramDetected {
				p.HasPartnerProgram = true
			}
			if ai.RenewalSignalDetected {
				p.RenewalDates = append(p.RenewalDates, "renewal:future")
			}
			for _, pp := range ai.PainPoints {
				painPointSet[pp] = true
			}
			if ai.MarketingSophistication > 0 {
				aiSophisticationSum += float64(ai.MarketingSophistication)
				aiSophisticationN++
			}
		}
	}

	for _, e := range ents {
		switch e.Type {
		case domain.EntityMoney:
			monetarySet[e.Value] = true
		case domain.EntityDate:
			if strings.HasSuffix(e.Normalized, ":future") {
				renewalSet[e.Normalized] = true
			}
		case domain.EntityPerson:
			upsertContact(contacts, e, roleByMessage[e.MessageID])
		}
	}

	p.Industry = topVote(industryVotes)
	p.CompanySize = domain.CompanySize(topVote(stringifyCompanySizeVotes(sizeVotes)))
	p.ProductType = topVote(productTypeVotes)
	p.PrimaryEmail = primaryEmail
	p.ReplyToEmail = replyToEmail
	p.CTATextsAll = setToSortedSlice(ctaSet)
	p.UTMCampaignNames = setToSortedSlice(utmSet)
	p.MonetarySignals = setToSortedSlice(monetarySet)
	p.PainPoints = setToSortedSlice(painPointSet)
	for d := range renewalSet {
		p.RenewalDates = append(p.RenewalDates, d)
	}
	p.KnownContacts = sortedContacts(contacts)

	espName = dominantESP(classifications, metadata)
	p.ESPUsed = espName
	p.AuthenticationQuality = authenticationQuality(metadata)
	p.UnsubscribeURL = dominantUnsubscribeURL(metadata)

	if aiSophisticationN > 0 {
		p.MarketingSophisticationAvg = blendSophistication(deterministicSophisticationScore(p, espName, maxTemplateComplexity), aiSophisticationSum/aiSophisticationN)
	} else {
		p.MarketingSophisticationAvg = float64(deterministicSophisticationScore(p, espName, maxTemplateComplexity))
	}

	initiation, replyRate := threadMetrics(threads)
	p.ThreadInitiationRatio = initiation
	p.UserReplyRate = replyRate

	p.SophisticationTrend = sophisticationTrend(msgs, classifications)

	if err := store.UpsertSenderProfile(ctx, p); err != nil {
		return domain.SenderProfile{}, fmt.Errorf("profile: persist: %w", err)
	}

	return p, nil
}

// sophisticationTrend compares the AI-reported marketing_sophistication
// average of the domain's earlier messages against its later ones. msgs is
// ordered chronologically ascending; splitting it in half gives a simple
// before/after comparison without needing a stored prior profile value.
func sophisticationTrend(msgs []domain.Message, classifications map[string]domain.AIClassification) string {
	if len(msgs) < 4 {
		return "flat"
	}
	mid := len(msgs) / 2
	earlyAvg, earlyN := sophisticationAvg(msgs[:mid], classifications)
	lateAvg, lateN := sophisticationAvg(msgs[mid:], classifications)
	if earlyN == 0 || lateN == 0 {
		return "flat"
	}
	const epsilon = 0.5
	switch {
	case lateAvg-earlyAvg > epsilon:
		return "rising"
	case earlyAvg-lateAvg > epsilon:
		return "falling"
	default:
		return "flat"
	}
}

func sophisticationAvg(msgs []domain.Message, classifications map[string]domain.AIClassification) (float64, int) {
	var sum float64
	var n int
	for _, m := range msgs {
		ai, ok := classifications[m.MessageID]
		if !ok || ai.MarketingSophistication == 0 {
			continue
		}
		sum += float64(ai.MarketingSophistication)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// upsertContact folds a person entity into the collapsed contact map,
// keeping the highest-priority relationship observed for that email
// (§4.7.1 "priority rank = decision_maker > peer > vendor_contact > automated").
func upsertContact(contacts map[string]domain.Contact, e domain.ExtractedEntity, role string) {
	email := e.Normalized
	rel := domain.PersonRelationship(e.Context)
	existing, ok := contacts[email]
	if !ok || contactPriority(rel) > contactPriority(existing.Priority) {
		c := domain.Contact{Name: e.Value, Email: email, Priority: rel, Role: role}
		if ok && c.Role == "" {
			c.Role = existing.Role
		}
		contacts[email] = c
	} else if existing.Role == "" && role != "" {
		existing.Role = role
		contacts[email] = existing
	}
}

func contactPriority(r domain.PersonRelationship) int {
	switch r {
	case domain.PersonDecisionMaker:
		return 4
	case domain.PersonPeer:
		return 3
	case domain.PersonVendorContact:
		return 2
	case domain.PersonAutomated:
		return 1
	default:
		return 0
	}
}

func sortedContacts(m map[string]domain.Contact) []domain.Contact {
	out := make([]domain.Contact, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return contactPriority(out[i].Priority) > contactPriority(out[j].Priority)
		}
		return out[i].Email < out[j].Email
	})
	return out
}

func topVote(votes map[string]int) string {
	best := ""
	bestN := 0
	keys := make([]string, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if votes[k] > bestN {
			best = k
			bestN = votes[k]
		}
	}
	return best
}

func stringifyCompanySizeVotes(votes map[domain.CompanySize]int) map[string]int {
	out := make(map[string]int, len(votes))
	for k, v := range votes {
		out[string(k)] = v
	}
	return out
}

func setToSortedSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// dominantESP picks the most common non-empty esp_identified value across
// the domain's parsed_metadata rows (§4.7.1 ESP tier bonus input).
func dominantESP(classifications map[string]domain.AIClassification, metadata []domain.ParsedMetadata) string {
	_ = classifications
	votes := map[string]int{}
	for _, m := range metadata {
		if m.ESPIdentified != "" {
			votes[m.ESPIdentified]++
		}
	}
	return topVote(votes)
}

// authenticationQuality implements the §4.7.1 point table's "strong"
// condition: SPF=pass AND DMARC=pass AND a DKIM domain is present, taken
// over the domain's most recent metadata row with any auth data at all.
func authenticationQuality(metadata []domain.ParsedMetadata) string {
	var latest domain.ParsedMetadata
	found := false
	for _, m := range metadata {
		if m.SPFResult == "" && m.DMARCResult == "" && m.DKIMDomain == "" {
			continue
		}
		latest = m
		found = true
	}
	if !found {
		return "none"
	}
	if latest.SPFResult == "pass" && latest.DMARCResult == "pass" && latest.DKIMDomain != "" {
		return "strong"
	}
	return "weak"
}

// dominantUnsubscribeURL returns the first non-empty List-Unsubscribe URL
// seen for the domain.
func dominantUnsubscribeURL(metadata []domain.ParsedMetadata) string {
	for _, m := range metadata {
		if m.ListUnsubscribeURL != "" {
			return m.ListUnsubscribeURL
		}
	}
	return ""
}

// deterministicSophisticationScore implements the §4.7.1 point table.
func deterministicSophisticationScore(p domain.SenderProfile, espName string, templateComplexity int) int {
	score := 1
	lower := strings.ToLower(espName)
	switch {
	case containsAny(lower, espTier3):
		score = 3
	case containsAny(lower, espTier2):
		score = 2
	}
	if p.HasPersonalization {
		score += 2
	}
	if len(p.UTMCampaignNames) > 0 {
		score += 1
	}
	if templateComplexity >= 40 {
		score += 1
	}
	if len(p.UTMCampaignNames) >= 3 {
		score += 1
	}
	if p.AuthenticationQuality == "strong" {
		score += 1
	}
	if p.UnsubscribeURL != "" {
		score += 1
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func containsAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

// blendSophistication applies the §4.7.1 0.6/0.4 blend.
func blendSophistication(deterministic int, aiAvg float64) float64 {
	v := 0.6*float64(deterministic) + 0.4*aiAvg
	if v < 1 {
		v = 1
	}
	if v > 10 {
		v = 10
	}
	return v
}

// threadMetrics computes §4.7.2's thread_initiation_ratio and
// user_reply_rate over a domain's threads.
func threadMetrics(threads []domain.Thread) (initiationRatio, replyRate float64) {
	if len(threads) == 0 {
		return 0, 0
	}
	var initiated, replied int
	for _, t := range threads {
		if t.InitiatedByUser {
			initiated++
		}
		if t.UserParticipated {
			replied++
		}
	}
	return float64(initiated) / float64(len(threads)), float64(replied) / float64(len(threads))
}
