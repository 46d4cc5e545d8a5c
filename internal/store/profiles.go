package store

import (
	"context"
	"database/sql"

	"github.com/hoyack/gemsieve/internal/domain"
)

// UpsertSenderProfile writes the profiler's per-domain aggregate (§4.7.1).
// Re-running the profiler always fully replaces the row: profiles are a
// pure function of the message history, not an accumulator.
func (s *Store) UpsertSenderProfile(ctx context.Context, p domain.SenderProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sender_profiles (
			sender_domain, company_name, primary_email, reply_to_email, industry, company_size,
			marketing_sophistication_avg, sophistication_trend, esp_used, product_type,
			product_description, pain_points_json, target_audience, known_contacts_json,
			total_messages, first_contact, last_contact, avg_frequency_days,
			offer_type_distribution_json, cta_texts_all_json, social_links_json, physical_address,
			utm_campaign_names_json, has_personalization, has_partner_program, partner_program_urls_json,
			renewal_dates_json, monetary_signals_json, authentication_quality, unsubscribe_url,
			economic_segments_json, thread_initiation_ratio, user_reply_rate
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(sender_domain) DO UPDATE SET
			company_name=excluded.company_name, primary_email=excluded.primary_email,
			reply_to_email=excluded.reply_to_email, industry=excluded.industry, company_size=excluded.company_size,
			marketing_sophistication_avg=excluded.marketing_sophistication_avg,
			sophistication_trend=excluded.sophistication_trend, esp_used=excluded.esp_used,
			product_type=excluded.product_type, product_description=excluded.product_description,
			pain_points_json=excluded.pain_points_json, target_audience=excluded.target_audience,
			known_contacts_json=excluded.known_contacts_json, total_messages=excluded.total_messages,
			first_contact=excluded.first_contact, last_contact=excluded.last_contact,
			avg_frequency_days=excluded.avg_frequency_days,
			offer_type_distribution_json=excluded.offer_type_distribution_json,
			cta_texts_all_json=excluded.cta_texts_all_json, social_links_json=excluded.social_links_json,
			physical_address=excluded.physical_address, utm_campaign_names_json=excluded.utm_campaign_names_json,
			has_personalization=excluded.has_personalization, has_partner_program=excluded.has_partner_program,
			partner_program_urls_json=excluded.partner_program_urls_json, renewal_dates_json=excluded.renewal_dates_json,
			monetary_signals_json=excluded.monetary_signals_json, authentication_quality=excluded.authentication_quality,
			unsubscribe_url=excluded.unsubscribe_url, economic_segments_json=excluded.economic_segments_json,
			thread_initiation_ratio=excluded.thread_initiation_ratio, user_reply_rate=excluded.user_reply_rate
	`,
		p.SenderDomain, p.CompanyName, p.PrimaryEmail, p.ReplyToEmail, p.Industry, string(p.CompanySize),
		p.MarketingSophisticationAvg, p.SophisticationTrend, p.ESPUsed, p.ProductType,
		p.ProductDescription, toJSON(p.PainPoints), p.TargetAudience, toJSON(p.KnownContacts),
		p.TotalMessages, p.FirstContact, p.LastContact, p.AvgFrequencyDays,
		toJSON(p.OfferTypeDistribution), toJSON(p.CTATextsAll), toJSON(p.SocialLinks), p.PhysicalAddress,
		toJSON(p.UTMCampaignNames), p.HasPersonalization, p.HasPartnerProgram, toJSON(p.PartnerProgramURLs),
		toJSON(p.RenewalDates), toJSON(p.MonetarySignals), p.AuthenticationQuality, p.UnsubscribeURL,
		toJSON(p.EconomicSegments), p.ThreadInitiationRatio, p.UserReplyRate,
	)
	return err
}

// GetSenderProfile fetches the profile aggregate for one domain.
func (s *Store) GetSenderProfile(ctx context.Context, senderDomain string) (domain.SenderProfile, error) {
	var p domain.SenderProfile
	var size, pain, contacts, offerDist, ctaAll, social, utm, partnerURLs, renewals, monetary, segments string
	err := s.db.QueryRowContext(ctx, `
		SELECT sender_domain, company_name, primary_email, reply_to_email, industry, company_size,
			marketing_sophistication_avg, sophistication_trend, esp_used, product_type,
			product_description, pain_points_json, target_audience, known_contacts_json,
			total_messages, first_contact, last_contact, avg_frequency_days,
			offer_type_distribution_json, cta_texts_all_json, social_links_json, physical_address,
			utm_campaign_names_json, has_personalization, has_partner_program, partner_program_urls_json,
			renewal_dates_json, monetary_signals_json, authentication_quality, unsubscribe_url,
			economic_segments_json, thread_initiation_ratio, user_reply_rate
		FROM sender_profiles WHERE sender_domain = ?`, senderDomain).Scan(
		&p.SenderDomain, &p.CompanyName, &p.PrimaryEmail, &p.ReplyToEmail, &p.Industry, &size,
		&p.MarketingSophisticationAvg, &p.SophisticationTrend, &p.ESPUsed, &p.ProductType,
		&p.ProductDescription, &pain, &p.TargetAudience, &contacts,
		&p.TotalMessages, &p.FirstContact, &p.LastContact, &p.AvgFrequencyDays,
		&offerDist, &ctaAll, &social, &p.PhysicalAddress,
		&utm, &p.HasPersonalization, &p.HasPartnerProgram, &partnerURLs,
		&renewals, &monetary, &p.AuthenticationQuality, &p.UnsubscribeURL,
		&segments, &p.ThreadInitiationRatio, &p.UserReplyRate,
	)
	if err == sql.ErrNoRows {
		return domain.SenderProfile{}, ErrNotFound
	}
	if err != nil {
		return domain.SenderProfile{}, err
	}
	p.CompanySize = domain.CompanySize(size)
	p.PainPoints = fromJSONSlice(pain)
	_ = jsonUnmarshalInto(contacts, &p.KnownContacts)
	p.OfferTypeDistribution = fromJSONMapInt(offerDist)
	p.CTATextsAll = fromJSONSlice(ctaAll)
	p.SocialLinks = fromJSONMapString(social)
	p.UTMCampaignNames = fromJSONSlice(utm)
	p.PartnerProgramURLs = fromJSONSlice(partnerURLs)
	p.RenewalDates = fromJSONSlice(renewals)
	p.MonetarySignals = fromJSONSlice(monetary)
	var segs []domain.Segment
	_ = jsonUnmarshalInto(segments, &segs)
	p.EconomicSegments = segs
	return p, nil
}

// AllSenderProfiles returns every profile, used by the segmenter and
// export commands.
func (s *Store) AllSenderProfiles(ctx context.Context) ([]domain.SenderProfile, error) {
	domains, err := s.DistinctSenderDomains(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SenderProfile, 0, len(domains))
	for _, d := range domains {
		p, err := s.GetSenderProfile(ctx, d)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UpsertSenderRelationship writes the profile's relationship-type row.
// Auto-detected writes never overwrite a manual pin (§4.7.3 "manual pins
// always win").
func (s *Store) UpsertSenderRelationship(ctx context.Context, r domain.SenderRelationship) error {
	existing, err := s.GetSenderRelationship(ctx, r.SenderDomain)
	if err == nil && existing.Source == domain.RelSourceManual && r.Source != domain.RelSourceManual {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sender_relationships (sender_domain, relationship_type, note, suppress_gems, source)
		VALUES (?,?,?,?,?)
		ON CONFLICT(sender_domain) DO UPDATE SET
			relationship_type=excluded.relationship_type, note=excluded.note,
			suppress_gems=excluded.suppress_gems, source=excluded.source
	`, r.SenderDomain, string(r.RelationshipType), r.Note, r.SuppressGems, string(r.Source))
	return err
}

// GetSenderRelationship fetches the relationship row for one domain,
// defaulting to "unknown"/auto_detected when none exists yet.
func (s *Store) GetSenderRelationship(ctx context.Context, senderDomain string) (domain.SenderRelationship, error) {
	var r domain.SenderRelationship
	var relType, source string
	err := s.db.QueryRowContext(ctx, `
		SELECT sender_domain, relationship_type, note, suppress_gems, source
		FROM sender_relationships WHERE sender_domain = ?`, senderDomain).Scan(
		&r.SenderDomain, &relType, &r.Note, &r.SuppressGems, &source)
	if err == sql.ErrNoRows {
		return domain.SenderRelationship{
			SenderDomain:     senderDomain,
			RelationshipType: domain.RelUnknown,
			Source:           domain.RelSourceAutoDetected,
		}, nil
	}
	if err != nil {
		return domain.SenderRelationship{}, err
	}
	r.RelationshipType = domain.RelationshipType(relType)
	r.Source = domain.RelationshipSource(source)
	return r, nil
}

// AllSenderRelationships returns every persisted relationship row, the
// `relationships --list` CLI verb's backing query (§6.1). Domains with no
// row yet (never profiled, or profiled but never classified) are omitted
// rather than synthesized, unlike GetSenderRelationship's single-domain
// "unknown" default.
func (s *Store) AllSenderRelationships(ctx context.Context) ([]domain.SenderRelationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender_domain, relationship_type, note, suppress_gems, source
		FROM sender_relationships ORDER BY sender_domain ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SenderRelationship
	for rows.Next() {
		var r domain.SenderRelationship
		var relType, source string
		if err := rows.Scan(&r.SenderDomain, &relType, &r.Note, &r.SuppressGems, &source); err != nil {
			return nil, err
		}
		r.RelationshipType = domain.RelationshipType(relType)
		r.Source = domain.RelationshipSource(source)
		out = append(out, r)
	}
	return out, rows.Err()
}
