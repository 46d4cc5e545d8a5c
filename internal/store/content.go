package store

import (
	"context"
	"database/sql"

	"github.com/hoyack/gemsieve/internal/domain"
)

// UpsertParsedContent writes the content parser's output row for one
// message (§4.4).
func (s *Store) UpsertParsedContent(ctx context.Context, c domain.ParsedContent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parsed_content (
			message_id, body_clean, signature_block, footer_block, primary_headline,
			cta_texts_json, offer_types_json, has_personalization, personalization_tokens_json,
			link_count, tracking_pixel_count, unique_link_domains_json, link_intents_json,
			utm_campaigns_json, physical_address, social_links_json, image_count,
			template_complexity_score
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(message_id) DO UPDATE SET
			body_clean=excluded.body_clean, signature_block=excluded.signature_block,
			footer_block=excluded.footer_block, primary_headline=excluded.primary_headline,
			cta_texts_json=excluded.cta_texts_json, offer_types_json=excluded.offer_types_json,
			has_personalization=excluded.has_personalization,
			personalization_tokens_json=excluded.personalization_tokens_json,
			link_count=excluded.link_count, tracking_pixel_count=excluded.tracking_pixel_count,
			unique_link_domains_json=excluded.unique_link_domains_json,
			link_intents_json=excluded.link_intents_json, utm_campaigns_json=excluded.utm_campaigns_json,
			physical_address=excluded.physical_address, social_links_json=excluded.social_links_json,
			image_count=excluded.image_count, template_complexity_score=excluded.template_complexity_score
	`,
		c.MessageID, c.BodyClean, c.SignatureBlock, c.FooterBlock, c.PrimaryHeadline,
		toJSON(c.CTATexts), toJSON(c.OfferTypes), c.HasPersonalization, toJSON(c.PersonalizationTokens),
		c.LinkCount, c.TrackingPixelCount, toJSON(c.UniqueLinkDomains), toJSON(c.LinkIntents),
		toJSON(c.UTMCampaigns), c.PhysicalAddress, toJSON(c.SocialLinks), c.ImageCount,
		c.TemplateComplexityScore,
	)
	return err
}

// GetParsedContent fetches the content row for one message.
func (s *Store) GetParsedContent(ctx context.Context, messageID string) (domain.ParsedContent, error) {
	var c domain.ParsedContent
	var cta, offers, tokens, domains, intents, utm, social string
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, body_clean, signature_block, footer_block, primary_headline,
			cta_texts_json, offer_types_json, has_personalization, personalization_tokens_json,
			link_count, tracking_pixel_count, unique_link_domains_json, link_intents_json,
			utm_campaigns_json, physical_address, social_links_json, image_count,
			template_complexity_score
		FROM parsed_content WHERE message_id = ?`, messageID).Scan(
		&c.MessageID, &c.BodyClean, &c.SignatureBlock, &c.FooterBlock, &c.PrimaryHeadline,
		&cta, &offers, &c.HasPersonalization, &tokens,
		&c.LinkCount, &c.TrackingPixelCount, &domains, &intents,
		&utm, &c.PhysicalAddress, &social, &c.ImageCount,
		&c.TemplateComplexityScore,
	)
	if err == sql.ErrNoRows {
		return domain.ParsedContent{}, ErrNotFound
	}
	if err != nil {
		return domain.ParsedContent{}, err
	}
	c.CTATexts = fromJSONSlice(cta)
	c.OfferTypes = fromJSONSlice(offers)
	c.PersonalizationTokens = fromJSONSlice(tokens)
	c.UniqueLinkDomains = fromJSONSlice(domains)
	c.LinkIntents = fromJSONMapSlice(intents)
	c.UTMCampaigns = fromJSONSlice(utm)
	c.SocialLinks = fromJSONMapString(social)
	return c, nil
}

// ParsedContentByMessageIDs batch-fetches content rows, used by the
// profiler and gem detector when folding a sender's full message history.
func (s *Store) ParsedContentByMessageIDs(ctx context.Context, messageIDs []string) (map[string]domain.ParsedContent, error) {
	out := make(map[string]domain.ParsedContent, len(messageIDs))
	for _, id := range messageIDs {
		c, err := s.GetParsedContent(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, nil
}
