package domain

// ParsedContent is the content-parser output row, one per message (§4.4).
type ParsedContent struct {
	MessageID              string              `json:"message_id"`
	BodyClean              string              `json:"body_clean"`
	SignatureBlock         string              `json:"signature_block"`
	FooterBlock            string              `json:"footer_block"`
	PrimaryHeadline        string              `json:"primary_headline"`
	CTATexts               []string            `json:"cta_texts"`
	OfferTypes             []string            `json:"offer_types"` // set, dedup on write
	HasPersonalization     bool                `json:"has_personalization"`
	PersonalizationTokens  []string            `json:"personalization_tokens"`
	LinkCount              int                 `json:"link_count"`
	TrackingPixelCount     int                 `json:"tracking_pixel_count"`
	UniqueLinkDomains      []string            `json:"unique_link_domains"`
	LinkIntents            map[string][]string `json:"link_intents"` // intent -> urls
	UTMCampaigns           []string            `json:"utm_campaigns"`
	PhysicalAddress        string              `json:"physical_address"`
	SocialLinks            map[string]string   `json:"social_links"`
	ImageCount             int                 `json:"image_count"`
	TemplateComplexityScore int                `json:"template_complexity_score"` // 0..100
}
