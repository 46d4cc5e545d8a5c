package domain

import "time"

// Contact is a collapsed person entity attached to a sender profile,
// ranked by PersonRelationship priority (§4.7.1 "Contacts").
type Contact struct {
	Name     string             `json:"name"`
	Role     string             `json:"role"`
	Email    string             `json:"email"`
	Priority PersonRelationship `json:"priority"`
}

// SenderProfile is the per-domain aggregate the profiler assembles and the
// gem detector, segmenter, and scorer all read (§3, §4.7.1-§4.7.2).
type SenderProfile struct {
	SenderDomain              string             `json:"sender_domain"`
	CompanyName               string             `json:"company_name"`
	PrimaryEmail              string             `json:"primary_email"`
	ReplyToEmail              string             `json:"reply_to_email"`
	Industry                  string             `json:"industry"`
	CompanySize               CompanySize        `json:"company_size"`
	MarketingSophisticationAvg float64           `json:"marketing_sophistication_avg"`
	SophisticationTrend        string            `json:"sophistication_trend"` // "rising" | "falling" | "flat"
	ESPUsed                    string             `json:"esp_used"`
	ProductType                string             `json:"product_type"`
	ProductDescription         string             `json:"product_description"`
	PainPoints                 []string           `json:"pain_points"`
	TargetAudience              string             `json:"target_audience"`
	KnownContacts               []Contact          `json:"known_contacts"`
	TotalMessages               int                `json:"total_messages"`
	FirstContact                 time.Time          `json:"first_contact"`
	LastContact                  time.Time          `json:"last_contact"`
	AvgFrequencyDays              float64            `json:"avg_frequency_days"`
	OfferTypeDistribution          map[string]int     `json:"offer_type_distribution"`
	CTATextsAll                    []string           `json:"cta_texts_all"`
	SocialLinks                    map[string]string  `json:"social_links"`
	PhysicalAddress                 string             `json:"physical_address"`
	UTMCampaignNames                 []string           `json:"utm_campaign_names"`
	HasPersonalization                bool               `json:"has_personalization"`
	HasPartnerProgram                  bool               `json:"has_partner_program"`
	PartnerProgramURLs                  []string           `json:"partner_program_urls"`
	RenewalDates                          []string           `json:"renewal_dates"` // normalized date strings, e.g. "renewal:future"
	MonetarySignals                        []string           `json:"monetary_signals"`
	AuthenticationQuality                    string             `json:"authentication_quality"` // "strong" | "weak" | "none"
	UnsubscribeURL                            string             `json:"unsubscribe_url"`
	EconomicSegments                           []Segment          `json:"economic_segments"`
	ThreadInitiationRatio                       float64            `json:"thread_initiation_ratio"` // 0..1
	UserReplyRate                                float64            `json:"user_reply_rate"`         // 0..1
}

// SenderRelationship is the profile's classified (or user-pinned)
// relationship to the mailbox owner (§4.7.3).
type SenderRelationship struct {
	SenderDomain   string             `json:"sender_domain"`
	RelationshipType RelationshipType `json:"relationship_type"`
	Note           string             `json:"note"`
	SuppressGems   bool               `json:"suppress_gems"`
	Source         RelationshipSource `json:"source"`
}

// SenderSegment is one junction row (domain, segment, sub_segment).
type SenderSegment struct {
	SenderDomain string  `json:"sender_domain"`
	Segment      Segment `json:"segment"`
	SubSegment   string  `json:"sub_segment"`
	Confidence   float64 `json:"confidence"`
}
