package domain

// AIClassification is the per-message classifier output row (§3, §4.6).
type AIClassification struct {
	MessageID                string       `json:"message_id"`
	Industry                 string       `json:"industry"`
	CompanySizeEstimate       CompanySize  `json:"company_size_estimate"`
	MarketingSophistication   int          `json:"marketing_sophistication"` // 1..10
	SenderIntent             SenderIntent `json:"sender_intent"`
	ProductType              string       `json:"product_type"`
	ProductDescription       string       `json:"product_description"`
	PainPoints                []string     `json:"pain_points"`
	TargetAudience            string       `json:"target_audience"`
	PartnerProgramDetected    bool         `json:"partner_program_detected"`
	RenewalSignalDetected     bool         `json:"renewal_signal_detected"`
	AIConfidence               float64      `json:"ai_confidence"`
	ModelUsed                 string       `json:"model_used"`
	HasOverride                bool         `json:"has_override"`
}

// ClassificationOverride is a user-supplied correction layered atop the
// AI classifier's output (§4.6 "Override layering").
type ClassificationOverride struct {
	ID             int64         `json:"id"`
	MessageID      string        `json:"message_id,omitempty"` // empty for sender-scope
	SenderDomain   string        `json:"sender_domain"`
	FieldName      string        `json:"field_name"`
	OriginalValue  string        `json:"original_value"`
	CorrectedValue string        `json:"corrected_value"`
	Scope          OverrideScope `json:"scope"`
}
