package domain

// ExtractedEntity is one NER/regex/header-sourced span (§3, §4.5).
type ExtractedEntity struct {
	ID         int64        `json:"id"`
	MessageID  string       `json:"message_id"`
	Type       EntityType   `json:"type"`
	Value      string       `json:"value"`
	Normalized string       `json:"normalized"`
	Context    string       `json:"context"` // PersonRelationship for person entities, free text otherwise
	Confidence float64      `json:"confidence"` // 0..1
	Source     EntitySource `json:"source"`
}
