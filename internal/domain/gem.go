package domain

// GemSignal is one line of evidence inside a gem's structured explanation.
type GemSignal struct {
	Signal    string      `json:"signal"`
	Evidence  string      `json:"evidence,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	Threshold interface{} `json:"threshold,omitempty"`
}

// GemExplanation is the structured record attached to every gem (§4.7.4).
type GemExplanation struct {
	GemType        GemType        `json:"gem_type"`
	Summary        string         `json:"summary"`
	Signals        []GemSignal    `json:"signals"`
	Confidence     float64        `json:"confidence"` // 0..1
	EstimatedValue EstimatedValue `json:"estimated_value"`
	Urgency        Urgency        `json:"urgency"`
}

// Gem is a typed, scored, self-explaining commercial opportunity (§3, §4.7-§4.8).
type Gem struct {
	ID                 int64          `json:"id"`
	GemType             GemType        `json:"gem_type"`
	SenderDomain        string         `json:"sender_domain"`
	ThreadID            string         `json:"thread_id,omitempty"`
	Score               float64        `json:"score"` // 0..100
	Explanation         GemExplanation `json:"explanation"`
	RecommendedActions  []string       `json:"recommended_actions"`
	SourceMessageIDs    []string       `json:"source_message_ids"`
	Status              GemStatus      `json:"status"`
}
