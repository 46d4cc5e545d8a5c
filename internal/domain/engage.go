package domain

import "time"

// EngagementDraft is a strategy-specific outreach draft attached to a gem
// (§3, §4.9). Drafts are never auto-sent — see spec Non-goals.
type EngagementDraft struct {
	ID               int64       `json:"id"`
	GemID            int64       `json:"gem_id"`
	SenderDomain     string      `json:"sender_domain"`
	Strategy         Strategy    `json:"strategy"`
	Channel          string      `json:"channel"` // "email" for every strategy today
	SubjectLine      string      `json:"subject_line"`
	BodyText         string      `json:"body_text"`
	BodyHTML         string      `json:"body_html"`
	Status           DraftStatus `json:"status"`
	GeneratedAt      time.Time   `json:"generated_at"`
	SentAt           *time.Time  `json:"sent_at,omitempty"`
	ResponseReceived  bool        `json:"response_received"`
	ResponseSentiment string      `json:"response_sentiment,omitempty"`
}
