package domain

import "time"

// Address is a single email participant (a From/To/CC entry).
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Message is the canonical record returned by the mail provider adapter
// and persisted verbatim by the ingestion stage (§3 Message, §6.4).
type Message struct {
	MessageID    string            `json:"message_id"`
	ThreadID     string            `json:"thread_id"`
	Date         time.Time         `json:"date"`
	From         Address           `json:"from"`
	To           []Address         `json:"to"`
	CC           []Address         `json:"cc"`
	ReplyTo      string            `json:"reply_to"`
	Subject      string            `json:"subject"`
	RawHeaders   map[string]string `json:"raw_headers"`
	HTMLBody     string            `json:"html_body"`
	TextBody     string            `json:"text_body"`
	Labels       []string          `json:"labels"`
	SizeBytes    int64             `json:"size_bytes"`
	IsSentByUser bool              `json:"is_sent_by_user"`
}

// Attachment is attachment metadata only; bodies are never persisted (§4.2.3).
type Attachment struct {
	ID         int64  `json:"id"`
	MessageID  string `json:"message_id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Thread is the recomputed-on-ingest aggregate over a thread's messages.
type Thread struct {
	ThreadID              string               `json:"thread_id"`
	NormalizedSubject     string               `json:"normalized_subject"`
	ParticipantCount      int                  `json:"participant_count"`
	MessageCount          int                  `json:"message_count"`
	FirstMessageDate      time.Time            `json:"first_message_date"`
	LastMessageDate       time.Time            `json:"last_message_date"`
	LastSender            string               `json:"last_sender"`
	UserParticipated      bool                 `json:"user_participated"`
	UserLastReplied       *time.Time           `json:"user_last_replied,omitempty"`
	AwaitingResponseFrom  AwaitingResponseFrom `json:"awaiting_response_from"`
	DaysDormant           int                  `json:"days_dormant"`
	// InitiatedByUser is true when the thread's earliest message was sent
	// by the mailbox owner — the profiler's thread_initiation_ratio input
	// (§4.7.2), recomputed alongside the other aggregates on ingest.
	InitiatedByUser bool `json:"initiated_by_user"`
	// SenderDomain is the organizational root domain of the other party in
	// the thread — the join key the gem detector uses to attach a
	// dormant thread to its sender_profiles/sender_relationships row
	// (§4.7.4 gate 1). Derived from the non-user participant's address
	// when the thread aggregate is recomputed during ingestion.
	SenderDomain string `json:"sender_domain"`
}

// SyncState is the singleton ingestion cursor/state row.
type SyncState struct {
	LastHistoryID      string     `json:"last_history_id"`
	LastFullSync       *time.Time `json:"last_full_sync,omitempty"`
	LastIncrementalSync *time.Time `json:"last_incremental_sync,omitempty"`
	TotalSynced        int64      `json:"total_synced"`
}
