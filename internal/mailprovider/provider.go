// Package mailprovider is the external mailbox collaborator boundary
// (§6.4): gemsieve never talks to a mail API directly from the pipeline,
// only through this interface, so ingestion can be swapped or mocked
// without touching stage code.
package mailprovider

import (
	"context"
	"time"

	"github.com/hoyack/gemsieve/internal/domain"
)

// HistoryDelta is the result of an incremental sync: new/changed messages
// plus the history cursor to persist for next time (§4.2 "Incremental sync").
type HistoryDelta struct {
	Messages      []domain.Message
	NewHistoryID  string
	HistoryExpired bool // true if the provider could no longer satisfy an incremental diff
}

// Provider is the mail collaborator's contract.
type Provider interface {
	// ListMessages performs a full historical sync, returning every message
	// since `since` (§4.2 "Historical backfill").
	ListMessages(ctx context.Context, since time.Time) ([]domain.Message, error)

	// HistoryDelta performs an incremental sync from a previously persisted
	// history cursor. If the provider reports the cursor expired (too old),
	// HistoryExpired is true and the caller must fall back to ListMessages.
	HistoryDelta(ctx context.Context, historyID string) (HistoryDelta, error)
}
