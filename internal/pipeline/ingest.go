package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/psl"
)

var subjectPrefixPattern = regexp.MustCompile(`(?i)^\s*(re|fwd|fw)\s*:\s*`)

// runIngest performs an incremental sync when a history cursor exists,
// falling back to a full historical backfill on first run or when the
// cursor has expired (§4.2). Every touched thread's aggregate is then
// recomputed from scratch — threads are derived state, never mutated
// incrementally, so re-ingesting the same message twice is always safe.
func (o *Orchestrator) runIngest(ctx context.Context, stage domain.StageName) (int, error) {
	if o.mail == nil {
		return 0, stageErr(stage, ErrKindConfig, fmt.Errorf("no mail provider configured"))
	}

	state, err := o.store.GetSyncState(ctx)
	if err != nil {
		return 0, stageErr(stage, ErrKindTransport, fmt.Errorf("load sync state: %w", err))
	}

	var (
		messages []domain.Message
		newHist  string
	)
	if state.LastHistoryID == "" {
		since := time.Now().AddDate(0, 0, -o.cfg.Mail.HistoricalDays)
		messages, err = o.mail.ListMessages(ctx, since)
		if err != nil {
			return 0, stageErr(stage, ErrKindTransport, fmt.Errorf("historical backfill: %w", err))
		}
	} else {
		delta, err := o.mail.HistoryDelta(ctx, state.LastHistoryID)
		if err != nil {
			return 0, stageErr(stage, ErrKindTransport, fmt.Errorf("incremental sync: %w", err))
		}
		if delta.HistoryExpired {
			since := time.Now().AddDate(0, 0, -o.cfg.Mail.HistoricalDays)
			messages, err = o.mail.ListMessages(ctx, since)
			if err != nil {
				return 0, stageErr(stage, ErrKindTransport, fmt.Errorf("historical backfill after cursor expiry: %w", err))
			}
		} else {
			messages = delta.Messages
			newHist = delta.NewHistoryID
		}
	}

	threadIDs := map[string]bool{}
	processed := 0
	for _, m := range messages {
		if ctx.Err() != nil {
			return processed, stageErr(stage, ErrKindCancellation, ctx.Err())
		}
		if err := o.store.UpsertMessage(ctx, m); err != nil {
			return processed, stageErr(stage, ErrKindSchema, fmt.Errorf("upsert message %s: %w", m.MessageID, err))
		}
		threadIDs[m.ThreadID] = true
		processed++
	}

	sortedThreads := make([]string, 0, len(threadIDs))
	for id := range threadIDs {
		sortedThreads = append(sortedThreads, id)
	}
	sort.Strings(sortedThreads)

	for _, tid := range sortedThreads {
		if ctx.Err() != nil {
			return processed, stageErr(stage, ErrKindCancellation, ctx.Err())
		}
		if err := o.recomputeThread(ctx, tid); err != nil {
			return processed, stageErr(stage, ErrKindInvariant, fmt.Errorf("recompute thread %s: %w", tid, err))
		}
	}

	now := time.Now().UTC()
	if state.LastHistoryID == "" {
		state.LastFullSync = &now
	} else {
		state.LastIncrementalSync = &now
	}
	if newHist != "" {
		state.LastHistoryID = newHist
	}
	state.TotalSynced += int64(processed)
	if err := o.store.SaveSyncState(ctx, state); err != nil {
		return processed, stageErr(stage, ErrKindSchema, fmt.Errorf("save sync state: %w", err))
	}

	return processed, nil
}

// recomputeThread rebuilds one thread's aggregate row from its full
// message history (§4.2 "thread recompute", §4.7.2 initiated_by_user).
func (o *Orchestrator) recomputeThread(ctx context.Context, threadID string) error {
	msgs, err := o.store.MessagesForThread(ctx, threadID)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Date.Before(msgs[j].Date) })

	participants := map[string]bool{}
	userParticipated := false
	var userLastReplied *time.Time
	senderDomain := ""

	for i, m := range msgs {
		participants[strings.ToLower(m.From.Email)] = true
		for _, t := range m.To {
			participants[strings.ToLower(t.Email)] = true
		}
		if m.IsSentByUser {
			userParticipated = true
			d := m.Date
			userLastReplied = &d
		} else if senderDomain == "" {
			senderDomain = psl.OrganizationalRoot(hostOf(m.From.Email))
		}
		_ = i
	}

	last := msgs[len(msgs)-1]
	awaiting := domain.AwaitingNone
	if last.IsSentByUser {
		awaiting = domain.AwaitingOther
	} else {
		awaiting = domain.AwaitingUser
	}

	t := domain.Thread{
		ThreadID:             threadID,
		NormalizedSubject:    normalizeSubject(msgs[0].Subject),
		ParticipantCount:     len(participants),
		MessageCount:         len(msgs),
		FirstMessageDate:     msgs[0].Date,
		LastMessageDate:      last.Date,
		LastSender:           last.From.Email,
		UserParticipated:     userParticipated,
		UserLastReplied:      userLastReplied,
		AwaitingResponseFrom: awaiting,
		DaysDormant:          int(time.Since(last.Date).Hours() / 24),
		InitiatedByUser:      msgs[0].IsSentByUser,
		SenderDomain:         senderDomain,
	}
	return o.store.UpsertThread(ctx, t)
}

func normalizeSubject(s string) string {
	cur := strings.TrimSpace(s)
	for {
		next := strings.TrimSpace(subjectPrefixPattern.ReplaceAllString(cur, ""))
		if next == cur {
			return next
		}
		cur = next
	}
}

func hostOf(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}
