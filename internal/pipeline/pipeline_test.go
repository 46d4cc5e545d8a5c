package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/knownentities"
	"github.com/hoyack/gemsieve/internal/mailprovider"
	"github.com/hoyack/gemsieve/internal/ner"
	"github.com/hoyack/gemsieve/internal/store"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.AI.Provider = "ollama"
	cfg.AI.Model = "llama3"
	cfg.Mail.HistoricalDays = 30
	cfg.Pipeline.MaxConcurrency = 4
	cfg.Pipeline.BatchSize = 200
	cfg.Pipeline.DormantThreadDays = 14
	return cfg
}

func newTestOrchestrator(t *testing.T, mail mailprovider.Provider) (*Orchestrator, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	o, err := New(st, testConfig(), mail, ner.NoopTagger{}, knownentities.Empty(), nil)
	require.NoError(t, err)
	return o, st
}

// fakeMail is a mailprovider.Provider test double returning a fixed batch
// of messages for ListMessages and never having an incremental cursor.
type fakeMail struct {
	messages []domain.Message
	err      error
}

func (f *fakeMail) ListMessages(ctx context.Context, since time.Time) ([]domain.Message, error) {
	return f.messages, f.err
}

func (f *fakeMail) HistoryDelta(ctx context.Context, historyID string) (mailprovider.HistoryDelta, error) {
	return mailprovider.HistoryDelta{}, f.err
}

func TestRunStage_RejectsConcurrentSameStage(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeMail{})
	ctx := context.Background()

	o.mu.Lock()
	o.running[domain.StageIngest] = true
	o.mu.Unlock()

	_, err := o.RunStage(ctx, domain.StageIngest, domain.TriggeredByCLI)
	require.Error(t, err)
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, ErrKindInvariant, stageErr.Kind)
}

func TestRunStage_NoMailProviderFailsIngest(t *testing.T) {
	o, st := newTestOrchestrator(t, nil)
	ctx := context.Background()

	run, err := o.RunStage(ctx, domain.StageIngest, domain.TriggeredByCLI)
	require.Error(t, err)
	require.Equal(t, domain.RunFailed, run.Status)
	require.NotZero(t, run.ID)

	persisted, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RunFailed, persisted.Status)
	require.NotEmpty(t, persisted.ErrorMessage)

	require.False(t, o.IsRunning(domain.StageIngest))
}

func TestRunStage_ConfigSnapshotRedactsAPIKey(t *testing.T) {
	o, st := newTestOrchestrator(t, nil)
	o.cfg.AI.APIKey = "super-secret-key"
	ctx := context.Background()

	run, err := o.RunStage(ctx, domain.StageIngest, domain.TriggeredByCLI)
	require.Error(t, err) // nil mail provider, expected to fail, irrelevant to this assertion

	persisted, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotContains(t, persisted.ConfigSnapshot, "super-secret-key")
	require.Contains(t, persisted.ConfigSnapshot, "REDACTED")

	// the orchestrator's own config must be untouched by the snapshot copy
	require.Equal(t, "super-secret-key", o.cfg.AI.APIKey)
}

func TestRunAll_StopsAtFirstFailingStage(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil) // nil mail provider fails the ingest stage
	ctx := context.Background()

	runs, err := o.RunAll(ctx, domain.TriggeredByCLI)
	require.Error(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, domain.StageIngest, runs[0].Stage)
	require.Equal(t, domain.RunFailed, runs[0].Status)
}

func TestRunIngest_RecomputesThreadAggregate(t *testing.T) {
	now := time.Now().UTC()
	other := domain.Address{Name: "Vendor", Email: "sales@example.com"}
	user := domain.Address{Name: "Me", Email: "me@mine.com"}

	messages := []domain.Message{
		{
			MessageID:    "m1",
			ThreadID:     "t1",
			Date:         now.Add(-72 * time.Hour),
			From:         other,
			To:           []domain.Address{user},
			Subject:      "Re: Fwd: Quote request",
			IsSentByUser: false,
		},
		{
			MessageID:    "m2",
			ThreadID:     "t1",
			Date:         now.Add(-48 * time.Hour),
			From:         user,
			To:           []domain.Address{other},
			Subject:      "Re: Quote request",
			IsSentByUser: true,
		},
	}

	o, st := newTestOrchestrator(t, &fakeMail{messages: messages})
	ctx := context.Background()

	run, err := o.RunStage(ctx, domain.StageIngest, domain.TriggeredByCLI)
	require.NoError(t, err)
	require.Equal(t, domain.RunCompleted, run.Status)
	require.Equal(t, 2, run.ItemsProcessed)

	thread, err := st.GetThread(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 2, thread.MessageCount)
	require.Equal(t, 2, thread.ParticipantCount)
	require.True(t, thread.UserParticipated)
	require.False(t, thread.InitiatedByUser)
	require.Equal(t, domain.AwaitingOther, thread.AwaitingResponseFrom)
	require.Equal(t, "quote request", thread.NormalizedSubject)
	require.Equal(t, "example.com", thread.SenderDomain)

	state, err := st.GetSyncState(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), state.TotalSynced)
	require.NotNil(t, state.LastFullSync)
}

func TestRunIngest_IncrementalUsesHistoryDelta(t *testing.T) {
	mail := &incrementalMail{delta: mailprovider.HistoryDelta{
		Messages: []domain.Message{{
			MessageID: "m3", ThreadID: "t2",
			Date:         time.Now().UTC(),
			From:         domain.Address{Email: "someone@other.com"},
			To:           []domain.Address{{Email: "me@mine.com"}},
			Subject:      "Hello",
			IsSentByUser: false,
		}},
		NewHistoryID: "200",
	}}
	o, st := newTestOrchestrator(t, mail)
	ctx := context.Background()

	require.NoError(t, st.SaveSyncState(ctx, domain.SyncState{LastHistoryID: "100"}))

	run, err := o.RunStage(ctx, domain.StageIngest, domain.TriggeredByCLI)
	require.NoError(t, err)
	require.Equal(t, 1, run.ItemsProcessed)

	state, err := st.GetSyncState(ctx)
	require.NoError(t, err)
	require.Equal(t, "200", state.LastHistoryID)
	require.NotNil(t, state.LastIncrementalSync)
}

type incrementalMail struct {
	delta mailprovider.HistoryDelta
	err   error
}

func (m *incrementalMail) ListMessages(ctx context.Context, since time.Time) ([]domain.Message, error) {
	return nil, nil
}

func (m *incrementalMail) HistoryDelta(ctx context.Context, historyID string) (mailprovider.HistoryDelta, error) {
	return m.delta, m.err
}

func TestNormalizeSubject_StripsStackedPrefixes(t *testing.T) {
	require.Equal(t, "quote request", normalizeSubject("Re: Fwd: Re: quote request"))
	require.Equal(t, "plain subject", normalizeSubject("plain subject"))
}

func TestRedactedConfig_DoesNotMutateOriginal(t *testing.T) {
	cfg := testConfig()
	cfg.AI.APIKey = "abc123"

	redacted := redactedConfig(cfg)
	require.Equal(t, "REDACTED", redacted.AI.APIKey)
	require.Equal(t, "abc123", cfg.AI.APIKey)
}

func TestRedactedConfig_EmptyKeyStaysEmpty(t *testing.T) {
	cfg := testConfig()
	redacted := redactedConfig(cfg)
	require.Empty(t, redacted.AI.APIKey)
}

func TestStageError_ErrorAndUnwrap(t *testing.T) {
	inner := context.DeadlineExceeded
	err := stageErr(domain.StageClassify, ErrKindTransport, inner)
	require.Contains(t, err.Error(), "classify")
	require.Contains(t, err.Error(), "transport")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunConcurrent_BoundsWorkersAndCollectsFirstError(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	maxInFlight := 0
	current := 0
	var lock = make(chan struct{}, 1)
	lock <- struct{}{}

	processed, err := runConcurrent(context.Background(), items, 2, func(ctx context.Context, item string) error {
		<-lock
		current++
		if current > maxInFlight {
			maxInFlight = current
		}
		lock <- struct{}{}

		time.Sleep(time.Millisecond)

		<-lock
		current--
		lock <- struct{}{}

		if item == "c" {
			return context.DeadlineExceeded
		}
		return nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 4, processed) // every item but "c" succeeds
	require.LessOrEqual(t, maxInFlight, 2)
}

func TestRunConcurrent_StopsDispatchingAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processed, err := runConcurrent(ctx, []string{"a", "b"}, 2, func(ctx context.Context, item string) error {
		t.Fatal("fn should never run once the context is already cancelled")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, processed)
}

func TestAuditedProvider_CLIUsesNoopRecorder(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)
	provider := o.auditedProvider(1, domain.StageClassify, "classify.v1", domain.TriggeredByCLI)
	require.NotNil(t, provider)
}

func TestNoopBroadcaster_DoesNotPanic(t *testing.T) {
	var b NoopBroadcaster
	b.Publish(context.Background(), Event{RunID: 1, Stage: domain.StageIngest, Kind: "started", At: time.Now()})
}
