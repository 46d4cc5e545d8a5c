package store

import (
	"context"
	"testing"
	"time"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()))
}

func TestUpsertMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := domain.Message{
		MessageID: "m1",
		ThreadID:  "t1",
		Date:      time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC),
		From:      domain.Address{Name: "Acme Sales", Email: "sales@acme.com"},
		To:        []domain.Address{{Email: "me@example.com"}},
		Subject:   "Your Acme trial",
		Labels:    []string{"INBOX", "CATEGORY_PROMOTIONS"},
	}
	require.NoError(t, s.UpsertMessage(ctx, msg))

	got, err := s.GetMessage(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, msg.From.Email, got.From.Email)
	require.Equal(t, msg.Subject, got.Subject)
	require.ElementsMatch(t, msg.Labels, got.Labels)
	require.Len(t, got.To, 1)

	// re-upsert with a changed subject must overwrite in place, not duplicate.
	msg.Subject = "Your Acme trial ends soon"
	require.NoError(t, s.UpsertMessage(ctx, msg))
	got, err = s.GetMessage(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "Your Acme trial ends soon", got.Subject)
}

func TestGetMessageNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMessage(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMessagesMissingFromAntiJoin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.UpsertMessage(ctx, domain.Message{
			MessageID: id, ThreadID: "t1", Date: time.Now().UTC(),
			From: domain.Address{Email: "a@b.com"},
		}))
	}
	require.NoError(t, s.UpsertParsedMetadata(ctx, domain.ParsedMetadata{MessageID: "m1", SenderDomain: "b.com"}))

	pending, err := s.MessagesMissingFrom(ctx, "parsed_metadata", 10)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"m2", "m3"}, pending)
}

func TestGemLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSenderProfile(ctx, domain.SenderProfile{SenderDomain: "acme.com"}))

	id, err := s.InsertGem(ctx, domain.Gem{
		GemType:      domain.GemDormantWarmThread,
		SenderDomain: "acme.com",
		Score:        72.5,
		Status:       domain.GemStatusNew,
		Explanation: domain.GemExplanation{
			GemType: domain.GemDormantWarmThread,
			Summary: "thread gone quiet after a live negotiation",
		},
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	open, err := s.OpenGemsForDomain(ctx, "acme.com")
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, domain.GemDormantWarmThread, open[0].GemType)

	require.NoError(t, s.SetGemStatus(ctx, id, domain.GemStatusDismissed))
	open, err = s.OpenGemsForDomain(ctx, "acme.com")
	require.NoError(t, err)
	require.Len(t, open, 0)
}

func TestSenderRelationshipManualPinWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertSenderRelationship(ctx, domain.SenderRelationship{
		SenderDomain: "acme.com", RelationshipType: domain.RelMyVendor, Source: domain.RelSourceManual,
	}))
	// an auto-detected write must not clobber the manual pin.
	require.NoError(t, s.UpsertSenderRelationship(ctx, domain.SenderRelationship{
		SenderDomain: "acme.com", RelationshipType: domain.RelSellingToMe, Source: domain.RelSourceAutoDetected,
	}))

	got, err := s.GetSenderRelationship(ctx, "acme.com")
	require.NoError(t, err)
	require.Equal(t, domain.RelMyVendor, got.RelationshipType)
}

func TestReplaceSenderSegmentsReplacesNotAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceSenderSegments(ctx, "acme.com", []domain.SenderSegment{
		{SenderDomain: "acme.com", Segment: domain.SegmentSpendMap, SubSegment: "active_vendor", Confidence: 0.9},
	}))
	require.NoError(t, s.ReplaceSenderSegments(ctx, "acme.com", []domain.SenderSegment{
		{SenderDomain: "acme.com", Segment: domain.SegmentProspectMap, SubSegment: "cold", Confidence: 0.4},
	}))

	segs, err := s.SegmentsForDomain(ctx, "acme.com")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, domain.SegmentProspectMap, segs[0].Segment)
}
