package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/domain"
)

type fakeGemStore struct {
	threads map[string][]domain.Thread
	*fakeStore
	inserted []domain.Gem
	open     map[string][]domain.Gem
}

func newFakeGemStore() *fakeGemStore {
	return &fakeGemStore{
		threads:   map[string][]domain.Thread{},
		fakeStore: newFakeStore(),
		open:      map[string][]domain.Gem{},
	}
}

func (f *fakeGemStore) ThreadsForSenderDomain(ctx context.Context, d string) ([]domain.Thread, error) {
	return f.threads[d], nil
}

func (f *fakeGemStore) OpenGemsForDomain(ctx context.Context, d string) ([]domain.Gem, error) {
	return f.open[d], nil
}

func (f *fakeGemStore) InsertGem(ctx context.Context, g domain.Gem) (int64, error) {
	g.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, g)
	f.open[g.SenderDomain] = append(f.open[g.SenderDomain], g)
	return g.ID, nil
}

func TestDetectGemsDormantWarmThreadHit(t *testing.T) {
	store := newFakeGemStore()
	d := "acme.com"
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	store.threads[d] = []domain.Thread{
		{ThreadID: "t1", SenderDomain: d, AwaitingResponseFrom: domain.AwaitingUser,
			DaysDormant: 45, UserParticipated: true, MessageCount: 2,
			LastMessageDate: now.AddDate(0, 0, -45)},
	}
	store.messages[d] = []domain.Message{
		{MessageID: "m1", ThreadID: "t1", Subject: "Pricing question", TextBody: "What's your pricing for the enterprise plan? We have budget allocated."},
		{MessageID: "m2", ThreadID: "t1", Subject: "re: Pricing question", TextBody: "Can you also send a quote for add-ons?"},
	}

	rel := domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelWarmContact}
	p := domain.SenderProfile{SenderDomain: d}

	gems, err := DetectGems(context.Background(), store, GemDetectionConfig{MinDormancyDays: 14}, rel, p, 0)
	require.NoError(t, err)
	require.Len(t, gems, 1)
	g := gems[0]
	require.Equal(t, domain.GemDormantWarmThread, g.GemType)
	require.Equal(t, "t1", g.ThreadID)
	require.LessOrEqual(t, g.Score, 90.0)
	require.Equal(t, domain.UrgencyHigh, g.Explanation.Urgency)
}

func TestDetectGemsDormantWarmThreadIneligibleRelationship(t *testing.T) {
	store := newFakeGemStore()
	d := "vendor.com"
	store.threads[d] = []domain.Thread{
		{ThreadID: "t1", SenderDomain: d, AwaitingResponseFrom: domain.AwaitingUser,
			DaysDormant: 45, UserParticipated: true, MessageCount: 2},
	}
	store.messages[d] = []domain.Message{
		{MessageID: "m1", ThreadID: "t1", TextBody: "What's your pricing?"},
	}
	rel := domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelMyVendor}
	gems, err := DetectGems(context.Background(), store, GemDetectionConfig{MinDormancyDays: 14}, rel, domain.SenderProfile{SenderDomain: d}, 0)
	require.NoError(t, err)
	require.Empty(t, gems)
}

func TestDetectGemsCompletionSignalSuppressesDormantWarmThread(t *testing.T) {
	store := newFakeGemStore()
	d := "acme.com"
	store.threads[d] = []domain.Thread{
		{ThreadID: "t1", SenderDomain: d, AwaitingResponseFrom: domain.AwaitingUser,
			DaysDormant: 45, UserParticipated: true, MessageCount: 2},
	}
	store.messages[d] = []domain.Message{
		{MessageID: "m1", ThreadID: "t1", TextBody: "What's your pricing for this?"},
		{MessageID: "m2", ThreadID: "t1", TextBody: "Thanks for everything, great working with you on this project."},
	}
	rel := domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelWarmContact}
	gems, err := DetectGems(context.Background(), store, GemDetectionConfig{MinDormancyDays: 14}, rel, domain.SenderProfile{SenderDomain: d}, 0)
	require.NoError(t, err)
	require.Empty(t, gems)
}

func TestDetectGemsSkipsDuplicateOpenGem(t *testing.T) {
	store := newFakeGemStore()
	d := "acme.com"
	store.threads[d] = []domain.Thread{
		{ThreadID: "t1", SenderDomain: d, AwaitingResponseFrom: domain.AwaitingUser,
			DaysDormant: 45, UserParticipated: true, MessageCount: 2},
	}
	store.messages[d] = []domain.Message{
		{MessageID: "m1", ThreadID: "t1", TextBody: "What's your pricing for this?"},
	}
	store.open[d] = []domain.Gem{{GemType: domain.GemDormantWarmThread, SenderDomain: d, ThreadID: "t1", Status: domain.GemStatusNew}}

	rel := domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelWarmContact}
	gems, err := DetectGems(context.Background(), store, GemDetectionConfig{MinDormancyDays: 14}, rel, domain.SenderProfile{SenderDomain: d}, 0)
	require.NoError(t, err)
	require.Empty(t, gems)
}

func TestDetectGemsWeakMarketingLead(t *testing.T) {
	store := newFakeGemStore()
	d := "smallco.com"
	rel := domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelInboundProspect}
	p := domain.SenderProfile{
		SenderDomain:               d,
		CompanySize:                domain.CompanySizeSmall,
		Industry:                   "retail",
		MarketingSophisticationAvg: 3,
	}
	cfg := GemDetectionConfig{TargetIndustries: []string{"retail", "saas"}}
	gems, err := DetectGems(context.Background(), store, cfg, rel, p, 0)
	require.NoError(t, err)
	require.Len(t, gems, 1)
	require.Equal(t, domain.GemWeakMarketingLead, gems[0].GemType)
	require.InDelta(t, 50, gems[0].Score, 0.01)
}

func TestDetectGemsSuppressedRelationshipYieldsNoGems(t *testing.T) {
	store := newFakeGemStore()
	d := "suppressed.com"
	store.threads[d] = []domain.Thread{
		{ThreadID: "t1", SenderDomain: d, AwaitingResponseFrom: domain.AwaitingUser, DaysDormant: 30, UserParticipated: true, MessageCount: 3},
	}
	rel := domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelWarmContact, SuppressGems: true}
	gems, err := DetectGems(context.Background(), store, GemDetectionConfig{}, rel, domain.SenderProfile{SenderDomain: d}, 0)
	require.NoError(t, err)
	require.Empty(t, gems)
}

func TestDetectGemsProcurementSignal(t *testing.T) {
	store := newFakeGemStore()
	d := "buyer.com"
	store.messages[d] = []domain.Message{{MessageID: "m1", ThreadID: "t1"}}
	store.entities["m1"] = []domain.ExtractedEntity{
		{MessageID: "m1", Type: domain.EntityProcurementSignal, Normalized: "security_review"},
	}
	rel := domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelInboundProspect}
	gems, err := DetectGems(context.Background(), store, GemDetectionConfig{}, rel, domain.SenderProfile{SenderDomain: d}, 0)
	require.NoError(t, err)
	require.Len(t, gems, 1)
	require.Equal(t, domain.GemProcurementSignal, gems[0].GemType)
	require.InDelta(t, 65, gems[0].Score, 0.01)
}

func TestWarmSignalScanCapsAtThirty(t *testing.T) {
	text := "What's your pricing? Let's schedule a call. Can you send budget details, our CEO needs to sign off, and following up on this."
	score, hits := warmSignalScan(text)
	require.Equal(t, 30, score)
	require.NotEmpty(t, hits)
}
