package engage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/llm"
)

type fakeStore struct {
	gems         map[int64]domain.Gem
	listed       []domain.Gem
	profiles     map[string]domain.SenderProfile
	threads      map[string]domain.Thread
	drafts       []domain.EngagementDraft
	draftsToday  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		gems:     map[int64]domain.Gem{},
		profiles: map[string]domain.SenderProfile{},
		threads:  map[string]domain.Thread{},
	}
}

func (f *fakeStore) GetGem(ctx context.Context, id int64) (domain.Gem, error) {
	return f.gems[id], nil
}
func (f *fakeStore) ListGems(ctx context.Context, status domain.GemStatus, gemType domain.GemType, limit int) ([]domain.Gem, error) {
	return f.listed, nil
}
func (f *fakeStore) GetSenderProfile(ctx context.Context, d string) (domain.SenderProfile, error) {
	return f.profiles[d], nil
}
func (f *fakeStore) GetThread(ctx context.Context, threadID string) (domain.Thread, error) {
	return f.threads[threadID], nil
}
func (f *fakeStore) InsertDraft(ctx context.Context, d domain.EngagementDraft) (int64, error) {
	d.ID = int64(len(f.drafts) + 1)
	f.drafts = append(f.drafts, d)
	return d.ID, nil
}
func (f *fakeStore) DraftsGeneratedSince(ctx context.Context, since time.Time) (int, error) {
	return f.draftsToday, nil
}

type fakeProvider struct {
	resp llm.Response
	err  error
}

func (f *fakeProvider) CompleteFor(ctx context.Context, req llm.Request, senderDomain string) (llm.Response, error) {
	return f.resp, f.err
}

func TestRouteStrategyCoversAllLiveGemTypes(t *testing.T) {
	live := []domain.GemType{
		domain.GemDormantWarmThread, domain.GemUnansweredAsk, domain.GemWeakMarketingLead,
		domain.GemPartnerProgram, domain.GemRenewalLeverage, domain.GemDistributionChannel,
		domain.GemCoMarketing, domain.GemIndustryIntel, domain.GemProcurementSignal,
	}
	for _, gt := range live {
		s := RouteStrategy(gt)
		require.NotEmpty(t, s)
	}
	require.Equal(t, domain.StrategyRevival, RouteStrategy(domain.GemDormantWarmThread))
}

func TestGenerateForGemProducesDraft(t *testing.T) {
	store := newFakeStore()
	store.gems[1] = domain.Gem{ID: 1, GemType: domain.GemDormantWarmThread, SenderDomain: "acme.com", ThreadID: "t1"}
	store.profiles["acme.com"] = domain.SenderProfile{SenderDomain: "acme.com", CompanyName: "Acme"}
	store.threads["t1"] = domain.Thread{ThreadID: "t1", NormalizedSubject: "pricing", DaysDormant: 45}

	body, _ := json.Marshal(draftResponsePayload{SubjectLine: "Checking in", Body: "Hi there"})
	provider := &fakeProvider{resp: llm.Response{Text: string(body), ModelUsed: "test-model"}}

	gen := New(store, provider, config.EngageConfig{YourService: "audits", YourTone: "friendly"}, "test-model")
	draft, err := gen.GenerateForGem(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Checking in", draft.SubjectLine)
	require.Equal(t, domain.StrategyRevival, draft.Strategy)
	require.Len(t, store.drafts, 1)
}

func TestGenerateForGemHandlesInvalidJSON(t *testing.T) {
	store := newFakeStore()
	store.gems[1] = domain.Gem{ID: 1, GemType: domain.GemWeakMarketingLead, SenderDomain: "acme.com"}
	store.profiles["acme.com"] = domain.SenderProfile{SenderDomain: "acme.com"}

	provider := &fakeProvider{resp: llm.Response{Text: "not json"}}
	gen := New(store, provider, config.EngageConfig{}, "test-model")
	draft, err := gen.GenerateForGem(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, draft.SubjectLine)
	require.Contains(t, draft.BodyText, "invalid JSON")
}

func TestGenerateBatchRespectsMaxOutreachPerDay(t *testing.T) {
	store := newFakeStore()
	store.listed = []domain.Gem{
		{ID: 1, GemType: domain.GemWeakMarketingLead, SenderDomain: "a.com"},
		{ID: 2, GemType: domain.GemWeakMarketingLead, SenderDomain: "b.com"},
	}
	store.profiles["a.com"] = domain.SenderProfile{SenderDomain: "a.com"}
	store.profiles["b.com"] = domain.SenderProfile{SenderDomain: "b.com"}
	store.draftsToday = 0

	body, _ := json.Marshal(draftResponsePayload{SubjectLine: "s", Body: "b"})
	provider := &fakeProvider{resp: llm.Response{Text: string(body)}}

	gen := New(store, provider, config.EngageConfig{MaxOutreachPerDay: 1}, "test-model")
	drafts, err := gen.GenerateBatch(context.Background(), domain.StrategyAudit, 10, true)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

func TestGenerateBatchFiltersByPreferredStrategies(t *testing.T) {
	store := newFakeStore()
	store.listed = []domain.Gem{{ID: 1, GemType: domain.GemWeakMarketingLead, SenderDomain: "a.com"}}
	store.profiles["a.com"] = domain.SenderProfile{SenderDomain: "a.com"}

	provider := &fakeProvider{}
	gen := New(store, provider, config.EngageConfig{PreferredStrategies: []string{"revival"}}, "test-model")
	drafts, err := gen.GenerateBatch(context.Background(), domain.StrategyAudit, 10, true)
	require.NoError(t, err)
	require.Empty(t, drafts)
}

func TestObservationPrefersCTAOverOfferType(t *testing.T) {
	p := domain.SenderProfile{CTATextsAll: []string{"Get 20% off"}, OfferTypeDistribution: map[string]int{"bundle": 5}}
	require.Equal(t, "Get 20% off", observation(p))

	p2 := domain.SenderProfile{OfferTypeDistribution: map[string]int{"bundle": 5, "bogo": 1}}
	require.Contains(t, observation(p2), "bundle")
}

func TestBestContactReturnsFirstRankedContact(t *testing.T) {
	name, role := bestContact([]domain.Contact{{Name: "Jane", Role: "CEO"}, {Name: "Sam", Role: "Vendor"}})
	require.Equal(t, "Jane", name)
	require.Equal(t, "CEO", role)
}
