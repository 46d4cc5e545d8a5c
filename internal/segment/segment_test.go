package segment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
)

type fakeStore struct {
	messages  map[string][]domain.Message
	entities  map[string][]domain.ExtractedEntity
	relations map[string]domain.SenderRelationship
	gems      map[string][]domain.Gem
	segments  map[string][]domain.SenderSegment
	scores    map[int64]float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:  map[string][]domain.Message{},
		entities:  map[string][]domain.ExtractedEntity{},
		relations: map[string]domain.SenderRelationship{},
		gems:      map[string][]domain.Gem{},
		segments:  map[string][]domain.SenderSegment{},
		scores:    map[int64]float64{},
	}
}

func (f *fakeStore) MessagesBySenderDomain(ctx context.Context, d string) ([]domain.Message, error) {
	return f.messages[d], nil
}
func (f *fakeStore) EntitiesForMessages(ctx context.Context, ids []string) ([]domain.ExtractedEntity, error) {
	var out []domain.ExtractedEntity
	for _, id := range ids {
		out = append(out, f.entities[id]...)
	}
	return out, nil
}
func (f *fakeStore) GetSenderRelationship(ctx context.Context, d string) (domain.SenderRelationship, error) {
	return f.relations[d], nil
}
func (f *fakeStore) OpenGemsForDomain(ctx context.Context, d string) ([]domain.Gem, error) {
	return f.gems[d], nil
}
func (f *fakeStore) ReplaceSenderSegments(ctx context.Context, d string, segs []domain.SenderSegment) error {
	f.segments[d] = segs
	return nil
}
func (f *fakeStore) UpdateGemScore(ctx context.Context, id int64, score float64) error {
	f.scores[id] = score
	return nil
}

func TestAssignCapsScoreByRelationship(t *testing.T) {
	store := newFakeStore()
	d := "acme.com"
	store.relations[d] = domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelWarmContact}
	store.gems[d] = []domain.Gem{
		{ID: 1, GemType: domain.GemDormantWarmThread, SenderDomain: d},
		{ID: 2, GemType: domain.GemPartnerProgram, SenderDomain: d},
		{ID: 3, GemType: domain.GemProcurementSignal, SenderDomain: d},
	}

	p := domain.SenderProfile{
		SenderDomain:          d,
		CompanySize:           domain.CompanySizeSmall,
		Industry:              "saas",
		LastContact:           time.Now(),
		ThreadInitiationRatio: 0,
		UserReplyRate:         1,
		MonetarySignals:       []string{"$5,000"},
		KnownContacts:         []domain.Contact{{Priority: domain.PersonDecisionMaker}},
	}
	cfg := config.ScoringConfig{TargetIndustries: []string{"saas"}}

	_, err := Assign(context.Background(), store, cfg, p)
	require.NoError(t, err)
	require.Equal(t, 90.0, store.scores[1])
	require.Equal(t, 90.0, store.scores[2])
	require.Equal(t, 90.0, store.scores[3])
}

func TestAssignSuppressedRelationshipScoresZero(t *testing.T) {
	store := newFakeStore()
	d := "acme.com"
	store.relations[d] = domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelWarmContact, SuppressGems: true}
	store.gems[d] = []domain.Gem{{ID: 1, GemType: domain.GemDormantWarmThread, SenderDomain: d}}

	_, err := Assign(context.Background(), store, config.ScoringConfig{}, domain.SenderProfile{SenderDomain: d})
	require.NoError(t, err)
	require.Equal(t, 0.0, store.scores[1])
}

func TestAssignSegmentsSpendMapUpcomingRenewal(t *testing.T) {
	store := newFakeStore()
	d := "vendor.com"
	store.relations[d] = domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelMyVendor}
	p := domain.SenderProfile{
		SenderDomain:    d,
		MonetarySignals: []string{"$99/mo"},
		RenewalDates:    []string{"renewal:future"},
	}
	segs, err := Assign(context.Background(), store, config.ScoringConfig{}, p)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, domain.SegmentSpendMap, segs[0].Segment)
	require.Equal(t, "upcoming_renewal", segs[0].SubSegment)
}

func TestAssignSegmentsProcurementMap(t *testing.T) {
	store := newFakeStore()
	d := "buyer.com"
	store.relations[d] = domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelInboundProspect}
	store.messages[d] = []domain.Message{{MessageID: "m1"}}
	store.entities["m1"] = []domain.ExtractedEntity{{MessageID: "m1", Type: domain.EntityProcurementSignal, Normalized: "security_review"}}

	segs, err := Assign(context.Background(), store, config.ScoringConfig{}, domain.SenderProfile{SenderDomain: d})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, domain.SegmentProcurementMap, segs[0].Segment)
	require.Equal(t, "security_compliance", segs[0].SubSegment)
}

func TestGemSubscoreCapsUniqueTypesAtThree(t *testing.T) {
	gems := []domain.Gem{
		{GemType: domain.GemDormantWarmThread},
		{GemType: domain.GemUnansweredAsk},
		{GemType: domain.GemWeakMarketingLead},
		{GemType: domain.GemPartnerProgram},
	}
	score := gemSubscore(gems)
	require.Equal(t, float64(3*5+10+3), score)
}

func TestInboundSubscoreClampsReplyRate(t *testing.T) {
	score := inboundSubscore(domain.SenderProfile{ThreadInitiationRatio: 0, UserReplyRate: 2})
	require.Equal(t, 30.0, score)
}
