package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/domain"
)

type fakeStore struct {
	messages  map[string][]domain.Message
	content   map[string]domain.ParsedContent
	entities  map[string][]domain.ExtractedEntity
	classif   map[string]domain.AIClassification
	metadata  map[string][]domain.ParsedMetadata
	temporal  map[string]domain.SenderTemporal
	threads   map[string][]domain.Thread
	saved     domain.SenderProfile
	relations map[string]domain.SenderRelationship
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:  map[string][]domain.Message{},
		content:   map[string]domain.ParsedContent{},
		entities:  map[string][]domain.ExtractedEntity{},
		classif:   map[string]domain.AIClassification{},
		metadata:  map[string][]domain.ParsedMetadata{},
		temporal:  map[string]domain.SenderTemporal{},
		threads:   map[string][]domain.Thread{},
		relations: map[string]domain.SenderRelationship{},
	}
}

func (f *fakeStore) MessagesBySenderDomain(ctx context.Context, d string) ([]domain.Message, error) {
	return f.messages[d], nil
}
func (f *fakeStore) ParsedContentByMessageIDs(ctx context.Context, ids []string) (map[string]domain.ParsedContent, error) {
	out := map[string]domain.ParsedContent{}
	for _, id := range ids {
		if c, ok := f.content[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
func (f *fakeStore) EntitiesForMessages(ctx context.Context, ids []string) ([]domain.ExtractedEntity, error) {
	var out []domain.ExtractedEntity
	for _, id := range ids {
		out = append(out, f.entities[id]...)
	}
	return out, nil
}
func (f *fakeStore) ClassificationsByMessageIDs(ctx context.Context, ids []string) (map[string]domain.AIClassification, error) {
	out := map[string]domain.AIClassification{}
	for _, id := range ids {
		if c, ok := f.classif[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
func (f *fakeStore) ParsedMetadataByDomain(ctx context.Context, d string) ([]domain.ParsedMetadata, error) {
	return f.metadata[d], nil
}
func (f *fakeStore) GetSenderTemporal(ctx context.Context, d string) (domain.SenderTemporal, error) {
	return f.temporal[d], nil
}
func (f *fakeStore) ThreadsForSenderDomain(ctx context.Context, d string) ([]domain.Thread, error) {
	return f.threads[d], nil
}
func (f *fakeStore) UpsertSenderProfile(ctx context.Context, p domain.SenderProfile) error {
	f.saved = p
	return nil
}
func (f *fakeStore) GetSenderRelationship(ctx context.Context, d string) (domain.SenderRelationship, error) {
	if r, ok := f.relations[d]; ok {
		return r, nil
	}
	return domain.SenderRelationship{SenderDomain: d, RelationshipType: domain.RelUnknown, Source: domain.RelSourceAutoDetected}, nil
}

func TestAssembleMajorityVoteAndContacts(t *testing.T) {
	store := newFakeStore()
	d := "acme.com"
	store.messages[d] = []domain.Message{
		{MessageID: "m1", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), From: domain.Address{Email: "sales@acme.com"}},
		{MessageID: "m2", Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), From: domain.Address{Email: "sales@acme.com"}},
		{MessageID: "m3", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), From: domain.Address{Email: "sales@acme.com"}},
	}
	store.classif["m1"] = domain.AIClassification{Industry: "saas", CompanySizeEstimate: domain.CompanySizeSmall, MarketingSophistication: 4}
	store.classif["m2"] = domain.AIClassification{Industry: "saas", CompanySizeEstimate: domain.CompanySizeSmall, MarketingSophistication: 6}
	store.classif["m3"] = domain.AIClassification{Industry: "fintech", CompanySizeEstimate: domain.CompanySizeMedium, MarketingSophistication: 8}
	store.content["m1"] = domain.ParsedContent{HasPersonalization: true, UTMCampaigns: []string{"spring"}}
	store.entities["m1"] = []domain.ExtractedEntity{
		{MessageID: "m1", Type: domain.EntityPerson, Value: "Jane Doe", Normalized: "jane@acme.com", Context: string(domain.PersonDecisionMaker)},
	}
	store.metadata[d] = []domain.ParsedMetadata{
		{MessageID: "m1", ESPIdentified: "Mailchimp", SPFResult: "pass", DMARCResult: "pass", DKIMDomain: "acme.com", ListUnsubscribeURL: "https://acme.com/unsub"},
	}
	store.threads[d] = []domain.Thread{
		{ThreadID: "t1", InitiatedByUser: false, UserParticipated: true},
		{ThreadID: "t2", InitiatedByUser: true, UserParticipated: false},
	}

	p, err := Assemble(context.Background(), store, d)
	require.NoError(t, err)
	require.Equal(t, "saas", p.Industry)
	require.Equal(t, domain.CompanySizeSmall, p.CompanySize)
	require.Equal(t, "Mailchimp", p.ESPUsed)
	require.Equal(t, "strong", p.AuthenticationQuality)
	require.Equal(t, "https://acme.com/unsub", p.UnsubscribeURL)
	require.Len(t, p.KnownContacts, 1)
	require.Equal(t, domain.PersonDecisionMaker, p.KnownContacts[0].Priority)
	require.InDelta(t, 0.5, p.ThreadInitiationRatio, 0.0001)
	require.InDelta(t, 0.5, p.UserReplyRate, 0.0001)
	require.Equal(t, d, store.saved.SenderDomain)
}

func TestAssembleNoMessagesErrors(t *testing.T) {
	store := newFakeStore()
	_, err := Assemble(context.Background(), store, "nobody.com")
	require.Error(t, err)
}

func TestContactPriorityUpgradesOnBetterRole(t *testing.T) {
	contacts := map[string]domain.Contact{}
	upsertContact(contacts, domain.ExtractedEntity{Value: "Sam", Normalized: "sam@acme.com", Context: string(domain.PersonVendorContact)}, "")
	upsertContact(contacts, domain.ExtractedEntity{Value: "Sam", Normalized: "sam@acme.com", Context: string(domain.PersonDecisionMaker)}, "CEO")
	require.Equal(t, domain.PersonDecisionMaker, contacts["sam@acme.com"].Priority)
	require.Equal(t, "CEO", contacts["sam@acme.com"].Role)
}

func TestDeterministicSophisticationScoreClampsAndSumsPoints(t *testing.T) {
	p := domain.SenderProfile{
		HasPersonalization:    true,
		UTMCampaignNames:      []string{"a", "b", "c"},
		AuthenticationQuality: "strong",
		UnsubscribeURL:        "https://x.com/unsub",
	}
	score := deterministicSophisticationScore(p, "HubSpot Marketing", 50)
	require.Equal(t, 10, score)
}

func TestThreadMetricsEmptyIsZero(t *testing.T) {
	ratio, reply := threadMetrics(nil)
	require.Equal(t, 0.0, ratio)
	require.Equal(t, 0.0, reply)
}
