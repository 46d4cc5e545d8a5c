package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/llm"
)

type fakeStore struct {
	messages     map[string]domain.Message
	content      map[string]domain.ParsedContent
	metadata     map[string]domain.ParsedMetadata
	entities     map[string][]domain.ExtractedEntity
	senderOvers  map[string][]domain.ClassificationOverride
	messageOvers map[string][]domain.ClassificationOverride
	recent       []domain.ClassificationOverride
	saved        domain.AIClassification
}

func (f *fakeStore) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	return f.messages[id], nil
}
func (f *fakeStore) GetParsedContent(ctx context.Context, id string) (domain.ParsedContent, error) {
	return f.content[id], nil
}
func (f *fakeStore) GetParsedMetadata(ctx context.Context, id string) (domain.ParsedMetadata, error) {
	return f.metadata[id], nil
}
func (f *fakeStore) EntitiesForMessage(ctx context.Context, id string) ([]domain.ExtractedEntity, error) {
	return f.entities[id], nil
}
func (f *fakeStore) OverridesForSenderDomain(ctx context.Context, d string) ([]domain.ClassificationOverride, error) {
	return f.senderOvers[d], nil
}
func (f *fakeStore) OverridesForMessage(ctx context.Context, id string) ([]domain.ClassificationOverride, error) {
	return f.messageOvers[id], nil
}
func (f *fakeStore) RecentOverrides(ctx context.Context, limit int) ([]domain.ClassificationOverride, error) {
	return f.recent, nil
}
func (f *fakeStore) UpsertAIClassification(ctx context.Context, c domain.AIClassification) error {
	f.saved = c
	return nil
}

type fakeCompleter struct {
	resp   llm.Response
	err    error
	called bool
}

func (f *fakeCompleter) CompleteFor(ctx context.Context, req llm.Request, senderDomain string) (llm.Response, error) {
	f.called = true
	return f.resp, f.err
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages:     map[string]domain.Message{},
		content:      map[string]domain.ParsedContent{},
		metadata:     map[string]domain.ParsedMetadata{},
		entities:     map[string][]domain.ExtractedEntity{},
		senderOvers:  map[string][]domain.ClassificationOverride{},
		messageOvers: map[string][]domain.ClassificationOverride{},
	}
}

func TestClassifyMessageCallsAIWhenNoOverrides(t *testing.T) {
	store := newFakeStore()
	store.messages["m1"] = domain.Message{MessageID: "m1", From: domain.Address{Email: "sales@acme.com"}, Subject: "Offer"}
	store.metadata["m1"] = domain.ParsedMetadata{MessageID: "m1", SenderDomain: "acme.com", ESPIdentified: "Mailchimp"}
	store.content["m1"] = domain.ParsedContent{MessageID: "m1", BodyClean: "Check out our new product."}

	completer := &fakeCompleter{resp: llm.Response{
		ModelUsed: "llama3",
		Text: `{"industry":"SaaS","company_size_estimate":"medium","marketing_sophistication":6,
			"sender_intent":"promotional","product_type":"widget","product_description":"a widget",
			"pain_points":["time"],"target_audience":"SMBs","partner_program_detected":false,
			"renewal_signal_detected":false,"ai_confidence":0.8}`,
	}}

	c := New(store, completer, config.AIConfig{Model: "llama3", MaxBodyChars: 2000})
	err := c.ClassifyMessage(context.Background(), "m1")
	require.NoError(t, err)
	require.True(t, completer.called)
	require.Equal(t, "SaaS", store.saved.Industry)
	require.Equal(t, domain.CompanySizeMedium, store.saved.CompanySizeEstimate)
	require.False(t, store.saved.HasOverride)
}

func TestClassifyMessageSkipsAIWhenFullyOverridden(t *testing.T) {
	store := newFakeStore()
	store.messages["m2"] = domain.Message{MessageID: "m2", From: domain.Address{Email: "sales@acme.com"}}
	store.metadata["m2"] = domain.ParsedMetadata{MessageID: "m2", SenderDomain: "acme.com"}
	store.content["m2"] = domain.ParsedContent{MessageID: "m2"}
	store.senderOvers["acme.com"] = []domain.ClassificationOverride{
		{SenderDomain: "acme.com", FieldName: "industry", CorrectedValue: "Retail"},
		{SenderDomain: "acme.com", FieldName: "company_size_estimate", CorrectedValue: "enterprise"},
		{SenderDomain: "acme.com", FieldName: "marketing_sophistication", CorrectedValue: "9"},
		{SenderDomain: "acme.com", FieldName: "sender_intent", CorrectedValue: "cold_outreach"},
		{SenderDomain: "acme.com", FieldName: "product_type", CorrectedValue: "hardware"},
		{SenderDomain: "acme.com", FieldName: "product_description", CorrectedValue: "a thing"},
		{SenderDomain: "acme.com", FieldName: "target_audience", CorrectedValue: "enterprises"},
		{SenderDomain: "acme.com", FieldName: "partner_program_detected", CorrectedValue: "true"},
		{SenderDomain: "acme.com", FieldName: "renewal_signal_detected", CorrectedValue: "false"},
	}

	completer := &fakeCompleter{}
	c := New(store, completer, config.AIConfig{})
	err := c.ClassifyMessage(context.Background(), "m2")
	require.NoError(t, err)
	require.False(t, completer.called)
	require.True(t, store.saved.HasOverride)
	require.Equal(t, "Retail", store.saved.Industry)
	require.Equal(t, domain.CompanySizeEnterprise, store.saved.CompanySizeEstimate)
	require.True(t, store.saved.PartnerProgramDetected)
}

func TestClassifyMessageMessageScopeOverridesWinOverSenderScope(t *testing.T) {
	store := newFakeStore()
	store.messages["m3"] = domain.Message{MessageID: "m3", From: domain.Address{Email: "sales@acme.com"}}
	store.metadata["m3"] = domain.ParsedMetadata{MessageID: "m3", SenderDomain: "acme.com"}
	store.content["m3"] = domain.ParsedContent{MessageID: "m3"}
	store.senderOvers["acme.com"] = []domain.ClassificationOverride{
		{SenderDomain: "acme.com", FieldName: "industry", CorrectedValue: "Retail"},
	}
	store.messageOvers["m3"] = []domain.ClassificationOverride{
		{MessageID: "m3", SenderDomain: "acme.com", FieldName: "industry", CorrectedValue: "Finance"},
	}
	completer := &fakeCompleter{resp: llm.Response{Text: `{"industry":"whatever","company_size_estimate":"small",
		"marketing_sophistication":1,"sender_intent":"newsletter","product_type":"x","product_description":"y",
		"target_audience":"z","partner_program_detected":false,"renewal_signal_detected":false,"ai_confidence":0.5}`}}

	c := New(store, completer, config.AIConfig{})
	err := c.ClassifyMessage(context.Background(), "m3")
	require.NoError(t, err)
	require.Equal(t, "Finance", store.saved.Industry)
}

func TestClassifyMessageInvalidJSONReturnsError(t *testing.T) {
	store := newFakeStore()
	store.messages["m4"] = domain.Message{MessageID: "m4", From: domain.Address{Email: "x@acme.com"}}
	store.metadata["m4"] = domain.ParsedMetadata{MessageID: "m4", SenderDomain: "acme.com"}
	store.content["m4"] = domain.ParsedContent{MessageID: "m4"}
	completer := &fakeCompleter{resp: llm.Response{Text: "not json"}}

	c := New(store, completer, config.AIConfig{})
	err := c.ClassifyMessage(context.Background(), "m4")
	require.Error(t, err)
}
