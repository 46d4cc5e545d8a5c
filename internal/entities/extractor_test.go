package entities

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/ner"
)

type fakeTagger struct {
	spans []ner.Span
	err   error
}

func (f fakeTagger) Tag(ctx context.Context, text string) ([]ner.Span, error) {
	return f.spans, f.err
}

func TestExtractClassifiesDecisionMaker(t *testing.T) {
	msg := domain.Message{
		MessageID: "m1",
		From:      domain.Address{Email: "dana@acme.com"},
		Subject:   "Intro",
	}
	pc := domain.ParsedContent{
		BodyClean: "Dana Price, CEO of Acme, would like to set up a call.",
	}
	tagger := fakeTagger{spans: []ner.Span{
		{Text: "Dana Price", Label: "PERSON", Start: 0, End: 10},
	}}
	cfg := config.EntitiesConfig{ExtractMonetary: true, ExtractDates: true, ExtractProcurement: true}

	result, err := Extract(context.Background(), msg, pc, tagger, cfg)
	require.NoError(t, err)

	var person *domain.ExtractedEntity
	for i := range result {
		if result[i].Type == domain.EntityPerson && result[i].Source == domain.SourceSpacy {
			person = &result[i]
		}
	}
	require.NotNil(t, person)
	require.Equal(t, string(domain.PersonDecisionMaker), person.Context)
}

func TestExtractCCAddressIsAutomatedWhenRoleLike(t *testing.T) {
	msg := domain.Message{
		MessageID: "m2",
		From:      domain.Address{Email: "someone@acme.com"},
		CC:        []domain.Address{{Email: "noreply@acme.com"}},
	}
	pc := domain.ParsedContent{BodyClean: "Just checking in, nothing urgent."}
	cfg := config.EntitiesConfig{}

	result, err := Extract(context.Background(), msg, pc, ner.NoopTagger{}, cfg)
	require.NoError(t, err)

	var header *domain.ExtractedEntity
	for i := range result {
		if result[i].Source == domain.SourceHeader {
			header = &result[i]
		}
	}
	require.NotNil(t, header)
	require.Equal(t, string(domain.PersonAutomated), header.Context)
}

func TestExtractMoneyAndRole(t *testing.T) {
	msg := domain.Message{MessageID: "m3", From: domain.Address{Email: "sales@vendor.com"}}
	pc := domain.ParsedContent{BodyClean: "Our Starter plan is $49/mo. Our VP of Sales can walk you through it."}
	cfg := config.EntitiesConfig{ExtractMonetary: true}

	result, err := Extract(context.Background(), msg, pc, ner.NoopTagger{}, cfg)
	require.NoError(t, err)

	var sawMoney, sawRole bool
	for _, e := range result {
		if e.Type == domain.EntityMoney {
			sawMoney = true
		}
		if e.Type == domain.EntityRole {
			sawRole = true
		}
	}
	require.True(t, sawMoney)
	require.True(t, sawRole)
}

func TestExtractProcurementSignalDisabledByDefault(t *testing.T) {
	msg := domain.Message{MessageID: "m4", From: domain.Address{Email: "buyer@client.com"}}
	pc := domain.ParsedContent{BodyClean: "We are requesting a quote for next quarter."}
	cfg := config.EntitiesConfig{ExtractProcurement: false}

	result, err := Extract(context.Background(), msg, pc, ner.NoopTagger{}, cfg)
	require.NoError(t, err)
	for _, e := range result {
		require.NotEqual(t, domain.EntityProcurementSignal, e.Type)
	}
}

func TestExtractProcurementSignalWhenEnabled(t *testing.T) {
	msg := domain.Message{MessageID: "m5", From: domain.Address{Email: "buyer@client.com"}}
	pc := domain.ParsedContent{BodyClean: "We are requesting a quote for next quarter."}
	cfg := config.EntitiesConfig{ExtractProcurement: true}

	result, err := Extract(context.Background(), msg, pc, ner.NoopTagger{}, cfg)
	require.NoError(t, err)

	var found bool
	for _, e := range result {
		if e.Type == domain.EntityProcurementSignal && e.Normalized == "active_buying" {
			found = true
		}
	}
	require.True(t, found)
}

func TestDateEntityBucketsFutureRenewal(t *testing.T) {
	restore := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = restore }()

	e := dateEntity("m6", "2099-01-01", "our contract is up for renewal on 2099-01-01", 30)
	require.Equal(t, "renewal:future", e.Normalized)
}

func TestDateEntityBucketsPastExpiration(t *testing.T) {
	restore := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = restore }()

	e := dateEntity("m7", "2020-01-01", "our license expired on 2020-01-01", 25)
	require.Equal(t, "expiration:past", e.Normalized)
}
