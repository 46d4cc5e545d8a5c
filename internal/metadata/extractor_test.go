package metadata

import (
	"testing"
	"time"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestExtractIdentifiesMailchimp(t *testing.T) {
	msg := domain.Message{
		MessageID: "m1",
		From:      domain.Address{Email: "news@mail.acmewidgets.com"},
		RawHeaders: map[string]string{
			"x-mailer":                "MailChimp Mailer - **CIDc1234**",
			"authentication-results":  "mx.google.com; spf=pass smtp.mailfrom=acmewidgets.com; dkim=pass header.d=acmewidgets.com; dmarc=pass",
			"received":                "from mail.acmewidgets.com (mail.acmewidgets.com [192.0.2.10])",
			"list-unsubscribe":        "<https://acmewidgets.us1.list-manage.com/unsubscribe>, <mailto:unsub@acmewidgets.com>",
			"precedence":              "bulk",
		},
	}

	pm := Extract(msg)
	require.Equal(t, "acmewidgets.com", pm.SenderDomain)
	require.Equal(t, "mail.acmewidgets.com", pm.SenderSubdomain)
	require.Equal(t, "Mailchimp", pm.ESPIdentified)
	require.Equal(t, domain.ESPConfidenceHigh, pm.ESPConfidence)
	require.Equal(t, "pass", pm.SPFResult)
	require.Equal(t, "pass", pm.DMARCResult)
	require.Equal(t, "acmewidgets.com", pm.DKIMDomain)
	require.Equal(t, "192.0.2.10", pm.SendingIP)
	require.Equal(t, "https://acmewidgets.us1.list-manage.com/unsubscribe", pm.ListUnsubscribeURL)
	require.Equal(t, "unsub@acmewidgets.com", pm.ListUnsubscribeEmail)
	require.True(t, pm.IsBulk)
}

func TestExtractPersonalEmailIsNotBulk(t *testing.T) {
	msg := domain.Message{
		MessageID:  "m2",
		From:       domain.Address{Email: "dana@smallconsulting.com"},
		RawHeaders: map[string]string{"x-mailer": "Apple Mail"},
	}
	pm := Extract(msg)
	require.False(t, pm.IsBulk)
	require.Empty(t, pm.ESPIdentified)
}

func TestRollupTemporalComputesModeAndFrequency(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	times := []time.Time{
		base,
		base.AddDate(0, 0, 7).Add(1 * time.Hour),
		base.AddDate(0, 0, 14),
	}
	rollup := RollupTemporal("acmewidgets.com", times)
	require.Equal(t, 3, rollup.TotalMessages)
	require.InDelta(t, 7.0, rollup.AvgFrequencyDays, 0.5)
	require.Equal(t, 9, rollup.MostCommonHour)
}

func TestRollupTemporalEmpty(t *testing.T) {
	rollup := RollupTemporal("nobody.com", nil)
	require.Equal(t, 0, rollup.TotalMessages)
}
