package exportdata

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoyack/gemsieve/internal/domain"
)

type fakeStore struct {
	gems           []domain.Gem
	profiles       []domain.SenderProfile
	segments       map[string][]domain.SenderSegment
	domainsInSeg   map[domain.Segment][]string
	profilesByDom  map[string]domain.SenderProfile
}

func (f *fakeStore) ListGems(ctx context.Context, status domain.GemStatus, gemType domain.GemType, limit int) ([]domain.Gem, error) {
	var out []domain.Gem
	for _, g := range f.gems {
		if status != "" && g.Status != status {
			continue
		}
		if gemType != "" && g.GemType != gemType {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeStore) AllSenderProfiles(ctx context.Context) ([]domain.SenderProfile, error) {
	return f.profiles, nil
}

func (f *fakeStore) SegmentsForDomain(ctx context.Context, senderDomain string) ([]domain.SenderSegment, error) {
	return f.segments[senderDomain], nil
}

func (f *fakeStore) DomainsInSegment(ctx context.Context, segment domain.Segment) ([]string, error) {
	return f.domainsInSeg[segment], nil
}

func (f *fakeStore) GetSenderProfile(ctx context.Context, senderDomain string) (domain.SenderProfile, error) {
	return f.profilesByDom[senderDomain], nil
}

func newFixture() *fakeStore {
	return &fakeStore{
		gems: []domain.Gem{
			{
				ID: 1, GemType: domain.GemDormantWarmThread, SenderDomain: "acme.com",
				Score: 72, Status: domain.GemStatusNew,
				Explanation: domain.GemExplanation{Summary: "dormant thread with pricing ask"},
			},
			{
				ID: 2, GemType: domain.GemIndustryIntel, SenderDomain: "other.com",
				Score: 40, Status: domain.GemStatusDismissed,
				Explanation: domain.GemExplanation{Summary: "industry signal"},
			},
		},
		profiles: []domain.SenderProfile{
			{SenderDomain: "acme.com", CompanyName: "Acme", Industry: "Manufacturing"},
			{SenderDomain: "other.com", CompanyName: "Other Co", Industry: "Retail"},
		},
		segments: map[string][]domain.SenderSegment{
			"acme.com": {{SenderDomain: "acme.com", Segment: domain.SegmentProspectMap, SubSegment: "warm", Confidence: 0.8}},
		},
		domainsInSeg: map[domain.Segment][]string{
			domain.SegmentProspectMap: {"acme.com"},
		},
		profilesByDom: map[string]domain.SenderProfile{
			"acme.com":  {SenderDomain: "acme.com", CompanyName: "Acme", Industry: "Manufacturing"},
			"other.com": {SenderDomain: "other.com", CompanyName: "Other Co", Industry: "Retail"},
		},
	}
}

func TestBuildRows_Gems(t *testing.T) {
	rows, err := BuildRows(context.Background(), newFixture(), Scope{Gems: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "acme.com", rows[0].SenderDomain)
	require.Equal(t, string(domain.GemDormantWarmThread), rows[0].GemType)
}

func TestBuildRows_Segment(t *testing.T) {
	rows, err := BuildRows(context.Background(), newFixture(), Scope{Segment: domain.SegmentProspectMap})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "acme.com", rows[0].SenderDomain)
	require.Equal(t, "warm", rows[0].SubSegment)
	require.Equal(t, 0.8, rows[0].SegmentScore)
}

func TestBuildRows_All(t *testing.T) {
	rows, err := BuildRows(context.Background(), newFixture(), Scope{All: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byDomain := map[string]Row{}
	for _, r := range rows {
		byDomain[r.SenderDomain] = r
	}
	require.Equal(t, string(domain.GemDormantWarmThread), byDomain["acme.com"].GemType)
	require.Empty(t, byDomain["other.com"].GemType) // other.com's only gem is dismissed, not "new"
}

func TestBuildRows_NoScopeErrors(t *testing.T) {
	_, err := BuildRows(context.Background(), newFixture(), Scope{})
	require.Error(t, err)
}

func TestWriteCSV_IncludesHeaderAndRows(t *testing.T) {
	rows, err := BuildRows(context.Background(), newFixture(), Scope{Gems: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "sender_domain,"))
	require.Contains(t, out, "acme.com")
	require.Contains(t, out, "dormant_warm_thread")
}

func TestWriteExcel_ProducesNonEmptyWorkbook(t *testing.T) {
	rows, err := BuildRows(context.Background(), newFixture(), Scope{Gems: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, rows))
	require.NotZero(t, buf.Len())
}

func TestExport_UnknownFormatErrors(t *testing.T) {
	var buf bytes.Buffer
	err := Export(context.Background(), newFixture(), Scope{Gems: true}, Format("yaml"), &buf)
	require.Error(t, err)
}

func TestExport_DefaultFormatIsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), newFixture(), Scope{Gems: true}, "", &buf))
	require.True(t, strings.HasPrefix(buf.String(), "sender_domain,"))
}
