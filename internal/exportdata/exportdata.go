// Package exportdata renders gems, sender profiles and segment membership
// to CSV or Excel for the `export` CLI verb (§6.1 "export
// (--gems|--all|--segment S)"). The admin web surface has no export route.
package exportdata

import (
	"context"
	"fmt"

	"github.com/hoyack/gemsieve/internal/domain"
)

// Store is the read-only slice of *store.Store this package needs.
type Store interface {
	ListGems(ctx context.Context, status domain.GemStatus, gemType domain.GemType, limit int) ([]domain.Gem, error)
	AllSenderProfiles(ctx context.Context) ([]domain.SenderProfile, error)
	SegmentsForDomain(ctx context.Context, senderDomain string) ([]domain.SenderSegment, error)
	DomainsInSegment(ctx context.Context, segment domain.Segment) ([]string, error)
	GetSenderProfile(ctx context.Context, senderDomain string) (domain.SenderProfile, error)
}

// Format is the output encoding requested by `--format`.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// Scope selects which rows the export contains, matching the three `export`
// flag forms (§6.1).
type Scope struct {
	All     bool
	Gems    bool
	Segment domain.Segment
}

// Row is one flattened export record. All three scopes share the same shape
// so CSV and Excel only need one writer each; fields not populated by a
// given scope are left zero.
type Row struct {
	SenderDomain   string
	CompanyName    string
	Industry       string
	CompanySize    string
	GemType        string
	GemScore       float64
	GemStatus      string
	GemSummary     string
	Segment        string
	SubSegment     string
	SegmentScore   float64
}

// BuildRows assembles the rows for a scope. --gems lists every gem,
// whatever its status, ranked by score; --segment lists every sender domain assigned to that
// segment; --all joins every sender profile with its open gems.
func BuildRows(ctx context.Context, st Store, scope Scope) ([]Row, error) {
	switch {
	case scope.Gems:
		return gemRows(ctx, st)
	case scope.Segment != "":
		return segmentRows(ctx, st, scope.Segment)
	case scope.All:
		return allRows(ctx, st)
	default:
		return nil, fmt.Errorf("exportdata: no scope selected")
	}
}

func gemRows(ctx context.Context, st Store) ([]Row, error) {
	gems, err := st.ListGems(ctx, "", "", 0)
	if err != nil {
		return nil, fmt.Errorf("exportdata: list gems: %w", err)
	}
	out := make([]Row, 0, len(gems))
	for _, g := range gems {
		out = append(out, rowFromGem(g))
	}
	return out, nil
}

func segmentRows(ctx context.Context, st Store, segment domain.Segment) ([]Row, error) {
	domains, err := st.DomainsInSegment(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("exportdata: domains in segment %s: %w", segment, err)
	}
	out := make([]Row, 0, len(domains))
	for _, d := range domains {
		p, err := st.GetSenderProfile(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("exportdata: load profile %s: %w", d, err)
		}
		segs, err := st.SegmentsForDomain(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("exportdata: segments for %s: %w", d, err)
		}
		row := rowFromProfile(p)
		for _, s := range segs {
			if s.Segment == segment {
				row.Segment = string(s.Segment)
				row.SubSegment = s.SubSegment
				row.SegmentScore = s.Confidence
				break
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func allRows(ctx context.Context, st Store) ([]Row, error) {
	profiles, err := st.AllSenderProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("exportdata: list profiles: %w", err)
	}
	gems, err := st.ListGems(ctx, domain.GemStatusNew, "", 0)
	if err != nil {
		return nil, fmt.Errorf("exportdata: list gems: %w", err)
	}
	gemsByDomain := make(map[string][]domain.Gem, len(gems))
	for _, g := range gems {
		gemsByDomain[g.SenderDomain] = append(gemsByDomain[g.SenderDomain], g)
	}

	var out []Row
	for _, p := range profiles {
		open := gemsByDomain[p.SenderDomain]
		if len(open) == 0 {
			out = append(out, rowFromProfile(p))
			continue
		}
		for _, g := range open {
			row := rowFromProfile(p)
			row.GemType = string(g.GemType)
			row.GemScore = g.Score
			row.GemStatus = string(g.Status)
			row.GemSummary = g.Explanation.Summary
			out = append(out, row)
		}
	}
	return out, nil
}

func rowFromGem(g domain.Gem) Row {
	return Row{
		SenderDomain: g.SenderDomain,
		GemType:      string(g.GemType),
		GemScore:     g.Score,
		GemStatus:    string(g.Status),
		GemSummary:   g.Explanation.Summary,
	}
}

func rowFromProfile(p domain.SenderProfile) Row {
	return Row{
		SenderDomain: p.SenderDomain,
		CompanyName:  p.CompanyName,
		Industry:     p.Industry,
		CompanySize:  string(p.CompanySize),
	}
}

// header is the shared column order for both writers.
var header = []string{
	"sender_domain", "company_name", "industry", "company_size",
	"gem_type", "gem_score", "gem_status", "gem_summary",
	"segment", "sub_segment", "segment_score",
}

func (r Row) values() []string {
	return []string{
		r.SenderDomain, r.CompanyName, r.Industry, r.CompanySize,
		r.GemType, fmt.Sprintf("%.2f", r.GemScore), r.GemStatus, r.GemSummary,
		r.Segment, r.SubSegment, fmt.Sprintf("%.2f", r.SegmentScore),
	}
}
