package cliapp

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

var (
	statsByESP      bool
	statsByIndustry bool
	statsBySegment  bool
	statsGemSummary bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize sender profiles, segments, and gems",
	RunE:  runStatsCmd,
}

func init() {
	statsCmd.Flags().BoolVar(&statsByESP, "by-esp", false, "count senders by detected ESP")
	statsCmd.Flags().BoolVar(&statsByIndustry, "by-industry", false, "count senders by industry")
	statsCmd.Flags().BoolVar(&statsBySegment, "by-segment", false, "count senders per economic segment")
	statsCmd.Flags().BoolVar(&statsGemSummary, "gem-summary", false, "count gems by type (default view)")
}

var allSegments = []domain.Segment{
	domain.SegmentSpendMap, domain.SegmentPartnerMap, domain.SegmentProspectMap,
	domain.SegmentDormantThreads, domain.SegmentDistributionMap, domain.SegmentProcurementMap,
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := rootContext()

	switch {
	case statsByESP, statsByIndustry:
		profiles, err := st.AllSenderProfiles(ctx)
		if err != nil {
			return fmt.Errorf("[cli] stats: %w", err)
		}
		counts := map[string]int{}
		for _, p := range profiles {
			key := p.ESPUsed
			if statsByIndustry {
				key = p.Industry
			}
			if key == "" {
				key = "unknown"
			}
			counts[key]++
		}
		printCounts(counts)

	case statsBySegment:
		counts := map[string]int{}
		for _, seg := range allSegments {
			domains, err := st.DomainsInSegment(ctx, seg)
			if err != nil {
				return fmt.Errorf("[cli] stats --by-segment: %w", err)
			}
			counts[string(seg)] = len(domains)
		}
		printCounts(counts)

	default:
		gems, err := st.ListGems(ctx, "", "", 0)
		if err != nil {
			return fmt.Errorf("[cli] stats: %w", err)
		}
		counts := map[string]int{}
		for _, g := range gems {
			counts[string(g.GemType)]++
		}
		printCounts(counts)
	}
	return nil
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-28s %d\n", k, counts[k])
	}
}
