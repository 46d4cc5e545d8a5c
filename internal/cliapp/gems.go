package cliapp

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

var (
	gemsList    bool
	gemsTop     int
	gemsType    string
	gemsSegment string
	gemsExplain int64
)

var gemsCmd = &cobra.Command{
	Use:   "gems",
	Short: "List, filter, or explain detected gems",
	RunE:  runGemsCmd,
}

func init() {
	gemsCmd.Flags().BoolVar(&gemsList, "list", false, "list gems (default view)")
	gemsCmd.Flags().IntVar(&gemsTop, "top", 0, "limit to the top N gems by score")
	gemsCmd.Flags().StringVar(&gemsType, "type", "", "filter by gem type")
	gemsCmd.Flags().StringVar(&gemsSegment, "segment", "", "filter to senders assigned to this segment")
	gemsCmd.Flags().Int64Var(&gemsExplain, "explain", 0, "print the full explanation for one gem id")
}

func runGemsCmd(cmd *cobra.Command, args []string) error {
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

	if gemsExplain != 0 {
		g, err := st.GetGem(ctx, gemsExplain)
		if err != nil {
			return fmt.Errorf("[cli] gems --explain: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g.Explanation)
	}

	gems, err := st.ListGems(ctx, "", domain.GemType(gemsType), gemsTop)
	if err != nil {
		return fmt.Errorf("[cli] gems --list: %w", err)
	}
	if gemsSegment != "" {
		domains, err := st.DomainsInSegment(ctx, domain.Segment(gemsSegment))
		if err != nil {
			return fmt.Errorf("[cli] gems --segment: %w", err)
		}
		inSegment := make(map[string]bool, len(domains))
		for _, d := range domains {
			inSegment[d] = true
		}
		filtered := gems[:0]
		for _, g := range gems {
			if inSegment[g.SenderDomain] {
				filtered = append(filtered, g)
			}
		}
		gems = filtered
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Type", "Sender Domain", "Score", "Status", "Summary"})
	for _, g := range gems {
		table.Append([]string{
			fmt.Sprintf("%d", g.ID), string(g.GemType), g.SenderDomain,
			fmt.Sprintf("%.1f", g.Score), string(g.Status), g.Explanation.Summary,
		})
	}
	table.Render()
	return nil
}
