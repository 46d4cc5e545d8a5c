package cliapp

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/profile"
	"github.com/hoyack/gemsieve/internal/store"
)

var (
	relSender   string
	relType     string
	relNote     string
	relSuppress bool
)

var relationshipCmd = &cobra.Command{
	Use:   "relationship",
	Short: "Pin a sender's relationship type manually",
	RunE:  runRelationshipCmd,
}

func init() {
	relationshipCmd.Flags().StringVar(&relSender, "sender", "", "sender domain")
	relationshipCmd.Flags().StringVar(&relType, "type", "", "relationship type, e.g. my_vendor, warm_contact")
	relationshipCmd.Flags().StringVar(&relNote, "note", "", "free-text note")
	relationshipCmd.Flags().BoolVar(&relSuppress, "suppress", false, "suppress gem detection for this sender")
	relationshipCmd.MarkFlagRequired("sender")
	relationshipCmd.MarkFlagRequired("type")
}

func runRelationshipCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	r := domain.SenderRelationship{
		SenderDomain:     relSender,
		RelationshipType: domain.RelationshipType(relType),
		Note:             relNote,
		SuppressGems:     relSuppress,
		Source:           domain.RelSourceManual,
	}
	if err := st.UpsertSenderRelationship(rootContext(), r); err != nil {
		return fmt.Errorf("[cli] relationship: %w", err)
	}
	fmt.Printf("pinned %s as %s (manual)\n", relSender, relType)
	return nil
}

var (
	relationshipsListFlag   bool
	relationshipsTypeFilter string
	relationshipsAutoDetect bool
	relationshipsApply      bool
	relationshipsImportFile string
)

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "List, auto-detect, or bulk-import sender relationships",
	RunE:  runRelationshipsCmd,
}

func init() {
	relationshipsCmd.Flags().BoolVar(&relationshipsListFlag, "list", false, "list every persisted relationship (default view)")
	relationshipsCmd.Flags().StringVar(&relationshipsTypeFilter, "type", "", "restrict --list to one relationship type")
	relationshipsCmd.Flags().BoolVar(&relationshipsAutoDetect, "auto-detect", false, "re-run relationship classification for every profiled sender")
	relationshipsCmd.Flags().BoolVar(&relationshipsApply, "apply", false, "persist --auto-detect's results instead of just printing them")
	relationshipsCmd.Flags().StringVar(&relationshipsImportFile, "import", "", "bulk-import relationships from a CSV file (domain,type,note,suppress)")
}

func runRelationshipsCmd(cmd *cobra.Command, args []string) error {
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
	case relationshipsImportFile != "":
		return importRelationships(ctx, st, relationshipsImportFile)

	case relationshipsAutoDetect:
		known, err := loadKnownEntities(cfg)
		if err != nil {
			return err
		}
		profiles, err := st.AllSenderProfiles(ctx)
		if err != nil {
			return fmt.Errorf("[cli] relationships --auto-detect: %w", err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Sender Domain", "Detected Type", "Applied"})
		for _, p := range profiles {
			r, err := profile.ClassifyRelationship(ctx, st, known, p)
			if err != nil {
				return fmt.Errorf("[cli] relationships --auto-detect: classify %s: %w", p.SenderDomain, err)
			}
			applied := "no"
			if relationshipsApply {
				if err := st.UpsertSenderRelationship(ctx, r); err != nil {
					return fmt.Errorf("[cli] relationships --auto-detect: persist %s: %w", p.SenderDomain, err)
				}
				applied = "yes"
			}
			table.Append([]string{p.SenderDomain, string(r.RelationshipType), applied})
		}
		table.Render()
		return nil

	default:
		rels, err := st.AllSenderRelationships(ctx)
		if err != nil {
			return fmt.Errorf("[cli] relationships --list: %w", err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Sender Domain", "Type", "Source", "Suppress", "Note"})
		for _, r := range rels {
			if relationshipsTypeFilter != "" && string(r.RelationshipType) != relationshipsTypeFilter {
				continue
			}
			table.Append([]string{
				r.SenderDomain, string(r.RelationshipType), string(r.Source),
				strconv.FormatBool(r.SuppressGems), r.Note,
			})
		}
		table.Render()
		return nil
	}
}

// importRelationships reads domain,type,note,suppress rows from a headerless
// CSV file — one relationship per line, the simplest bulk-load format a
// spreadsheet export can produce (§6.1 "relationships --import FILE").
func importRelationships(ctx context.Context, st *store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("[cli] relationships --import: %w", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return fmt.Errorf("[cli] relationships --import: malformed line %q, want domain,type[,note[,suppress]]", line)
		}
		r := domain.SenderRelationship{
			SenderDomain:     strings.TrimSpace(fields[0]),
			RelationshipType: domain.RelationshipType(strings.TrimSpace(fields[1])),
			Source:           domain.RelSourceManual,
		}
		if len(fields) > 2 {
			r.Note = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			r.SuppressGems, _ = strconv.ParseBool(strings.TrimSpace(fields[3]))
		}
		if err := st.UpsertSenderRelationship(ctx, r); err != nil {
			return fmt.Errorf("[cli] relationships --import: %s: %w", r.SenderDomain, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("[cli] relationships --import: %w", err)
	}
	fmt.Printf("imported %d relationships from %s\n", count, path)
	return nil
}
