package cliapp

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

var (
	generateGem      int64
	generateStrategy string
	generateTop      int
	generateAll      bool
	generateCrew     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an engagement draft for one gem, or a batch by strategy",
	RunE:  runGenerateCmd,
}

func init() {
	generateCmd.Flags().Int64Var(&generateGem, "gem", 0, "generate a draft for this gem id only")
	generateCmd.Flags().StringVar(&generateStrategy, "strategy", "", "restrict a batch run to one strategy")
	generateCmd.Flags().IntVar(&generateTop, "top", 0, "generate for the top N eligible gems")
	generateCmd.Flags().BoolVar(&generateAll, "all", false, "generate for every eligible gem, capped by engage.max_drafts_per_run")
	generateCmd.Flags().BoolVar(&generateCrew, "crew", false, "accepted for CLI compatibility — drafting always runs single-model")
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
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

	if generateGem != 0 {
		orch, err := buildOrchestrator(cfg, st)
		if err != nil {
			return err
		}
		draft, err := orch.GenerateForGem(ctx, generateGem, domain.TriggeredByCLI)
		if err != nil {
			return fmt.Errorf("[cli] generate: %w", err)
		}
		fmt.Printf("draft #%d for gem %d:\nsubject: %s\n\n%s\n", draft.ID, generateGem, draft.SubjectLine, draft.BodyText)
		return nil
	}

	if generateStrategy == "" {
		return fmt.Errorf("[cli] generate: pass --gem ID, or --strategy S with --top N or --all")
	}
	if !generateAll && generateTop <= 0 {
		return fmt.Errorf("[cli] generate: --strategy requires --top N or --all")
	}

	orch, err := buildOrchestrator(cfg, st)
	if err != nil {
		return err
	}
	drafts, err := orch.GenerateBatch(ctx, domain.Strategy(generateStrategy), generateTop, generateAll, domain.TriggeredByCLI)
	if err != nil {
		return fmt.Errorf("[cli] generate: %w", err)
	}
	log.Printf("[generate] wrote %d drafts for strategy %s", len(drafts), generateStrategy)
	return nil
}
