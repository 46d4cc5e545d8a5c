package cliapp

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

var (
	runQuery string
	runCrew  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every analytic stage in order (ingest through segment)",
	RunE:  runRunCmd,
}

func init() {
	runCmd.Flags().StringVar(&runQuery, "query", "", "narrow the ingest stage's mailbox search query")
	runCmd.Flags().BoolVar(&runCrew, "crew", false, "accepted for CLI compatibility — every stage always runs single-model")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, err := buildOrchestrator(cfg, st)
	if err != nil {
		return err
	}
	if runQuery != "" {
		if qp, ok := mailProviderOf(orch); ok {
			qp.SetQuery(runQuery)
		}
	}

	runs, err := orch.RunAll(rootContext(), domain.TriggeredByCLI)
	if err != nil {
		return fmt.Errorf("[cli] run: %w", err)
	}
	for _, run := range runs {
		log.Printf("[run] %-10s processed %d items, status %s", run.Stage, run.ItemsProcessed, run.Status)
	}
	return nil
}
