package cliapp

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

var parseStage string

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Run one extraction stage (metadata, content, or entities)",
	RunE:  runParseCmd,
}

func init() {
	parseCmd.Flags().StringVar(&parseStage, "stage", "", "metadata|content|entities")
	parseCmd.MarkFlagRequired("stage")
}

func runParseCmd(cmd *cobra.Command, args []string) error {
	var stage domain.StageName
	switch parseStage {
	case "metadata":
		stage = domain.StageMetadata
	case "content":
		stage = domain.StageContent
	case "entities":
		stage = domain.StageEntities
	default:
		return fmt.Errorf("[cli] parse: unknown --stage %q, want metadata, content or entities", parseStage)
	}

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
	run, err := orch.RunStage(rootContext(), stage, domain.TriggeredByCLI)
	if err != nil {
		return fmt.Errorf("[cli] parse: %w", err)
	}
	log.Printf("[parse] %s processed %d items (run %d, status %s)", stage, run.ItemsProcessed, run.ID, run.Status)
	return nil
}
