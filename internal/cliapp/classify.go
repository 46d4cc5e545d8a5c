package cliapp

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

var (
	classifyModel     string
	classifyBatchSize int
	classifyRetrain   bool
	classifyCrew      bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Run the AI classification stage over unclassified messages",
	RunE:  runClassifyCmd,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyModel, "model", "", "override ai.provider:ai.model for this run, e.g. ollama:llama3")
	classifyCmd.Flags().IntVar(&classifyBatchSize, "batch-size", 0, "override ai.batch_size for this run")
	classifyCmd.Flags().BoolVar(&classifyRetrain, "retrain", false, "append recent corrections as few-shot examples (§4.6 retrain mode)")
	classifyCmd.Flags().BoolVar(&classifyCrew, "crew", false, "accepted for CLI compatibility — classification always runs single-model")
}

func runClassifyCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if classifyModel != "" {
		provider, model, ok := strings.Cut(classifyModel, ":")
		if !ok {
			return fmt.Errorf("[cli] classify: --model wants provider:name, got %q", classifyModel)
		}
		cfg.AI.Provider = provider
		cfg.AI.Model = model
	}
	if classifyBatchSize > 0 {
		cfg.AI.BatchSize = classifyBatchSize
	}
	cfg.AI.RetrainMode = classifyRetrain

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, err := buildOrchestrator(cfg, st)
	if err != nil {
		return err
	}
	run, err := orch.RunStage(rootContext(), domain.StageClassify, domain.TriggeredByCLI)
	if err != nil {
		return fmt.Errorf("[cli] classify: %w", err)
	}
	log.Printf("[classify] classified %d messages (run %d, status %s)", run.ItemsProcessed, run.ID, run.Status)
	return nil
}
