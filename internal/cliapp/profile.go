package cliapp

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Rebuild sender profiles and relationship classifications",
	RunE:  runProfileCmd,
}

func runProfileCmd(cmd *cobra.Command, args []string) error {
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
	run, err := orch.RunStage(rootContext(), domain.StageProfile, domain.TriggeredByCLI)
	if err != nil {
		return fmt.Errorf("[cli] profile: %w", err)
	}
	log.Printf("[profile] updated %d sender profiles (run %d, status %s)", run.ItemsProcessed, run.ID, run.Status)
	return nil
}
