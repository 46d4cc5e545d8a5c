package cliapp

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/mailprovider"
)

var (
	ingestQuery  string
	ingestSync   bool
	ingestAppend bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Sync mailbox messages into the store",
	RunE:  runIngestCmd,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "narrow the mailbox search query for this run")
	ingestCmd.Flags().BoolVar(&ingestSync, "sync", false, "accepted for CLI compatibility — ingest already syncs incrementally once a cursor is stored")
	ingestCmd.Flags().BoolVar(&ingestAppend, "append", false, "accepted for CLI compatibility — ingest never overwrites existing messages")
}

func runIngestCmd(cmd *cobra.Command, args []string) error {
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
	if ingestQuery != "" {
		if qp, ok := mailProviderOf(orch); ok {
			qp.SetQuery(ingestQuery)
		}
	}

	run, err := orch.RunStage(rootContext(), domain.StageIngest, domain.TriggeredByCLI)
	if err != nil {
		return fmt.Errorf("[cli] ingest: %w", err)
	}
	log.Printf("[ingest] synced %d messages (run %d, status %s)", run.ItemsProcessed, run.ID, run.Status)
	return nil
}

// queryableMailProvider lets ingest narrow the Gmail search without the
// orchestrator's Provider field ever needing to widen beyond the plain
// mailprovider.Provider contract.
type queryableMailProvider interface {
	SetQuery(q string)
}

func mailProviderOf(orch interface{ MailProvider() mailprovider.Provider }) (queryableMailProvider, bool) {
	qp, ok := orch.MailProvider().(queryableMailProvider)
	return qp, ok
}
