package cliapp

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var (
	dbReset   bool
	dbMigrate bool
	dbStats   bool
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the sqlite store (reset, migrate, stats)",
	RunE:  runDBCmd,
}

func init() {
	dbCmd.Flags().BoolVar(&dbReset, "reset", false, "drop and recreate every gemsieve-owned table")
	dbCmd.Flags().BoolVar(&dbMigrate, "migrate", false, "apply the additive migration registry (default action)")
	dbCmd.Flags().BoolVar(&dbStats, "stats", false, "print a row count per table")
}

func runDBCmd(cmd *cobra.Command, args []string) error {
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
	case dbReset:
		if err := st.Reset(ctx); err != nil {
			return fmt.Errorf("[cli] db reset: %w", err)
		}
		fmt.Println("database reset")
	case dbStats:
		stats, err := st.TableStats(ctx)
		if err != nil {
			return fmt.Errorf("[cli] db stats: %w", err)
		}
		printTableStats(stats)
	default:
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("[cli] db migrate: %w", err)
		}
		fmt.Println("migrations applied")
	}
	return nil
}

func printTableStats(stats map[string]int) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-28s %d\n", name, stats[name])
	}
}
