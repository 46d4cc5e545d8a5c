package cliapp

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/exportdata"
)

var (
	exportGems    bool
	exportAll     bool
	exportSegment string
	exportFormat  string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export gems, profiles, or segment membership to CSV or Excel",
	RunE:  runExportCmd,
}

func init() {
	exportCmd.Flags().BoolVar(&exportGems, "gems", false, "export every gem, whatever its status")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every sender profile joined with its open gems")
	exportCmd.Flags().StringVar(&exportSegment, "segment", "", "export sender domains assigned to this segment")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv|excel")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file path (default: stdout)")
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	scope := exportdata.Scope{
		All:     exportAll,
		Gems:    exportGems,
		Segment: domain.Segment(exportSegment),
	}
	if !scope.All && !scope.Gems && scope.Segment == "" {
		return fmt.Errorf("[cli] export: pass one of --gems, --all, or --segment S")
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

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("[cli] export: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := exportdata.Export(rootContext(), st, scope, exportdata.Format(exportFormat), out); err != nil {
		return fmt.Errorf("[cli] export: %w", err)
	}
	return nil
}
