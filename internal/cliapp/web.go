package cliapp

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hoyack/gemsieve/internal/web"
)

var (
	webHost   string
	webPort   int
	webReload bool
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the admin HTTP surface",
	RunE:  runWebCmd,
}

func init() {
	webCmd.Flags().StringVar(&webHost, "host", "", "override server.host")
	webCmd.Flags().IntVar(&webPort, "port", 0, "override server.port")
	webCmd.Flags().BoolVar(&webReload, "reload", false, "accepted for CLI compatibility — gemsieve has no dev asset pipeline to reload")
}

func runWebCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if webHost != "" {
		cfg.Server.Host = webHost
	}
	if webPort != 0 {
		cfg.Server.Port = webPort
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

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := web.New(st, orch, cfg)
	log.Printf("[web] listening on %s", addr)
	return http.ListenAndServe(addr, srv.Router())
}
