package main

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tenderswarm/internal/config"
	"github.com/ShayCichocki/tenderswarm/internal/escrow"
	"github.com/ShayCichocki/tenderswarm/internal/gen"
	"github.com/ShayCichocki/tenderswarm/internal/orchestrator"
	"github.com/ShayCichocki/tenderswarm/internal/server"
	"github.com/ShayCichocki/tenderswarm/internal/state"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TenderSwarm HTTP API",
	Long: `Start the HTTP API.

POST /api/swarm streams a run as NDJSON frames. POST /api/start-swarm
launches a run in the background and returns its ID. GET /api/runs/{id}
returns a completed run's summary.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	client, err := gen.NewClient(gen.ClientConfig{
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("creating generation client: %w", err)
	}

	store, err := state.Open(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	logger, err := orchestrator.NewDebugLogger(cfg.Swarm.DebugLog)
	if err != nil {
		return fmt.Errorf("creating debug logger: %w", err)
	}
	defer logger.Close()

	srv := server.New(server.Config{
		Generator:  client,
		Images:     gen.PlaceholderImages{},
		Escrow:     escrow.NewSimulated(),
		Store:      store,
		Logger:     logger,
		BatchDelay: cfg.Swarm.BatchDelay,
		EvalDelay:  cfg.Swarm.EvalDelay,
	})

	color.New(color.FgGreen).Printf("TenderSwarm API listening on %s\n", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, srv.Handler())
}
