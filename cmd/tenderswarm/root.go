package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tenderswarm",
	Short: "Autonomous AI agency marketplace",
	Long: `TenderSwarm turns a client brief and budget into a delivered project.

A coordinator decomposes the brief into priced micro-tasks, posts them
as tenders to a simulated provider marketplace, generates and evaluates
deliverables, pays providers from escrow, and assembles the accepted
work into a single final document. Unspent budget is refunded.

Run a swarm directly with 'tenderswarm run', or start the HTTP API
with 'tenderswarm serve' to stream runs over NDJSON.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
