package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hivecore",
	Short: "Capability-based agent orchestration",
	Long: `HiveCore matches work to agents and drives it to completion.

It keeps a registry of agent profiles, ranks candidates against each
requirement by trust and capability fit, and schedules dependency-aware
execution rounds that retry failing requirements until they pass or the
retry budget runs out.

Core capabilities:
- Scores agents on performance, brand, recognition and fault history
- Ranks candidates per requirement with explainable fit breakdowns
- Composes small teams when one agent is not enough
- Batches requirements by dependency and runs batches concurrently
- Retries failed requirements across bounded inner rounds`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
