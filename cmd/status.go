package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/homescout-au/suburbscore/internal/monitoring"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data quality metrics for the loaded reference data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.engine, env.store)
		snap, err := collector.Collect(ctx)
		if err != nil {
			return err
		}

		runs, err := env.store.ListIngestRuns(ctx, 10)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"metrics":     snap,
			"ingest_runs": runs,
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
