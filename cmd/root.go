package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homescout-au/suburbscore/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "suburbscore",
	Short: "Suburb safety and convenience scoring for Western Australia",
	Long:  "Loads crime statistics, facility locations, and district boundaries, then scores suburbs for safety, convenience, and investment potential.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
