package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geomap-cli/internal/dataset"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the seed location table if the input file is missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyFlags(cmd, cfg)
		if err := cfg.Validate("seed"); err != nil {
			return err
		}

		seed, err := dataset.LoadSeed(cfg.Dataset.SeedPath)
		if err != nil {
			return err
		}
		records, created, err := dataset.Ensure(cfg.Dataset.InputPath, seed, dataset.LoadOptions{Charset: cfg.Dataset.Charset})
		if err != nil {
			return err
		}

		zap.L().Info("seed: input table ready",
			zap.String("path", cfg.Dataset.InputPath),
			zap.Int("records", len(records)),
			zap.Bool("created", created),
		)
		return nil
	},
}

func init() {
	addDatasetFlags(seedCmd.Flags())
	rootCmd.AddCommand(seedCmd)
}
