package main

import (
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geomap-cli/internal/render"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Geocode the location table, then render the map",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyFlags(cmd, cfg)
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}
		if err := cfg.Validate("render"); err != nil {
			return err
		}

		log := zap.L().With(zap.String("run_id", uuid.NewString()))
		if _, err := geocodeTable(ctx, cfg, log); err != nil {
			return err
		}
		m, err := renderMap(ctx, cfg, render.FileSink{Path: cfg.Map.OutputPath})
		if err != nil {
			return err
		}

		log.Info("run: complete",
			zap.String("table", cfg.Dataset.OutputPath),
			zap.String("map", cfg.Map.OutputPath),
			zap.Int("markers", len(m.Markers)),
		)
		return nil
	},
}

func init() {
	addDatasetFlags(runCmd.Flags())
	addGeocodeFlags(runCmd.Flags())
	addRenderFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}
