package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geomap-cli/internal/config"
	"github.com/sells-group/geomap-cli/internal/dataset"
	"github.com/sells-group/geomap-cli/internal/model"
	"github.com/sells-group/geomap-cli/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the geocoded table as an HTML map",
	Long: `Reads the geocoded table and writes a standalone Leaflet map with one
color-coded marker per resolved location, a heat layer and a legend.

Examples:
  geomap render
  geomap render --cluster --style circle --tiles cartodb-positron --map out/map.html`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyFlags(cmd, cfg)
		if err := cfg.Validate("render"); err != nil {
			return err
		}
		_, err := renderMap(ctx, cfg, render.FileSink{Path: cfg.Map.OutputPath})
		return err
	},
}

func init() {
	renderCmd.Flags().StringVar(&flagOutput, "output", "", "geocoded CSV to read")
	addRenderFlags(renderCmd.Flags())
	rootCmd.AddCommand(renderCmd)
}

// mapOptions converts map settings into render options.
func mapOptions(mc config.MapConfig) render.Options {
	return render.Options{
		CenterLat:    mc.CenterLat,
		CenterLon:    mc.CenterLon,
		Zoom:         mc.Zoom,
		Tiles:        mc.Tiles,
		MarkerStyle:  mc.MarkerStyle,
		Cluster:      mc.Cluster,
		Heatmap:      mc.Heatmap,
		HeatRadius:   mc.HeatRadius,
		HeatBlur:     mc.HeatBlur,
		LayerControl: mc.LayerControl,
		Title:        mc.Title,
		Legend:       mc.Legend,
		Palette:      render.DefaultPalette().WithOverrides(mc.Palette),
	}
}

// renderMap loads the geocoded table and writes the composed map to sink.
func renderMap(ctx context.Context, c *config.Config, sink render.Sink) (*render.Map, error) {
	records, err := dataset.Load(c.Dataset.OutputPath, dataset.LoadOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "render: load geocoded table")
	}
	zap.L().Info("render: geocoded table loaded",
		zap.String("path", c.Dataset.OutputPath),
		zap.Int("records", len(records)),
		zap.Int("resolved", model.CountResolved(records)),
	)

	m, err := render.Build(records, mapOptions(c.Map))
	if err != nil {
		return nil, err
	}
	if m.Dropped > 0 {
		zap.L().Info("render: skipped rows without coordinates", zap.Int("dropped", m.Dropped))
	}

	if err := sink.Write(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
