package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geomap-cli/internal/config"
	"github.com/sells-group/geomap-cli/internal/dataset"
	"github.com/sells-group/geomap-cli/internal/model"
	"github.com/sells-group/geomap-cli/internal/resolve"
	"github.com/sells-group/geomap-cli/pkg/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode every address in the location table",
	Long: `Loads the input table (writing the seed table first when the file is
missing), resolves each address one at a time and writes the geocoded table.

Examples:
  # Default files, public Nominatim at one request per second
  geomap geocode

  # Self-hosted Nominatim without pacing
  GEOMAP_GEOCODE_BASE_URL=http://localhost:8080 geomap geocode --min-delay 0`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyFlags(cmd, cfg)
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}

		log := zap.L().With(zap.String("run_id", uuid.NewString()))
		_, err := geocodeTable(ctx, cfg, log)
		return err
	},
}

func init() {
	addDatasetFlags(geocodeCmd.Flags())
	addGeocodeFlags(geocodeCmd.Flags())
	rootCmd.AddCommand(geocodeCmd)
}

// previewRows is how many saved rows are echoed after a run.
const previewRows = 5

// logPreview logs the first n records with their coordinates.
func logPreview(log *zap.Logger, records []model.LocationRecord, n int) {
	for i := 0; i < n && i < len(records); i++ {
		rec := records[i]
		fields := []zap.Field{
			zap.Int("row", i+1),
			zap.String("name", rec.Name),
			zap.String("address", rec.Address),
		}
		if rec.Coordinates != nil {
			fields = append(fields,
				zap.Float64("latitude", rec.Coordinates.Latitude),
				zap.Float64("longitude", rec.Coordinates.Longitude),
			)
		}
		log.Info("geocode: preview", fields...)
	}
}

// newGeocodeClient builds the configured provider client.
func newGeocodeClient(gc config.GeocodeConfig) (geocode.Client, error) {
	opts := []geocode.Option{
		geocode.WithUserAgent(gc.UserAgent),
		geocode.WithEmail(gc.Email),
		geocode.WithAPIKey(gc.APIKey),
	}
	if gc.BaseURL != "" {
		opts = append(opts, geocode.WithBaseURL(gc.BaseURL))
	}
	if len(gc.CountryCodes) > 0 {
		opts = append(opts, geocode.WithCountryCodes(gc.CountryCodes...))
	}
	client, err := geocode.New(gc.Provider, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: init client")
	}
	return client, nil
}

// geocodeTable materializes the input table, resolves it and saves the
// output table. An interrupted run still saves what it resolved.
func geocodeTable(ctx context.Context, c *config.Config, log *zap.Logger) (resolve.Summary, error) {
	seed, err := dataset.LoadSeed(c.Dataset.SeedPath)
	if err != nil {
		return resolve.Summary{}, err
	}

	records, created, err := dataset.Ensure(c.Dataset.InputPath, seed, dataset.LoadOptions{Charset: c.Dataset.Charset})
	if err != nil {
		return resolve.Summary{}, eris.Wrap(err, "geocode: load input")
	}
	log.Info("geocode: input ready",
		zap.String("path", c.Dataset.InputPath),
		zap.Int("records", len(records)),
		zap.Bool("created", created),
	)

	client, err := newGeocodeClient(c.Geocode)
	if err != nil {
		return resolve.Summary{}, err
	}

	r := resolve.New(client, resolve.NewLimiter(c.Geocode.MinDelay()), resolve.Config{
		RegionSuffix:   c.Geocode.RegionSuffix,
		FallbackSuffix: c.Geocode.FallbackSuffix,
		Timeout:        c.Geocode.Timeout(),
	}, resolve.WithLogger(log))

	summary := r.ResolveAll(ctx, records)

	if err := dataset.Save(c.Dataset.OutputPath, records); err != nil {
		log.Error("save failed", zap.String("path", c.Dataset.OutputPath), zap.Error(err))
		return summary, err
	}
	log.Info("geocode: output saved",
		zap.String("path", c.Dataset.OutputPath),
		zap.Int("resolved", summary.Resolved),
		zap.Int("via_fallback", summary.ViaFallback),
		zap.Int("unresolved", summary.Unresolved),
	)

	logPreview(log, records, previewRows)

	if err := ctx.Err(); err != nil {
		return summary, eris.Wrap(err, "geocode: interrupted")
	}
	return summary, nil
}
