package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/geomap-cli/internal/config"
)

// Flag values shared by the subcommands. Each is applied on top of the
// loaded config only when set on the command line.
var (
	flagInput    string
	flagOutput   string
	flagSeed     string
	flagMap      string
	flagProvider string
	flagMinDelay time.Duration
	flagTimeout  time.Duration
	flagCluster  bool
	flagStyle    string
	flagTiles    string
)

func addDatasetFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagInput, "input", "", "input CSV (created from the seed fixture when missing)")
	fs.StringVar(&flagSeed, "seed", "", "seed fixture YAML (default: embedded Hubli/Dharwad table)")
}

func addGeocodeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagOutput, "output", "", "geocoded CSV to write")
	fs.StringVar(&flagProvider, "provider", "", "geocoding provider (nominatim or google)")
	fs.DurationVar(&flagMinDelay, "min-delay", 0, "minimum spacing between lookups")
	fs.DurationVar(&flagTimeout, "timeout", 0, "per-lookup timeout")
}

func addRenderFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagMap, "map", "", "HTML map to write")
	fs.BoolVar(&flagCluster, "cluster", false, "cluster nearby markers")
	fs.StringVar(&flagStyle, "style", "", "marker style (pin or circle)")
	fs.StringVar(&flagTiles, "tiles", "", "base tiles (openstreetmap or cartodb-positron)")
}

// applyFlags copies explicitly set flags into c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("input") {
		c.Dataset.InputPath = flagInput
	}
	if fs.Changed("seed") {
		c.Dataset.SeedPath = flagSeed
	}
	if fs.Changed("output") {
		c.Dataset.OutputPath = flagOutput
	}
	if fs.Changed("provider") {
		c.Geocode.Provider = flagProvider
	}
	if fs.Changed("min-delay") {
		c.Geocode.MinDelayMillis = int(flagMinDelay / time.Millisecond)
	}
	if fs.Changed("timeout") {
		c.Geocode.TimeoutSecs = int((flagTimeout + time.Second - 1) / time.Second)
	}
	if fs.Changed("map") {
		c.Map.OutputPath = flagMap
	}
	if fs.Changed("cluster") {
		c.Map.Cluster = flagCluster
	}
	if fs.Changed("style") {
		c.Map.MarkerStyle = flagStyle
	}
	if fs.Changed("tiles") {
		c.Map.Tiles = flagTiles
	}
}
