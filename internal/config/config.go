package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/geomap-cli/internal/render"
	"github.com/sells-group/geomap-cli/internal/resolve"
	"github.com/sells-group/geomap-cli/pkg/geocode"
)

// Config holds the full application configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DatasetConfig locates the input and output tables.
type DatasetConfig struct {
	InputPath  string `yaml:"input_path" mapstructure:"input_path"`
	OutputPath string `yaml:"output_path" mapstructure:"output_path"`
	SeedPath   string `yaml:"seed_path" mapstructure:"seed_path"` // empty = embedded fixture
	Charset    string `yaml:"charset" mapstructure:"charset"`
}

// GeocodeConfig configures the geocoding provider and query policy.
type GeocodeConfig struct {
	Provider       string   `yaml:"provider" mapstructure:"provider"`
	BaseURL        string   `yaml:"base_url" mapstructure:"base_url"` // host root or full /search endpoint
	UserAgent      string   `yaml:"user_agent" mapstructure:"user_agent"`
	Email          string   `yaml:"email" mapstructure:"email"`
	APIKey         string   `yaml:"api_key" mapstructure:"api_key"`
	CountryCodes   []string `yaml:"country_codes" mapstructure:"country_codes"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinDelayMillis int      `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	RegionSuffix   string   `yaml:"region_suffix" mapstructure:"region_suffix"`
	FallbackSuffix string   `yaml:"fallback_suffix" mapstructure:"fallback_suffix"`
}

// Timeout returns the per-lookup timeout.
func (g GeocodeConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// MinDelay returns the minimum spacing between lookups.
func (g GeocodeConfig) MinDelay() time.Duration {
	return time.Duration(g.MinDelayMillis) * time.Millisecond
}

// MapConfig configures the rendered HTML map.
type MapConfig struct {
	OutputPath   string            `yaml:"output_path" mapstructure:"output_path"`
	CenterLat    float64           `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon    float64           `yaml:"center_lon" mapstructure:"center_lon"`
	Zoom         int               `yaml:"zoom" mapstructure:"zoom"`
	Tiles        string            `yaml:"tiles" mapstructure:"tiles"`
	MarkerStyle  string            `yaml:"marker_style" mapstructure:"marker_style"`
	Cluster      bool              `yaml:"cluster" mapstructure:"cluster"`
	Heatmap      bool              `yaml:"heatmap" mapstructure:"heatmap"`
	HeatRadius   int               `yaml:"heat_radius" mapstructure:"heat_radius"`
	HeatBlur     int               `yaml:"heat_blur" mapstructure:"heat_blur"`
	LayerControl bool              `yaml:"layer_control" mapstructure:"layer_control"`
	Title        string            `yaml:"title" mapstructure:"title"`
	Legend       bool              `yaml:"legend" mapstructure:"legend"`
	Palette      map[string]string `yaml:"palette" mapstructure:"palette"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Output is a zap sink: "stdout", "stderr" or a file path.
	Output string `yaml:"output" mapstructure:"output"`
}

// Load reads configuration from .env, geomap.yaml and the environment.
// Environment variables win over the file; the file wins over defaults.
func Load() (*Config, error) {
	// .env is optional; it only seeds the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("geomap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.input_path", "Hubli_Dharwad_ITI_MSME_Locations.csv")
	v.SetDefault("dataset.output_path", "Geocoded_ITI_MSME_Locations.csv")
	v.SetDefault("dataset.seed_path", "")
	v.SetDefault("dataset.charset", "")
	v.SetDefault("geocode.provider", geocode.ProviderNominatim)
	v.SetDefault("geocode.base_url", "")
	v.SetDefault("geocode.user_agent", geocode.DefaultUserAgent)
	v.SetDefault("geocode.email", "")
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.country_codes", []string{})
	v.SetDefault("geocode.timeout_secs", int(resolve.DefaultTimeout/time.Second))
	v.SetDefault("geocode.min_delay_ms", int(resolve.DefaultMinDelay/time.Millisecond))
	v.SetDefault("geocode.region_suffix", resolve.DefaultRegionSuffix)
	v.SetDefault("geocode.fallback_suffix", resolve.DefaultFallbackSuffix)

	mo := render.DefaultOptions()
	v.SetDefault("map.output_path", "hubli_dharwad_map.html")
	v.SetDefault("map.center_lat", mo.CenterLat)
	v.SetDefault("map.center_lon", mo.CenterLon)
	v.SetDefault("map.zoom", mo.Zoom)
	v.SetDefault("map.tiles", mo.Tiles)
	v.SetDefault("map.marker_style", mo.MarkerStyle)
	v.SetDefault("map.cluster", mo.Cluster)
	v.SetDefault("map.heatmap", mo.Heatmap)
	v.SetDefault("map.heat_radius", mo.HeatRadius)
	v.SetDefault("map.heat_blur", mo.HeatBlur)
	v.SetDefault("map.layer_control", mo.LayerControl)
	v.SetDefault("map.title", mo.Title)
	v.SetDefault("map.legend", mo.Legend)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "seed":
		if c.Dataset.InputPath == "" {
			errs = append(errs, "dataset.input_path is required")
		}
	case "geocode":
		if c.Dataset.InputPath == "" {
			errs = append(errs, "dataset.input_path is required")
		}
		if c.Dataset.OutputPath == "" {
			errs = append(errs, "dataset.output_path is required")
		}
		switch strings.ToLower(c.Geocode.Provider) {
		case "nominatim":
			if c.Geocode.BaseURL == "" && c.Geocode.UserAgent == "" {
				errs = append(errs, "geocode.user_agent is required for the public nominatim endpoint")
			}
		case "google":
			if c.Geocode.APIKey == "" {
				errs = append(errs, "geocode.api_key is required for provider google")
			}
		default:
			errs = append(errs, fmt.Sprintf("geocode.provider %q is not supported", c.Geocode.Provider))
		}
		if c.Geocode.TimeoutSecs <= 0 {
			errs = append(errs, "geocode.timeout_secs must be > 0")
		}
		if c.Geocode.MinDelayMillis < 0 {
			errs = append(errs, "geocode.min_delay_ms must be >= 0")
		}
	case "render":
		if c.Dataset.OutputPath == "" {
			errs = append(errs, "dataset.output_path is required")
		}
		if c.Map.OutputPath == "" {
			errs = append(errs, "map.output_path is required")
		}
		if c.Map.HeatRadius <= 0 || c.Map.HeatBlur < 0 {
			errs = append(errs, "map.heat_radius must be > 0 and map.heat_blur >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
