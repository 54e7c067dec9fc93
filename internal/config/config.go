// Package config holds all settings for the blackout analysis, loaded from
// an optional YAML file, BLACKOUT_* environment variables, and CLI flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/paulmach/orb"
	"github.com/spf13/pflag"
)

// The analysis constants below are carried unchanged from the original
// study of the February 2021 Houston blackouts. They are empirical values,
// surfaced as configuration so a rerun can vary them, but their defaults
// are the values the study used.
const (
	// DefaultBlackoutThreshold is the radiance-difference cutoff: only
	// cells whose post-minus-pre change is at or below this value count as
	// an outage signal.
	DefaultBlackoutThreshold = -200.0

	// DefaultHighwayBufferMeters is the exclusion distance around
	// motorways, removing light changes attributable to road lighting.
	DefaultHighwayBufferMeters = 200.0

	// MetricCRSTolerance is the maximum relative disagreement allowed
	// between projected and great-circle distances when verifying that the
	// analysis CRS measures true meters.
	MetricCRSTolerance = 0.01
)

// Houston bounding box in lon/lat degrees, approximating the metropolitan
// area. Hardcoded four corners in the original, a rectangle here.
const (
	DefaultBBoxMinLon = -96.5
	DefaultBBoxMinLat = 29.0
	DefaultBBoxMaxLon = -94.5
	DefaultBBoxMaxLat = 30.5
)

// Config holds all pipeline settings.
type Config struct {
	// Raster tile paths, one set per date.
	PreTiles  []string `koanf:"raster.pre_tiles"`
	PostTiles []string `koanf:"raster.post_tiles"`

	// Vector layer paths.
	RoadsPath     string `koanf:"layers.roads"`
	BuildingsPath string `koanf:"layers.buildings"`
	TractsPath    string `koanf:"layers.tracts"`
	IncomePath    string `koanf:"layers.income"`

	// Analysis parameters.
	BlackoutThreshold   float64 `koanf:"analysis.blackout_threshold"`
	HighwayBufferMeters float64 `koanf:"analysis.highway_buffer_meters"`
	BBoxMinLon          float64 `koanf:"analysis.bbox.min_lon"`
	BBoxMinLat          float64 `koanf:"analysis.bbox.min_lat"`
	BBoxMaxLon          float64 `koanf:"analysis.bbox.max_lon"`
	BBoxMaxLat          float64 `koanf:"analysis.bbox.max_lat"`

	// Output.
	OutputDir   string `koanf:"output.dir"`
	MetricsFile string `koanf:"output.metrics_file"`

	LogLevel  string `koanf:"log.level"`
	LogFormat string `koanf:"log.format"`
}

// BBox returns the analysis bounding box as an orb bound in lon/lat.
func (c *Config) BBox() orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.BBoxMinLon, c.BBoxMinLat},
		Max: orb.Point{c.BBoxMaxLon, c.BBoxMaxLat},
	}
}

// envKeys maps BLACKOUT_* variable suffixes to config keys. The mapping is
// explicit because key names contain underscores of their own
// (analysis.blackout_threshold), so the separators cannot be recovered from
// the variable name mechanically.
var envKeys = map[string]string{
	"RASTER_PRE_TILES":               "raster.pre_tiles",
	"RASTER_POST_TILES":              "raster.post_tiles",
	"LAYERS_ROADS":                   "layers.roads",
	"LAYERS_BUILDINGS":               "layers.buildings",
	"LAYERS_TRACTS":                  "layers.tracts",
	"LAYERS_INCOME":                  "layers.income",
	"ANALYSIS_BLACKOUT_THRESHOLD":    "analysis.blackout_threshold",
	"ANALYSIS_HIGHWAY_BUFFER_METERS": "analysis.highway_buffer_meters",
	"ANALYSIS_BBOX_MIN_LON":          "analysis.bbox.min_lon",
	"ANALYSIS_BBOX_MIN_LAT":          "analysis.bbox.min_lat",
	"ANALYSIS_BBOX_MAX_LON":          "analysis.bbox.max_lon",
	"ANALYSIS_BBOX_MAX_LAT":          "analysis.bbox.max_lat",
	"OUTPUT_DIR":                     "output.dir",
	"OUTPUT_METRICS_FILE":            "output.metrics_file",
	"LOG_LEVEL":                      "log.level",
	"LOG_FORMAT":                     "log.format",
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"analysis.blackout_threshold":    DefaultBlackoutThreshold,
		"analysis.highway_buffer_meters": DefaultHighwayBufferMeters,
		"analysis.bbox.min_lon":          DefaultBBoxMinLon,
		"analysis.bbox.min_lat":          DefaultBBoxMinLat,
		"analysis.bbox.max_lon":          DefaultBBoxMaxLon,
		"analysis.bbox.max_lat":          DefaultBBoxMaxLat,
		"output.dir":                     "out",
		"log.level":                      "info",
		"log.format":                     "text",
	}
}

// Load builds the configuration from defaults, then an optional YAML file,
// then environment variables, then flags. BLACKOUT_LAYERS_ROADS maps to
// layers.roads, and so on.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	// Unknown variables map to "" and are ignored by the provider.
	envProvider := env.Provider("BLACKOUT_", ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, "BLACKOUT_")]
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.PreTiles) == 0 {
		return errors.New("raster.pre_tiles is required")
	}
	if len(c.PostTiles) == 0 {
		return errors.New("raster.post_tiles is required")
	}
	if c.RoadsPath == "" {
		return errors.New("layers.roads is required")
	}
	if c.BuildingsPath == "" {
		return errors.New("layers.buildings is required")
	}
	if c.TractsPath == "" {
		return errors.New("layers.tracts is required")
	}
	if c.IncomePath == "" {
		return errors.New("layers.income is required")
	}
	if c.HighwayBufferMeters <= 0 {
		return fmt.Errorf("analysis.highway_buffer_meters must be positive, got %g", c.HighwayBufferMeters)
	}
	if c.BBoxMinLon >= c.BBoxMaxLon || c.BBoxMinLat >= c.BBoxMaxLat {
		return fmt.Errorf("analysis.bbox is degenerate: (%g,%g)-(%g,%g)",
			c.BBoxMinLon, c.BBoxMinLat, c.BBoxMaxLon, c.BBoxMaxLat)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.LogFormat)
	}
	return nil
}
