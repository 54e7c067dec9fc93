package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blackout",
		Short:         "Spatial analysis of the February 2021 Houston power blackouts",
		Long:          "Computes the spatial correlation between nighttime-light power outages and household income in Houston after the February 2021 Texas winter storms.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newValidateCmd())
	return root
}

// addConfigFlags registers the flags shared by analyze and validate. Flag
// names mirror the config keys so the posflag provider can overlay them
// directly.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.StringSlice("raster.pre_tiles", nil, "pre-storm raster tile paths (.asc)")
	flags.StringSlice("raster.post_tiles", nil, "post-storm raster tile paths (.asc)")
	flags.String("layers.roads", "", "roads GeoJSON path")
	flags.String("layers.buildings", "", "buildings GeoJSON path")
	flags.String("layers.tracts", "", "census tracts GeoJSON path")
	flags.String("layers.income", "", "income CSV path")
	flags.Float64("analysis.blackout_threshold", 0, "radiance-difference cutoff for the blackout mask")
	flags.Float64("analysis.highway_buffer_meters", 0, "motorway exclusion buffer distance in meters")
	flags.String("output.dir", "", "artifact output directory")
	flags.String("output.metrics_file", "", "optional Prometheus textfile path")
	flags.String("log.level", "", "log level (debug, info, warn, error)")
	flags.String("log.format", "", "log format (text, json)")
}
