package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/config"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/observability"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/pipeline"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full blackout analysis pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	addConfigFlags(cmd.Flags())
	return cmd
}

func runAnalyze(parent context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, logger, metrics)

	inputs, err := p.LoadInputs(ctx)
	if err != nil {
		logger.Error("load inputs failed", "error", err)
		return err
	}

	result, err := p.Run(ctx, inputs)
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		return err
	}

	reporter := report.NewReporter(cfg.OutputDir, logger)
	dir, err := reporter.Write(result)
	if err != nil {
		logger.Error("report failed", "error", err)
		return err
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			// Metrics delivery failing does not invalidate the analysis.
			logger.Warn("metrics textfile write failed", "error", err)
		}
	}

	logger.Info("analysis complete", "artifacts", dir)
	return nil
}
