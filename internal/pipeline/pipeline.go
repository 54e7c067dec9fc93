// Package pipeline orchestrates the blackout analysis: load, merge, mask,
// highway filter, spatial join. Data flows strictly forward; every stage
// runs exactly once. Failures come in two tiers: fatal errors abort the run
// (CRS mismatches, dangling join keys, broken partitions), advisories are
// logged and counted but never stop it (expected floating-point and
// raster-to-vector artifacts).
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/config"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/layer"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/observability"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/raster"
)

// Inputs holds everything the pipeline reads from disk, already typed but
// not yet transformed. Loading is separated from analysis so tests can build
// Inputs synthetically.
type Inputs struct {
	PreTiles  []*raster.Raster
	PostTiles []*raster.Raster
	Roads     *layer.RoadLayer
	Buildings *layer.BuildingLayer
	Tracts    *layer.TractLayer
	Income    layer.IncomeTable
}

// Result is the complete outcome of one run, consumed by the reporter.
type Result struct {
	PreMerged  *raster.Raster
	PostMerged *raster.Raster

	// Mask is the filtered blackout mask in the analysis CRS; Removed holds
	// the polygons excluded by the highway filter.
	Mask    BlackoutMask
	Removed []orb.Polygon

	// Roads cropped to the bounding box, in the analysis CRS.
	Roads        orb.MultiLineString
	BufferMeters float64

	AffectedBuildings   []layer.Building
	UnaffectedBuildings []layer.Building

	// Tracts carry joined income and the derived Affected flag.
	Tracts *layer.TractLayer

	// BBoxProjected is the analysis bounding box in the analysis CRS.
	BBoxProjected orb.Bound
}

// Pipeline runs the analysis over one set of inputs.
type Pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline with the given configuration and observability.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger, metrics: metrics}
}

// LoadInputs reads every configured file. Resources are read fully into
// memory; the layers are regional extracts, not unbounded streams.
func (p *Pipeline) LoadInputs(_ context.Context) (*Inputs, error) {
	in := &Inputs{}

	for _, path := range p.cfg.PreTiles {
		r, err := raster.ReadASCIIGrid(path, geo.WGS84)
		if err != nil {
			return nil, err
		}
		in.PreTiles = append(in.PreTiles, r)
		p.metrics.TilesLoaded.Inc()
	}
	for _, path := range p.cfg.PostTiles {
		r, err := raster.ReadASCIIGrid(path, geo.WGS84)
		if err != nil {
			return nil, err
		}
		in.PostTiles = append(in.PostTiles, r)
		p.metrics.TilesLoaded.Inc()
	}

	roads, err := layer.LoadRoads(p.cfg.RoadsPath, geo.WGS84)
	if err != nil {
		return nil, err
	}
	in.Roads = roads

	buildings, err := layer.LoadBuildings(p.cfg.BuildingsPath, geo.WGS84)
	if err != nil {
		return nil, err
	}
	in.Buildings = buildings

	tracts, err := layer.LoadTracts(p.cfg.TractsPath, geo.WGS84)
	if err != nil {
		return nil, err
	}
	in.Tracts = tracts

	income, err := layer.LoadIncome(p.cfg.IncomePath)
	if err != nil {
		return nil, err
	}
	in.Income = income

	p.logger.Info("inputs loaded",
		"pre_tiles", len(in.PreTiles),
		"post_tiles", len(in.PostTiles),
		"motorway_segments", len(in.Roads.Lines),
		"buildings", len(in.Buildings.Buildings),
		"tracts", len(in.Tracts.Tracts),
		"income_rows", len(in.Income),
	)
	return in, nil
}

// Run executes the full analysis over the given inputs.
func (p *Pipeline) Run(ctx context.Context, in *Inputs) (*Result, error) {
	res := &Result{BufferMeters: p.cfg.HighwayBufferMeters}

	if err := p.stage(ctx, "merge", func() error { return p.runMerge(in, res) }); err != nil {
		return nil, err
	}
	if err := p.stage(ctx, "mask", func() error { return p.runMask(res) }); err != nil {
		return nil, err
	}
	if err := p.stage(ctx, "highway_filter", func() error { return p.runHighwayFilter(in, res) }); err != nil {
		return nil, err
	}
	if err := p.stage(ctx, "spatial_join", func() error { return p.runSpatialJoin(in, res) }); err != nil {
		return nil, err
	}

	return res, nil
}

// stage wraps one pipeline stage with timing, logging, and cancellation.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	p.logger.Info("stage complete", "stage", name, "elapsed", elapsed)
	return nil
}

// advise records an expected, non-fatal deviation.
func (p *Pipeline) advise(msg string, args ...any) {
	p.logger.Warn(msg, args...)
	p.metrics.Advisories.Inc()
}

// runMerge mosaics same-date tiles and verifies the two dates line up.
func (p *Pipeline) runMerge(in *Inputs, res *Result) error {
	pre, err := mergeTiles(in.PreTiles)
	if err != nil {
		return fmt.Errorf("pre-storm: %w", err)
	}
	post, err := mergeTiles(in.PostTiles)
	if err != nil {
		return fmt.Errorf("post-storm: %w", err)
	}

	if err := CheckMergeRowCount(pre, in.PreTiles); err != nil {
		return err
	}
	if err := CheckMergeRowCount(post, in.PostTiles); err != nil {
		return err
	}

	warn, err := CheckExtentsMatch(pre, post)
	if err != nil {
		return err
	}
	if warn != "" {
		p.advise(warn, "stage", "merge")
	}

	res.PreMerged, res.PostMerged = pre, post
	return nil
}

func mergeTiles(tiles []*raster.Raster) (*raster.Raster, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("merge: no tiles")
	}
	merged := tiles[0]
	var err error
	for _, t := range tiles[1:] {
		merged, err = raster.Merge(merged, t)
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}
