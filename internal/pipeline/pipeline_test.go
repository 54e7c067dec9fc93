package pipeline

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/config"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/layer"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/observability"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/raster"
)

// The synthetic scene: a 2x1 degree window over Houston on a 0.1 degree grid,
// split into a north and a south tile per date. Radiance is a flat 3000
// everywhere, with a post-storm drop of 500 in a small patch south of
// downtown. One motorway runs east-west along latitude 30.3, far from the
// patch. One residential building sits inside the patch, one outside.
const (
	sceneCellSize = 0.1
	sceneCols     = 20
	sceneRowsPer  = 5
	sceneWest     = -96.5
	sceneNorthLat = 30.5
	sceneBase     = 3000.0
	sceneDrop     = -500.0
)

func blackoutScene() orb.Bound {
	return orb.Bound{Min: orb.Point{-95.5, 29.7}, Max: orb.Point{-95.1, 30.0}}
}

func sceneTile(t *testing.T, originY float64, post bool) *raster.Raster {
	t.Helper()
	patch := blackoutScene()
	cells := make([]float64, sceneRowsPer*sceneCols)
	for row := 0; row < sceneRowsPer; row++ {
		for col := 0; col < sceneCols; col++ {
			lon := sceneWest + (float64(col)+0.5)*sceneCellSize
			lat := originY - (float64(row)+0.5)*sceneCellSize
			v := sceneBase
			if post && lon > patch.Min[0] && lon < patch.Max[0] && lat > patch.Min[1] && lat < patch.Max[1] {
				v += sceneDrop
			}
			cells[row*sceneCols+col] = v
		}
	}
	r, err := raster.New(geo.WGS84, sceneWest, originY, sceneCellSize, -9999, sceneRowsPer, sceneCols, cells)
	require.NoError(t, err)
	return r
}

func square(cx, cy, half float64) orb.MultiPolygon {
	return orb.MultiPolygon{{orb.Ring{
		{cx - half, cy - half}, {cx + half, cy - half},
		{cx + half, cy + half}, {cx - half, cy + half},
		{cx - half, cy - half},
	}}}
}

func sceneInputs(t *testing.T) *Inputs {
	t.Helper()
	return &Inputs{
		PreTiles:  []*raster.Raster{sceneTile(t, sceneNorthLat, false), sceneTile(t, 30.0, false)},
		PostTiles: []*raster.Raster{sceneTile(t, sceneNorthLat, true), sceneTile(t, 30.0, true)},
		Roads: &layer.RoadLayer{
			CRS:   geo.WGS84,
			Lines: orb.MultiLineString{{{-96.4, 30.3}, {-94.6, 30.3}}},
		},
		Buildings: &layer.BuildingLayer{
			CRS: geo.WGS84,
			Buildings: []layer.Building{
				{ID: "b-in", Type: "residential", Geom: square(-95.3, 29.85, 0.005)},
				{ID: "b-out", Type: "house", Geom: square(-96.0, 30.2, 0.005)},
			},
		},
		Tracts: &layer.TractLayer{
			CRS: geo.WGS84,
			Tracts: []layer.Tract{
				{GEOID: "48201000001", Geom: square(-95.25, 29.8, 0.25)},
				{GEOID: "48201000002", Geom: square(-96.0, 30.2, 0.35)},
			},
		},
		Income: layer.IncomeTable{
			"48201000001": 41000,
			"48201000002": 72500,
		},
	}
}

func sceneConfig() *config.Config {
	return &config.Config{
		BlackoutThreshold:   config.DefaultBlackoutThreshold,
		HighwayBufferMeters: config.DefaultHighwayBufferMeters,
		BBoxMinLon:          config.DefaultBBoxMinLon,
		BBoxMinLat:          config.DefaultBBoxMinLat,
		BBoxMaxLon:          config.DefaultBBoxMaxLon,
		BBoxMaxLat:          config.DefaultBBoxMaxLat,
	}
}

func newTestPipeline(cfg *config.Config) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger, observability.NewMetrics())
}

func TestRun(t *testing.T) {
	p := newTestPipeline(sceneConfig())
	res, err := p.Run(context.Background(), sceneInputs(t))
	require.NoError(t, err)

	t.Run("merge stacks both tiles per date", func(t *testing.T) {
		assert.Equal(t, 2*sceneRowsPer, res.PreMerged.Rows())
		assert.Equal(t, 2*sceneRowsPer, res.PostMerged.Rows())
		assert.Equal(t, res.PreMerged.Extent(), res.PostMerged.Extent())
	})

	t.Run("mask holds only the blackout patch in the analysis CRS", func(t *testing.T) {
		require.NotEmpty(t, res.Mask.Polygons)
		assert.Equal(t, geo.TexasCentricAlbers, res.Mask.CRS)
		assert.Len(t, res.Mask.Drops, len(res.Mask.Polygons))
		for _, d := range res.Mask.Drops {
			assert.LessOrEqual(t, d, config.DefaultBlackoutThreshold)
		}
		// Projected coordinates, not degrees.
		for _, poly := range res.Mask.Polygons {
			assert.Greater(t, poly.Bound().Min[0], 1e5)
		}
	})

	t.Run("motorway far from the patch removes nothing", func(t *testing.T) {
		assert.Empty(t, res.Removed)
		assert.NotEmpty(t, res.Roads)
	})

	t.Run("building inside the patch is affected, outside is not", func(t *testing.T) {
		require.Len(t, res.AffectedBuildings, 1)
		require.Len(t, res.UnaffectedBuildings, 1)
		assert.Equal(t, "b-in", res.AffectedBuildings[0].ID)
		assert.Equal(t, "b-out", res.UnaffectedBuildings[0].ID)
	})

	t.Run("tract containing the affected building is flagged", func(t *testing.T) {
		require.NotNil(t, res.Tracts)
		byGeoid := map[string]layer.Tract{}
		for _, tr := range res.Tracts.Tracts {
			byGeoid[tr.GEOID] = tr
		}
		assert.True(t, byGeoid["48201000001"].Affected)
		assert.False(t, byGeoid["48201000002"].Affected)
		assert.Equal(t, 41000.0, byGeoid["48201000001"].MedianIncome)
		assert.Equal(t, 72500.0, byGeoid["48201000002"].MedianIncome)
	})

	t.Run("projected bounding box is set", func(t *testing.T) {
		assert.Greater(t, res.BBoxProjected.Max[0], res.BBoxProjected.Min[0])
		assert.Greater(t, res.BBoxProjected.Max[1], res.BBoxProjected.Min[1])
	})
}

func TestRunBufferEnclosesMask(t *testing.T) {
	// A buffer wide enough to cover the whole scene must remove every mask
	// polygon, leaving no affected buildings or tracts.
	cfg := sceneConfig()
	cfg.HighwayBufferMeters = 500_000

	p := newTestPipeline(cfg)
	res, err := p.Run(context.Background(), sceneInputs(t))
	require.NoError(t, err)

	assert.Empty(t, res.Mask.Polygons)
	assert.NotEmpty(t, res.Removed)
	assert.Empty(t, res.AffectedBuildings)
	require.NotNil(t, res.Tracts)
	for _, tr := range res.Tracts.Tracts {
		assert.False(t, tr.Affected)
	}
}

func TestRunFailures(t *testing.T) {
	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := newTestPipeline(sceneConfig())
		_, err := p.Run(ctx, sceneInputs(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("tile CRS mismatch aborts the merge stage", func(t *testing.T) {
		in := sceneInputs(t)
		projected, err := raster.New(geo.TexasCentricAlbers, 0, 100, 10, -9999, sceneRowsPer, sceneCols,
			make([]float64, sceneRowsPer*sceneCols))
		require.NoError(t, err)
		in.PostTiles[1] = projected

		_, err = newTestPipeline(sceneConfig()).Run(context.Background(), in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stage merge")
	})

	t.Run("dangling income key aborts the join stage", func(t *testing.T) {
		in := sceneInputs(t)
		delete(in.Income, "48201000002")

		_, err := newTestPipeline(sceneConfig()).Run(context.Background(), in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stage spatial_join")
		assert.Contains(t, err.Error(), "key mismatch")
	})

	t.Run("no motorway inside the bounding box aborts the filter stage", func(t *testing.T) {
		in := sceneInputs(t)
		in.Roads.Lines = orb.MultiLineString{{{-120, 40}, {-119, 40}}}

		_, err := newTestPipeline(sceneConfig()).Run(context.Background(), in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no motorway segments inside")
	})
}

func TestRoadBufferContains(t *testing.T) {
	buffer := RoadBuffer{
		CRS:    geo.TexasCentricAlbers,
		Lines:  orb.MultiLineString{{{0, 0}, {1000, 0}}},
		Radius: 200,
	}

	near := orb.Polygon{orb.Ring{{400, 150}, {500, 150}, {500, 180}, {400, 180}, {400, 150}}}
	far := orb.Polygon{orb.Ring{{400, 300}, {500, 300}, {500, 400}, {400, 400}, {400, 300}}}
	crossing := orb.Polygon{orb.Ring{{400, -50}, {500, -50}, {500, 50}, {400, 50}, {400, -50}}}

	assert.True(t, buffer.Contains(near))
	assert.False(t, buffer.Contains(far))
	assert.True(t, buffer.Contains(crossing))
}

func TestMaskDropsStayAligned(t *testing.T) {
	p := newTestPipeline(sceneConfig())
	res, err := p.Run(context.Background(), sceneInputs(t))
	require.NoError(t, err)

	require.Len(t, res.Mask.Drops, len(res.Mask.Polygons))
	for _, d := range res.Mask.Drops {
		assert.False(t, math.IsNaN(d))
		assert.InDelta(t, sceneDrop, d, 1e-9)
	}
}
