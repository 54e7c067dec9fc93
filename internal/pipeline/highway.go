package pipeline

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/config"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/layer"
)

// RoadBuffer is the exclusion zone around motorways: all area within Radius
// meters of any segment in Lines. Lines must be in a metric CRS. The buffer
// is represented as (geometry, radius) and evaluated by planar distance,
// which is the definition of the buffered region.
type RoadBuffer struct {
	CRS    geo.CRS
	Lines  orb.MultiLineString
	Radius float64
}

// Contains reports whether the polygon touches the buffered region.
func (b RoadBuffer) Contains(poly orb.Polygon) bool {
	return geo.PolygonLineDistance(poly, b.Lines) <= b.Radius
}

// runHighwayFilter removes mask polygons within the motorway buffer.
// Keeping and removing are computed as two independent predicates (disjoint
// vs intersecting) and reconciled, so the filter is a verified partition of
// the mask rather than an approximation.
func (p *Pipeline) runHighwayFilter(in *Inputs, res *Result) error {
	buffer, cropped, err := buildRoadBuffer(in.Roads, p.cfg.BBox(), p.cfg.HighwayBufferMeters)
	if err != nil {
		return err
	}
	res.Roads = cropped

	var kept, removed []orb.Polygon
	var keptDrops []float64
	for i, poly := range res.Mask.Polygons {
		if buffer.Contains(poly) {
			removed = append(removed, poly)
			continue
		}
		kept = append(kept, poly)
		keptDrops = append(keptDrops, res.Mask.Drops[i])
	}

	// Partition law: every original polygon lands in exactly one side, and
	// the removed side is exactly the set intersecting the buffer.
	if err := CheckPartition(len(res.Mask.Polygons), len(kept), len(removed), "highway filter"); err != nil {
		return err
	}
	intersecting := 0
	for _, poly := range res.Mask.Polygons {
		if buffer.Contains(poly) {
			intersecting++
		}
	}
	if intersecting != len(removed) {
		return fmt.Errorf("highway filter: removed set (%d) does not equal buffer-intersecting set (%d)", len(removed), intersecting)
	}

	p.metrics.MaskPolygons.WithLabelValues("kept").Set(float64(len(kept)))
	p.metrics.MaskPolygons.WithLabelValues("removed").Set(float64(len(removed)))
	p.logger.Info("highway exclusion applied",
		"total", len(res.Mask.Polygons),
		"kept", len(kept),
		"removed", len(removed),
		"buffer_meters", buffer.Radius,
	)

	res.Mask = BlackoutMask{CRS: res.Mask.CRS, Polygons: kept, Drops: keptDrops}
	res.Removed = removed
	return nil
}

// buildRoadBuffer crops motorways to the bounding box, merges the segments,
// reprojects to the analysis CRS, and verifies that CRS measures meters
// before any buffering distance is trusted.
func buildRoadBuffer(roads *layer.RoadLayer, bbox orb.Bound, radius float64) (RoadBuffer, orb.MultiLineString, error) {
	clipped := clip.MultiLineString(bbox, roads.Lines.Clone())
	if len(clipped) == 0 {
		return RoadBuffer{}, nil, fmt.Errorf("road buffer: no motorway segments inside bounding box %v", bbox)
	}

	g, err := geo.Transform(clipped, roads.CRS, geo.TexasCentricAlbers)
	if err != nil {
		return RoadBuffer{}, nil, fmt.Errorf("reproject roads: %w", err)
	}
	projected, ok := g.(orb.MultiLineString)
	if !ok {
		return RoadBuffer{}, nil, fmt.Errorf("reproject roads: got %s, want MultiLineString", g.GeoJSONType())
	}

	// Buffering in a geographic CRS would silently produce degree-sized
	// "meters"; verify against great-circle ground truth.
	if err := geo.VerifyMetric(geo.TexasCentricAlbers, config.MetricCRSTolerance); err != nil {
		return RoadBuffer{}, nil, err
	}

	return RoadBuffer{CRS: geo.TexasCentricAlbers, Lines: projected, Radius: radius}, projected, nil
}
