package pipeline

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/layer"
)

// runSpatialJoin flags buildings intersecting the filtered mask, joins
// income onto tracts, and flags tracts intersecting affected buildings.
func (p *Pipeline) runSpatialJoin(in *Inputs, res *Result) error {
	if err := p.joinBuildings(in, res); err != nil {
		return err
	}
	return p.joinTracts(in, res)
}

func (p *Pipeline) joinBuildings(in *Inputs, res *Result) error {
	projected, err := reprojectBuildings(in.Buildings, geo.TexasCentricAlbers)
	if err != nil {
		return err
	}
	if err := CheckCRS(projected.CRS, geo.TexasCentricAlbers, "buildings"); err != nil {
		return err
	}

	for _, b := range projected.Buildings {
		if geo.MultiPolygonIntersectsAny(b.Geom, res.Mask.Polygons) {
			res.AffectedBuildings = append(res.AffectedBuildings, b)
		} else {
			res.UnaffectedBuildings = append(res.UnaffectedBuildings, b)
		}
	}

	if err := CheckPartition(len(projected.Buildings), len(res.AffectedBuildings), len(res.UnaffectedBuildings), "building join"); err != nil {
		return err
	}

	p.metrics.Buildings.WithLabelValues("true").Set(float64(len(res.AffectedBuildings)))
	p.metrics.Buildings.WithLabelValues("false").Set(float64(len(res.UnaffectedBuildings)))
	p.logger.Info("buildings joined",
		"total", len(projected.Buildings),
		"affected", len(res.AffectedBuildings),
		"unaffected", len(res.UnaffectedBuildings),
	)
	return nil
}

func (p *Pipeline) joinTracts(in *Inputs, res *Result) error {
	// Dangling join keys on either side halt the run before any joining.
	joined, err := layer.JoinIncome(in.Tracts, in.Income)
	if err != nil {
		return err
	}

	projected, err := reprojectTracts(joined, geo.TexasCentricAlbers)
	if err != nil {
		return err
	}
	if err := CheckCRS(projected.CRS, geo.TexasCentricAlbers, "census tracts"); err != nil {
		return err
	}

	affectedGeoms := make([]orb.MultiPolygon, len(res.AffectedBuildings))
	for i, b := range res.AffectedBuildings {
		affectedGeoms[i] = b.Geom
	}

	// The flag and the direct filter are two derivations of the same
	// property; reconciling them is the pipeline's core consistency check.
	flagged := 0
	for i := range projected.Tracts {
		projected.Tracts[i].Affected = tractIntersectsAny(projected.Tracts[i].Geom, affectedGeoms)
		if projected.Tracts[i].Affected {
			flagged++
		}
	}

	direct := 0
	for i := range projected.Tracts {
		if tractIntersectsAny(projected.Tracts[i].Geom, affectedGeoms) {
			direct++
		}
	}
	if err := CheckFlagConsistency(flagged, direct); err != nil {
		return err
	}

	res.Tracts = projected
	p.metrics.Tracts.WithLabelValues("true").Set(float64(flagged))
	p.metrics.Tracts.WithLabelValues("false").Set(float64(len(projected.Tracts) - flagged))
	p.logger.Info("tracts joined",
		"total", len(projected.Tracts),
		"affected", flagged,
	)
	return nil
}

func tractIntersectsAny(tract orb.MultiPolygon, buildings []orb.MultiPolygon) bool {
	for _, b := range buildings {
		if geo.MultiPolygonsIntersect(tract, b) {
			return true
		}
	}
	return false
}

func reprojectBuildings(l *layer.BuildingLayer, to geo.CRS) (*layer.BuildingLayer, error) {
	out := &layer.BuildingLayer{CRS: to, Buildings: make([]layer.Building, len(l.Buildings))}
	for i, b := range l.Buildings {
		g, err := geo.Transform(b.Geom, l.CRS, to)
		if err != nil {
			return nil, fmt.Errorf("reproject building %s: %w", b.ID, err)
		}
		mp, ok := g.(orb.MultiPolygon)
		if !ok {
			return nil, fmt.Errorf("reproject building %s: got %s, want MultiPolygon", b.ID, g.GeoJSONType())
		}
		b.Geom = mp
		out.Buildings[i] = b
	}
	return out, nil
}

func reprojectTracts(l *layer.TractLayer, to geo.CRS) (*layer.TractLayer, error) {
	out := &layer.TractLayer{CRS: to, Tracts: make([]layer.Tract, len(l.Tracts))}
	for i, t := range l.Tracts {
		g, err := geo.Transform(t.Geom, l.CRS, to)
		if err != nil {
			return nil, fmt.Errorf("reproject tract %s: %w", t.GEOID, err)
		}
		mp, ok := g.(orb.MultiPolygon)
		if !ok {
			return nil, fmt.Errorf("reproject tract %s: got %s, want MultiPolygon", t.GEOID, g.GeoJSONType())
		}
		t.Geom = mp
		out.Tracts[i] = t
	}
	return out, nil
}
