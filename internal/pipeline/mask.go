package pipeline

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/raster"
)

// BlackoutMask is the vectorized outage signal: one polygon per raster cell
// whose radiance dropped at or below the threshold, cropped to the analysis
// bounding box and reprojected to the analysis CRS. Drops carries the
// radiance change per polygon, index-aligned with Polygons.
type BlackoutMask struct {
	CRS      geo.CRS
	Polygons []orb.Polygon
	Drops    []float64
}

// runMask differences the merged rasters, thresholds, crops, vectorizes,
// and reprojects into the analysis CRS.
func (p *Pipeline) runMask(res *Result) error {
	diff, err := raster.Diff(res.PostMerged, res.PreMerged, p.cfg.BlackoutThreshold)
	if err != nil {
		return err
	}
	if err := CheckThresholdSurvival(diff, p.cfg.BlackoutThreshold); err != nil {
		return err
	}

	cropped, err := raster.Crop(diff, p.cfg.BBox())
	if err != nil {
		return err
	}
	warn, err := CheckCropExtent(cropped, p.cfg.BBox())
	if err != nil {
		return err
	}
	if warn != "" {
		p.advise(warn, "stage", "mask")
	}

	cells := raster.Vectorize(cropped)
	p.metrics.BlackoutCells.Set(float64(len(cells)))

	mask := BlackoutMask{CRS: geo.TexasCentricAlbers}
	for _, c := range cells {
		g, err := geo.Transform(c.Geom, cropped.CRS(), geo.TexasCentricAlbers)
		if err != nil {
			return fmt.Errorf("reproject mask cell: %w", err)
		}
		poly, ok := g.(orb.Polygon)
		if !ok {
			return fmt.Errorf("reproject mask cell: got %s, want Polygon", g.GeoJSONType())
		}
		mask.Polygons = append(mask.Polygons, poly)
		mask.Drops = append(mask.Drops, c.Value)
	}

	// Comparing geometries across coordinate systems downstream would be
	// silently wrong, so a CRS mismatch here is fatal.
	if err := CheckCRS(mask.CRS, geo.TexasCentricAlbers, "blackout mask"); err != nil {
		return err
	}

	res.Mask = mask
	res.BBoxProjected, err = geo.TransformBound(p.cfg.BBox(), geo.WGS84, geo.TexasCentricAlbers)
	if err != nil {
		return err
	}

	p.metrics.MaskPolygons.WithLabelValues("vectorized").Set(float64(len(mask.Polygons)))
	p.logger.Info("blackout mask built",
		"cells", len(cells),
		"threshold", p.cfg.BlackoutThreshold,
		"crs", mask.CRS,
	)
	return nil
}
