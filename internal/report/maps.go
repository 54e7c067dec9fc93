package report

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/pipeline"
)

const (
	mapWidth  = 1200
	mapHeight = 900
	mapMargin = 40
)

// canvasTransform maps projected coordinates into image pixels, preserving
// aspect ratio with the y axis flipped (north up).
type canvasTransform struct {
	scale      float64
	offX, offY float64
}

func newCanvasTransform(bound orb.Bound, width, height int) canvasTransform {
	spanX := bound.Max[0] - bound.Min[0]
	spanY := bound.Max[1] - bound.Min[1]
	scale := math.Min(
		float64(width-2*mapMargin)/spanX,
		float64(height-2*mapMargin)/spanY,
	)
	return canvasTransform{
		scale: scale,
		offX:  bound.Min[0],
		offY:  bound.Max[1],
	}
}

func (t canvasTransform) point(p orb.Point) (float64, float64) {
	return mapMargin + (p[0]-t.offX)*t.scale, mapMargin + (t.offY-p[1])*t.scale
}

// SaveBlackoutMap renders the filtered blackout mask (dark), the polygons
// removed by the highway filter (pale), the exclusion buffer as road casings
// at true buffer width, and the motorways over the analysis bounding box.
func SaveBlackoutMap(res *pipeline.Result, path string) error {
	dc := gg.NewContext(mapWidth, mapHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	t := newCanvasTransform(res.BBoxProjected, mapWidth, mapHeight)

	dc.SetRGBA(0.85, 0.75, 0.45, 0.8)
	for _, poly := range res.Removed {
		fillPolygon(dc, t, poly)
	}

	dc.SetRGBA(0.1, 0.1, 0.35, 0.9)
	for _, poly := range res.Mask.Polygons {
		fillPolygon(dc, t, poly)
	}

	// Buffer casing: stroke width is the buffer diameter in map units, so
	// the casing outline is the buffered region around each motorway.
	dc.SetRGBA(0.9, 0.8, 0.8, 0.6)
	dc.SetLineWidth(math.Max(1, 2*res.BufferMeters*t.scale))
	dc.SetLineCapRound()
	for _, ls := range res.Roads {
		strokeLine(dc, t, ls)
	}

	dc.SetRGBA(0.6, 0.1, 0.1, 0.9)
	dc.SetLineWidth(2)
	for _, ls := range res.Roads {
		strokeLine(dc, t, ls)
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save blackout map: %w", err)
	}
	return nil
}

// SaveIncomeMap renders tracts shaded by median income (darker = higher),
// with affected tracts outlined in red.
func SaveIncomeMap(res *pipeline.Result, path string) error {
	dc := gg.NewContext(mapWidth, mapHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	var bound orb.Bound
	first := true
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, tract := range res.Tracts.Tracts {
		b := tract.Geom.Bound()
		if first {
			bound = b
			first = false
		} else {
			bound = bound.Union(b)
		}
		if !math.IsNaN(tract.MedianIncome) {
			lo = math.Min(lo, tract.MedianIncome)
			hi = math.Max(hi, tract.MedianIncome)
		}
	}
	if first {
		return fmt.Errorf("save income map: no tracts to draw")
	}

	t := newCanvasTransform(bound, mapWidth, mapHeight)

	for _, tract := range res.Tracts.Tracts {
		shade := 0.9
		if !math.IsNaN(tract.MedianIncome) && hi > lo {
			// Linear ramp: low income light green, high income dark green.
			frac := (tract.MedianIncome - lo) / (hi - lo)
			shade = 0.9 - 0.7*frac
		}
		dc.SetRGB(shade*0.8, shade, shade*0.8)
		for _, poly := range tract.Geom {
			fillPolygon(dc, t, poly)
		}
	}

	dc.SetRGBA(0.8, 0.1, 0.1, 1)
	dc.SetLineWidth(2)
	for _, tract := range res.Tracts.Tracts {
		if !tract.Affected {
			continue
		}
		for _, poly := range tract.Geom {
			strokePolygon(dc, t, poly)
		}
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save income map: %w", err)
	}
	return nil
}

func fillPolygon(dc *gg.Context, t canvasTransform, poly orb.Polygon) {
	tracePolygon(dc, t, poly)
	dc.Fill()
}

func strokePolygon(dc *gg.Context, t canvasTransform, poly orb.Polygon) {
	tracePolygon(dc, t, poly)
	dc.Stroke()
}

func tracePolygon(dc *gg.Context, t canvasTransform, poly orb.Polygon) {
	for _, ring := range poly {
		for i, pt := range ring {
			x, y := t.point(pt)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
	}
}

func strokeLine(dc *gg.Context, t canvasTransform, ls orb.LineString) {
	for i, pt := range ls {
		x, y := t.point(pt)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()
}
