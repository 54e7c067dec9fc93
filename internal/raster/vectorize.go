package raster

import (
	"github.com/paulmach/orb"
)

// Cell is one vectorized raster cell: its square outline and the radiance
// drop it carries.
type Cell struct {
	Geom  orb.Polygon
	Value float64
}

// Vectorize converts every surviving (non-nodata) cell into a square polygon
// in the raster's CRS. Granularity is one polygon per cell; downstream
// operations are defined per-polygon, so no dissolve step is needed.
func Vectorize(r *Raster) []Cell {
	out := make([]Cell, 0, r.DataCellCount())
	for row := 0; row < r.rows; row++ {
		for col := 0; col < r.cols; col++ {
			v := r.Value(row, col)
			if r.IsNoData(v) {
				continue
			}
			out = append(out, Cell{Geom: r.CellPolygon(row, col), Value: v})
		}
	}
	return out
}
