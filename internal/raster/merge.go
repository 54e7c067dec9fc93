package raster

import (
	"fmt"
	"math"
)

// Merge mosaics two vertically adjacent same-date tiles into one raster.
// The tiles must share a CRS, cell size, and column grid, and must abut
// north-to-south with no gap or overlap. Tiles are disjoint by construction
// (adjacent grid cells of the same product), so no tie-break is needed.
// The merged row count is the sum of the input row counts.
func Merge(a, b *Raster) (*Raster, error) {
	if !a.crs.Equal(b.crs) {
		return nil, fmt.Errorf("merge: CRS mismatch: %s vs %s", a.crs, b.crs)
	}

	tol := a.cellSize * 0.5
	if math.Abs(a.cellSize-b.cellSize) > a.cellSize*alignTolerance {
		return nil, fmt.Errorf("merge: cell size mismatch: %g vs %g", a.cellSize, b.cellSize)
	}
	if a.cols != b.cols || math.Abs(a.originX-b.originX) > tol {
		return nil, fmt.Errorf("merge: tiles do not share a column grid (%d cols at x=%g vs %d cols at x=%g)",
			a.cols, a.originX, b.cols, b.originX)
	}
	if a.noData != b.noData {
		return nil, fmt.Errorf("merge: nodata mismatch: %g vs %g", a.noData, b.noData)
	}

	north, south := a, b
	if south.originY > north.originY {
		north, south = south, north
	}

	northBottom := north.originY - float64(north.rows)*north.cellSize
	if math.Abs(northBottom-south.originY) > tol {
		return nil, fmt.Errorf("merge: tiles are not vertically adjacent (gap of %g between y=%g and y=%g)",
			math.Abs(northBottom-south.originY), northBottom, south.originY)
	}

	cells := make([]float64, 0, len(north.cells)+len(south.cells))
	cells = append(cells, north.cells...)
	cells = append(cells, south.cells...)

	return New(north.crs, north.originX, north.originY, north.cellSize, north.noData,
		north.rows+south.rows, north.cols, cells)
}
