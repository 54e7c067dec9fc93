package raster

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Diff computes the per-cell change post minus pre and masks out everything
// that is not a blackout signal: any cell whose difference is greater than
// threshold becomes nodata, so only sufficiently large negative radiance
// drops survive. Cells that are nodata in either input stay nodata.
// Both rasters must sit on an identical grid in the same CRS.
func Diff(post, pre *Raster, threshold float64) (*Raster, error) {
	if !post.crs.Equal(pre.crs) {
		return nil, fmt.Errorf("diff: CRS mismatch: %s vs %s", post.crs, pre.crs)
	}
	if !sameGrid(post, pre) {
		return nil, fmt.Errorf("diff: rasters are not on the same grid (%dx%d at (%g,%g) vs %dx%d at (%g,%g))",
			post.rows, post.cols, post.originX, post.originY,
			pre.rows, pre.cols, pre.originX, pre.originY)
	}

	cells := make([]float64, len(post.cells))
	for i := range post.cells {
		pv, qv := post.cells[i], pre.cells[i]
		if post.IsNoData(pv) || pre.IsNoData(qv) {
			cells[i] = post.noData
			continue
		}
		d := pv - qv
		if d > threshold {
			cells[i] = post.noData
			continue
		}
		cells[i] = d
	}

	return New(post.crs, post.originX, post.originY, post.cellSize, post.noData,
		post.rows, post.cols, cells)
}

// Crop returns the sub-grid of cells whose centers fall inside the bounding
// box. The returned extent snaps outward to cell edges, so it may exceed the
// requested box by up to one cell size on each side; callers treat that as a
// known geometry-conversion artifact, not an error.
func Crop(r *Raster, box orb.Bound) (*Raster, error) {
	minRow, minCol := r.rows, r.cols
	maxRow, maxCol := -1, -1

	for row := 0; row < r.rows; row++ {
		for col := 0; col < r.cols; col++ {
			c := r.CellCenter(row, col)
			if c[0] < box.Min[0] || c[0] > box.Max[0] || c[1] < box.Min[1] || c[1] > box.Max[1] {
				continue
			}
			if row < minRow {
				minRow = row
			}
			if row > maxRow {
				maxRow = row
			}
			if col < minCol {
				minCol = col
			}
			if col > maxCol {
				maxCol = col
			}
		}
	}

	if maxRow < 0 {
		return nil, fmt.Errorf("crop: bounding box %v contains no cell centers", box)
	}

	rows := maxRow - minRow + 1
	cols := maxCol - minCol + 1
	cells := make([]float64, 0, rows*cols)
	for row := minRow; row <= maxRow; row++ {
		start := row*r.cols + minCol
		cells = append(cells, r.cells[start:start+cols]...)
	}

	originX := r.originX + float64(minCol)*r.cellSize
	originY := r.originY - float64(minRow)*r.cellSize

	return New(r.crs, originX, originY, r.cellSize, r.noData, rows, cols, cells)
}
