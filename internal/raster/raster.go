package raster

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
)

// Raster is an immutable grid of radiance values with a CRS and extent.
// Cells are stored row-major with row 0 at the northern edge; the origin is
// the grid's north-west corner in CRS coordinates.
type Raster struct {
	crs      geo.CRS
	originX  float64 // west edge
	originY  float64 // north edge
	cellSize float64
	noData   float64
	rows     int
	cols     int
	cells    []float64
}

// New validates and constructs a Raster. CRS and extent are first-class
// fields checked here, not after the fact.
func New(crs geo.CRS, originX, originY, cellSize, noData float64, rows, cols int, cells []float64) (*Raster, error) {
	if crs.IsZero() {
		return nil, fmt.Errorf("raster: CRS is required")
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("raster: cell size must be positive, got %g", cellSize)
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("raster: grid must be non-empty, got %dx%d", rows, cols)
	}
	if len(cells) != rows*cols {
		return nil, fmt.Errorf("raster: %dx%d grid requires %d cells, got %d", rows, cols, rows*cols, len(cells))
	}
	return &Raster{
		crs:      crs,
		originX:  originX,
		originY:  originY,
		cellSize: cellSize,
		noData:   noData,
		rows:     rows,
		cols:     cols,
		cells:    cells,
	}, nil
}

// Tile is a raster plus the calendar date of its satellite pass.
type Tile struct {
	Raster *Raster
	Date   time.Time
}

func (r *Raster) CRS() geo.CRS      { return r.crs }
func (r *Raster) Rows() int         { return r.rows }
func (r *Raster) Cols() int         { return r.cols }
func (r *Raster) CellSize() float64 { return r.cellSize }
func (r *Raster) NoData() float64   { return r.noData }

// Value returns the cell at (row, col); row 0 is the northern edge.
func (r *Raster) Value(row, col int) float64 {
	return r.cells[row*r.cols+col]
}

// IsNoData reports whether v is the raster's nodata sentinel.
func (r *Raster) IsNoData(v float64) bool {
	return v == r.noData || math.IsNaN(v)
}

// Extent returns the raster's bounding box in CRS coordinates.
func (r *Raster) Extent() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.originX, r.originY - float64(r.rows)*r.cellSize},
		Max: orb.Point{r.originX + float64(r.cols)*r.cellSize, r.originY},
	}
}

// CellCenter returns the center coordinate of the cell at (row, col).
func (r *Raster) CellCenter(row, col int) orb.Point {
	return orb.Point{
		r.originX + (float64(col)+0.5)*r.cellSize,
		r.originY - (float64(row)+0.5)*r.cellSize,
	}
}

// CellPolygon returns the square outline of the cell at (row, col),
// wound counter-clockwise and closed.
func (r *Raster) CellPolygon(row, col int) orb.Polygon {
	minX := r.originX + float64(col)*r.cellSize
	maxX := minX + r.cellSize
	maxY := r.originY - float64(row)*r.cellSize
	minY := maxY - r.cellSize
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

// DataCellCount returns the number of cells holding a real value.
func (r *Raster) DataCellCount() int {
	n := 0
	for _, v := range r.cells {
		if !r.IsNoData(v) {
			n++
		}
	}
	return n
}

// alignTolerance is the fraction of a cell within which two grids are
// considered to sit on the same lattice.
const alignTolerance = 1e-6

// sameGrid reports whether two rasters share cell size, shape, and origin.
func sameGrid(a, b *Raster) bool {
	tol := a.cellSize * alignTolerance
	return a.rows == b.rows && a.cols == b.cols &&
		math.Abs(a.cellSize-b.cellSize) <= tol &&
		math.Abs(a.originX-b.originX) <= tol &&
		math.Abs(a.originY-b.originY) <= tol
}
