package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
)

const testNoData = -9999.0

// grid builds a rows x cols raster with the given top-left origin and
// sequential cell values starting at base.
func grid(t *testing.T, originX, originY, cellSize float64, rows, cols int, base float64) *Raster {
	t.Helper()
	cells := make([]float64, rows*cols)
	for i := range cells {
		cells[i] = base + float64(i)
	}
	r, err := New(geo.WGS84, originX, originY, cellSize, testNoData, rows, cols, cells)
	require.NoError(t, err)
	return r
}

func TestNew(t *testing.T) {
	t.Run("rejects missing CRS", func(t *testing.T) {
		_, err := New(geo.CRS{}, 0, 0, 1, testNoData, 1, 1, []float64{0})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CRS is required")
	})

	t.Run("rejects cell count mismatch", func(t *testing.T) {
		_, err := New(geo.WGS84, 0, 0, 1, testNoData, 2, 2, []float64{1, 2, 3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires 4 cells")
	})

	t.Run("rejects non-positive cell size", func(t *testing.T) {
		_, err := New(geo.WGS84, 0, 0, 0, testNoData, 1, 1, []float64{0})
		require.Error(t, err)
	})
}

func TestExtentAndCells(t *testing.T) {
	r := grid(t, -96.5, 30.5, 0.5, 2, 4, 0)

	assert.Equal(t, orb.Bound{Min: orb.Point{-96.5, 29.5}, Max: orb.Point{-94.5, 30.5}}, r.Extent())
	assert.Equal(t, orb.Point{-96.25, 30.25}, r.CellCenter(0, 0))
	assert.Equal(t, orb.Point{-94.75, 29.75}, r.CellCenter(1, 3))
	assert.Equal(t, 0.0, r.Value(0, 0))
	assert.Equal(t, 7.0, r.Value(1, 3))

	poly := r.CellPolygon(0, 0)
	assert.Equal(t, orb.Bound{Min: orb.Point{-96.5, 30.0}, Max: orb.Point{-96.0, 30.5}}, poly.Bound())
}

func TestMerge(t *testing.T) {
	t.Run("two adjacent 2x2 tiles merge into a 4x2 mosaic with no undefined cells", func(t *testing.T) {
		north := grid(t, 0, 4, 1, 2, 2, 0)   // covers y in [2,4]
		south := grid(t, 0, 2, 1, 2, 2, 100) // covers y in [0,2]

		merged, err := Merge(north, south)
		require.NoError(t, err)

		assert.Equal(t, north.Rows()+south.Rows(), merged.Rows())
		assert.Equal(t, 2, merged.Cols())
		assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 4}}, merged.Extent())
		assert.Equal(t, merged.Rows()*merged.Cols(), merged.DataCellCount())

		// North tile on top, south below, values intact.
		assert.Equal(t, 0.0, merged.Value(0, 0))
		assert.Equal(t, 100.0, merged.Value(2, 0))
		assert.Equal(t, 103.0, merged.Value(3, 1))
	})

	t.Run("argument order does not matter", func(t *testing.T) {
		north := grid(t, 0, 4, 1, 2, 2, 0)
		south := grid(t, 0, 2, 1, 2, 2, 100)

		a, err := Merge(north, south)
		require.NoError(t, err)
		b, err := Merge(south, north)
		require.NoError(t, err)
		assert.Equal(t, a.Extent(), b.Extent())
		assert.Equal(t, a.Value(0, 0), b.Value(0, 0))
	})

	t.Run("CRS mismatch halts", func(t *testing.T) {
		north := grid(t, 0, 4, 1, 2, 2, 0)
		cells := []float64{0, 1, 2, 3}
		south, err := New(geo.TexasCentricAlbers, 0, 2, 1, testNoData, 2, 2, cells)
		require.NoError(t, err)

		_, err = Merge(north, south)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CRS mismatch")
	})

	t.Run("gap between tiles halts", func(t *testing.T) {
		north := grid(t, 0, 4, 1, 2, 2, 0)
		far := grid(t, 0, 1, 1, 2, 2, 0) // one full row of daylight

		_, err := Merge(north, far)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not vertically adjacent")
	})

	t.Run("different column grids halt", func(t *testing.T) {
		north := grid(t, 0, 4, 1, 2, 2, 0)
		south := grid(t, 0.75, 2, 1, 2, 2, 0)

		_, err := Merge(north, south)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column grid")
	})
}

func TestDiff(t *testing.T) {
	const threshold = -200.0

	t.Run("only drops at or below the threshold survive", func(t *testing.T) {
		pre := grid(t, 0, 2, 1, 2, 2, 0)
		postCells := []float64{
			0 - 250, // survives: drop of -250
			1 - 200, // survives: exactly the threshold
			2 - 199, // masked: drop too small
			3 + 500, // masked: radiance increased
		}
		post, err := New(geo.WGS84, 0, 2, 1, testNoData, 2, 2, postCells)
		require.NoError(t, err)

		diff, err := Diff(post, pre, threshold)
		require.NoError(t, err)

		assert.Equal(t, -250.0, diff.Value(0, 0))
		assert.Equal(t, -200.0, diff.Value(0, 1))
		assert.True(t, diff.IsNoData(diff.Value(1, 0)))
		assert.True(t, diff.IsNoData(diff.Value(1, 1)))
		assert.Equal(t, 2, diff.DataCellCount())

		// No surviving cell sits above the threshold.
		for row := 0; row < diff.Rows(); row++ {
			for col := 0; col < diff.Cols(); col++ {
				if v := diff.Value(row, col); !diff.IsNoData(v) {
					assert.LessOrEqual(t, v, threshold)
				}
			}
		}
	})

	t.Run("nodata in either input stays nodata", func(t *testing.T) {
		pre, err := New(geo.WGS84, 0, 1, 1, testNoData, 1, 2, []float64{testNoData, 500})
		require.NoError(t, err)
		post, err := New(geo.WGS84, 0, 1, 1, testNoData, 1, 2, []float64{100, testNoData})
		require.NoError(t, err)

		diff, err := Diff(post, pre, threshold)
		require.NoError(t, err)
		assert.Equal(t, 0, diff.DataCellCount())
	})

	t.Run("grid mismatch halts", func(t *testing.T) {
		pre := grid(t, 0, 2, 1, 2, 2, 0)
		post := grid(t, 0, 3, 1, 2, 2, 0)

		_, err := Diff(post, pre, threshold)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not on the same grid")
	})
}

func TestCrop(t *testing.T) {
	r := grid(t, 0, 4, 1, 4, 4, 0) // covers x [0,4], y [0,4]

	t.Run("keeps cells whose centers fall in the box", func(t *testing.T) {
		box := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{3, 3}}
		cropped, err := Crop(r, box)
		require.NoError(t, err)

		assert.Equal(t, 2, cropped.Rows())
		assert.Equal(t, 2, cropped.Cols())
		// Rows 1-2, cols 1-2 of the original.
		assert.Equal(t, r.Value(1, 1), cropped.Value(0, 0))
		assert.Equal(t, r.Value(2, 2), cropped.Value(1, 1))
	})

	t.Run("extent snaps outward to cell edges", func(t *testing.T) {
		box := orb.Bound{Min: orb.Point{1.3, 1.3}, Max: orb.Point{2.7, 2.7}}
		cropped, err := Crop(r, box)
		require.NoError(t, err)

		ext := cropped.Extent()
		assert.LessOrEqual(t, ext.Min[0], box.Min[0])
		assert.GreaterOrEqual(t, ext.Max[0], box.Max[0])
		// Never by more than one cell.
		assert.LessOrEqual(t, box.Min[0]-ext.Min[0], r.CellSize())
		assert.LessOrEqual(t, ext.Max[0]-box.Max[0], r.CellSize())
	})

	t.Run("box with no cell centers halts", func(t *testing.T) {
		box := orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{11, 11}}
		_, err := Crop(r, box)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no cell centers")
	})
}

func TestVectorize(t *testing.T) {
	cells := []float64{-300, testNoData, testNoData, -450}
	r, err := New(geo.WGS84, 0, 2, 1, testNoData, 2, 2, cells)
	require.NoError(t, err)

	out := Vectorize(r)
	require.Len(t, out, 2)

	assert.Equal(t, -300.0, out[0].Value)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 1}, Max: orb.Point{1, 2}}, out[0].Geom.Bound())
	assert.Equal(t, -450.0, out[1].Value)
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 0}, Max: orb.Point{2, 1}}, out[1].Geom.Bound())
}

func TestASCIIGridRoundTrip(t *testing.T) {
	r := grid(t, -96.5, 30.5, 0.5, 3, 4, 10)
	path := filepath.Join(t.TempDir(), "tile.asc")

	require.NoError(t, WriteASCIIGrid(path, r))
	loaded, err := ReadASCIIGrid(path, geo.WGS84)
	require.NoError(t, err)

	assert.Equal(t, r.Rows(), loaded.Rows())
	assert.Equal(t, r.Cols(), loaded.Cols())
	assert.Equal(t, r.Extent(), loaded.Extent())
	assert.Equal(t, r.NoData(), loaded.NoData())
	for row := 0; row < r.Rows(); row++ {
		for col := 0; col < r.Cols(); col++ {
			assert.Equal(t, r.Value(row, col), loaded.Value(row, col))
		}
	}
}

func TestReadASCIIGridErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadASCIIGrid(filepath.Join(t.TempDir(), "nope.asc"), geo.WGS84)
		require.Error(t, err)
	})

	t.Run("truncated cells", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.asc")
		content := "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\nNODATA_value -9999\n1 2\n3\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := ReadASCIIGrid(path, geo.WGS84)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 4 cells")
	})
}
