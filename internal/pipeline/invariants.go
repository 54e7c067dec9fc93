package pipeline

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/raster"
)

// The checks in this file are the pipeline's named invariants. Fatal checks
// return an error; advisory checks return a warning string (empty when the
// invariant holds) for the caller to log, because the deviations they catch
// are expected floating-point or geometry-conversion artifacts.

// CheckMergeRowCount verifies that a mosaic has exactly the sum of its input
// tiles' rows. The tiles stack vertically on a shared column grid, so any
// other count means cells were dropped or duplicated.
func CheckMergeRowCount(merged *raster.Raster, tiles []*raster.Raster) error {
	want := 0
	for _, t := range tiles {
		want += t.Rows()
	}
	if merged.Rows() != want {
		return fmt.Errorf("merge row count: got %d rows, want %d (sum of %d tiles)", merged.Rows(), want, len(tiles))
	}
	return nil
}

// CheckExtentsMatch compares the extents of the two dates' mosaics. A
// deviation within half a cell is an advisory (grid snapping); anything
// larger is a real misalignment and fatal.
func CheckExtentsMatch(a, b *raster.Raster) (string, error) {
	ea, eb := a.Extent(), b.Extent()
	dev := maxCornerDeviation(ea, eb)

	switch {
	case dev == 0:
		return "", nil
	case dev <= a.CellSize()/2:
		return fmt.Sprintf("merged extents differ by %g (within half-cell tolerance)", dev), nil
	default:
		return "", fmt.Errorf("merged extents misaligned by %g (> half cell %g): %v vs %v", dev, a.CellSize()/2, ea, eb)
	}
}

// CheckThresholdSurvival verifies that no cell above the threshold survived
// masking: every remaining value must be a blackout-sized drop.
func CheckThresholdSurvival(diff *raster.Raster, threshold float64) error {
	for row := 0; row < diff.Rows(); row++ {
		for col := 0; col < diff.Cols(); col++ {
			v := diff.Value(row, col)
			if diff.IsNoData(v) {
				continue
			}
			if v > threshold {
				return fmt.Errorf("threshold survival: cell (%d,%d) holds %g > threshold %g", row, col, v, threshold)
			}
		}
	}
	return nil
}

// CheckCropExtent reports how far the cropped raster's extent falls outside
// the requested box. Snapping to cell edges can push the bounds outward by
// up to one cell; within that tolerance the overage is advisory, beyond it
// the crop selected cells it should not have and the run halts.
func CheckCropExtent(cropped *raster.Raster, box orb.Bound) (string, error) {
	ext := cropped.Extent()
	over := math.Max(
		math.Max(box.Min[0]-ext.Min[0], ext.Max[0]-box.Max[0]),
		math.Max(box.Min[1]-ext.Min[1], ext.Max[1]-box.Max[1]),
	)
	switch {
	case over <= 0:
		return "", nil
	case over <= cropped.CellSize():
		return fmt.Sprintf("cropped extent exceeds bounding box by %g (within one-cell tolerance %g)", over, cropped.CellSize()), nil
	default:
		return "", fmt.Errorf("crop extent: exceeds bounding box by %g (> one cell %g): %v vs %v", over, cropped.CellSize(), ext, box)
	}
}

// CheckCRS is the fatal guard against comparing geometries in incompatible
// coordinate systems: every layer entering a spatial operation must already
// be in the analysis CRS.
func CheckCRS(got, want geo.CRS, what string) error {
	if !got.Equal(want) {
		return fmt.Errorf("%s CRS mismatch after reprojection: got %s, want %s", what, got, want)
	}
	return nil
}

// CheckPartition verifies the strict partition law: every element lands in
// exactly one of the two output sets.
func CheckPartition(total, kept, removed int, what string) error {
	if kept+removed != total {
		return fmt.Errorf("%s partition broken: %d kept + %d removed != %d total", what, kept, removed, total)
	}
	return nil
}

// CheckFlagConsistency reconciles the derived Affected flag count with an
// independent direct spatial filter. The two derive the same property; any
// divergence means at least one of them is wrong.
func CheckFlagConsistency(flagged, direct int) error {
	if flagged != direct {
		return fmt.Errorf("tract consistency: %d flagged affected vs %d by direct spatial filter", flagged, direct)
	}
	return nil
}

func maxCornerDeviation(a, b orb.Bound) float64 {
	return math.Max(
		math.Max(math.Abs(a.Min[0]-b.Min[0]), math.Abs(a.Min[1]-b.Min[1])),
		math.Max(math.Abs(a.Max[0]-b.Max[0]), math.Abs(a.Max[1]-b.Max[1])),
	)
}
