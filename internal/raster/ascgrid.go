package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
)

// asciiHeaderLines is the fixed number of header lines in an Esri ASCII grid.
const asciiHeaderLines = 6

// ReadASCIIGrid loads an Esri ASCII grid (.asc) file. The format carries no
// CRS, so the caller supplies the CRS the file is known to be in.
func ReadASCIIGrid(path string, crs geo.CRS) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	header := map[string]float64{}
	for i := 0; i < asciiHeaderLines; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("read raster %s: truncated header at line %d", path, i+1)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, fmt.Errorf("read raster %s: malformed header line %q", path, sc.Text())
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("read raster %s: header value %q: %w", path, fields[1], err)
		}
		header[strings.ToLower(fields[0])] = v
	}

	for _, key := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"} {
		if _, ok := header[key]; !ok {
			return nil, fmt.Errorf("read raster %s: header missing %s", path, key)
		}
	}

	cols := int(header["ncols"])
	rows := int(header["nrows"])
	cellSize := header["cellsize"]
	noData := header["nodata_value"]

	cells := make([]float64, 0, rows*cols)
	for sc.Scan() {
		for _, field := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("read raster %s: cell value %q: %w", path, field, err)
			}
			cells = append(cells, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read raster %s: %w", path, err)
	}
	if len(cells) != rows*cols {
		return nil, fmt.Errorf("read raster %s: expected %d cells, got %d", path, rows*cols, len(cells))
	}

	// The .asc origin is the south-west corner; Raster's is the north-west.
	originX := header["xllcorner"]
	originY := header["yllcorner"] + float64(rows)*cellSize

	return New(crs, originX, originY, cellSize, noData, rows, cols, cells)
}

// WriteASCIIGrid stores a raster as an Esri ASCII grid. Used by the fixture
// generator and round-trip tests.
func WriteASCIIGrid(path string, r *Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write raster %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	ext := r.Extent()
	fmt.Fprintf(w, "ncols %d\n", r.Cols())
	fmt.Fprintf(w, "nrows %d\n", r.Rows())
	fmt.Fprintf(w, "xllcorner %g\n", ext.Min[0])
	fmt.Fprintf(w, "yllcorner %g\n", ext.Min[1])
	fmt.Fprintf(w, "cellsize %g\n", r.CellSize())
	fmt.Fprintf(w, "NODATA_value %g\n", r.NoData())

	for row := 0; row < r.Rows(); row++ {
		for col := 0; col < r.Cols(); col++ {
			if col > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%g", r.Value(row, col))
		}
		fmt.Fprintln(w)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write raster %s: %w", path, err)
	}
	return nil
}
