// Command genfixtures writes a deterministic synthetic dataset for the
// blackout analysis: two raster tiles per date, road/building/tract GeoJSON
// layers, an income CSV, and a ready-to-use YAML config. It uses the actual
// raster and layer packages so the fixtures always match what the pipeline
// expects to read.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data/fixtures
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/raster"
)

// Fixture geometry: a 40x30-cell grid over the Houston bounding box, split
// into a north and a south tile per date. The synthetic blackout sits in a
// residential patch; a second radiance drop hugs the motorway so the highway
// filter has something to remove.
const (
	cellSize = 0.05
	cols     = 40
	rowsPer  = 15
	westLon  = -96.5
	northLat = 30.5
	noData   = -9999.0

	baseRadiance  = 3000.0
	blackoutDrop  = -800.0
	motorwayDrop  = -500.0
	radianceJit   = 30.0
	randomSeed    = 220
	tractGridSize = 4
)

// Blackout patch (lon/lat), away from the motorway.
var blackoutPatch = orb.Bound{Min: orb.Point{-95.6, 29.6}, Max: orb.Point{-95.3, 29.9}}

// Motorway runs east-west across the box at this latitude.
const motorwayLat = 30.1

func main() {
	out := flag.String("out", "data/fixtures", "output directory")
	flag.Parse()

	if err := run(*out); err != nil {
		log.Fatal(err)
	}
}

func run(out string) error {
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(randomSeed))

	if err := writeTiles(out, rng); err != nil {
		return err
	}
	if err := writeRoads(filepath.Join(out, "roads.geojson")); err != nil {
		return err
	}
	if err := writeBuildings(filepath.Join(out, "buildings.geojson")); err != nil {
		return err
	}
	geoids, err := writeTracts(filepath.Join(out, "tracts.geojson"))
	if err != nil {
		return err
	}
	if err := writeIncome(filepath.Join(out, "income.csv"), geoids, rng); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(out, "blackout.yaml"), out); err != nil {
		return err
	}

	log.Printf("fixtures written to %s", out)
	return nil
}

// writeTiles emits north and south tiles for both dates. The post-storm
// tiles carry the blackout and motorway radiance drops plus jitter small
// enough to stay above the threshold everywhere else.
func writeTiles(out string, rng *rand.Rand) error {
	dates := []struct {
		date   string
		isPost bool
	}{
		{"20210207", false},
		{"20210216", true},
	}

	for _, d := range dates {
		date, isPost := d.date, d.isPost
		for tileIdx, originLat := range []float64{northLat, northLat - float64(rowsPer)*cellSize} {
			cells := make([]float64, 0, rowsPer*cols)
			for row := 0; row < rowsPer; row++ {
				for col := 0; col < cols; col++ {
					lon := westLon + (float64(col)+0.5)*cellSize
					lat := originLat - (float64(row)+0.5)*cellSize

					v := baseRadiance + rng.Float64()*radianceJit
					if isPost {
						if insideBound(blackoutPatch, lon, lat) {
							v += blackoutDrop
						}
						if lat > motorwayLat-cellSize && lat < motorwayLat+cellSize {
							v += motorwayDrop
						}
					}
					cells = append(cells, v)
				}
			}

			r, err := raster.New(geo.WGS84, westLon, originLat, cellSize, noData, rowsPer, cols, cells)
			if err != nil {
				return err
			}
			path := filepath.Join(out, fmt.Sprintf("vnp46a1_%s_tile%d.asc", date, tileIdx))
			if err := raster.WriteASCIIGrid(path, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRoads(path string) error {
	fc := geojson.NewFeatureCollection()

	motorway := geojson.NewFeature(orb.LineString{
		{westLon, motorwayLat}, {westLon + float64(cols)*cellSize, motorwayLat},
	})
	motorway.Properties["highway"] = "motorway"
	fc.Append(motorway)

	// A residential street the filter must ignore.
	street := geojson.NewFeature(orb.LineString{{-95.5, 29.5}, {-95.4, 29.5}})
	street.Properties["highway"] = "residential"
	fc.Append(street)

	return writeJSON(path, fc)
}

func writeBuildings(path string) error {
	fc := geojson.NewFeatureCollection()

	add := func(id string, lon, lat float64, buildingType string) {
		f := geojson.NewFeature(squareAround(lon, lat, 0.01))
		f.Properties["osm_id"] = id
		if buildingType != "" {
			f.Properties["building"] = buildingType
		}
		fc.Append(f)
	}

	// Inside the blackout patch.
	add("b-blackout-1", -95.45, 29.75, "house")
	add("b-blackout-2", -95.5, 29.8, "apartments")
	add("b-blackout-3", -95.35, 29.65, "")

	// Outside it.
	add("b-lit-1", -96.2, 30.3, "residential")
	add("b-lit-2", -94.8, 29.2, "detached")

	// Commercial, excluded by the attribute filter.
	add("b-commercial", -95.45, 29.76, "retail")

	return writeJSON(path, fc)
}

// writeTracts lays a tractGridSize^2 grid of tracts over the middle of the
// box and returns their GEOIDs.
func writeTracts(path string) ([]string, error) {
	fc := geojson.NewFeatureCollection()
	var geoids []string

	minLon, maxLon := -96.0, -95.0
	minLat, maxLat := 29.4, 30.4
	dLon := (maxLon - minLon) / tractGridSize
	dLat := (maxLat - minLat) / tractGridSize

	for i := 0; i < tractGridSize; i++ {
		for j := 0; j < tractGridSize; j++ {
			geoid := fmt.Sprintf("48201%06d", i*tractGridSize+j+1)
			lo := orb.Point{minLon + float64(i)*dLon, minLat + float64(j)*dLat}
			hi := orb.Point{lo[0] + dLon, lo[1] + dLat}
			f := geojson.NewFeature(orb.Polygon{orb.Ring{
				lo, {hi[0], lo[1]}, hi, {lo[0], hi[1]}, lo,
			}})
			f.Properties["GEOID"] = geoid
			fc.Append(f)
			geoids = append(geoids, geoid)
		}
	}

	return geoids, writeJSON(path, fc)
}

func writeIncome(path string, geoids []string, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"GEO_ID", "NAME", "B19013_001E"}); err != nil {
		return err
	}
	for i, geoid := range geoids {
		income := fmt.Sprintf("%d", 35000+rng.Intn(90000))
		if i == len(geoids)-1 {
			// One suppressed estimate, as the real ACS table has.
			income = "-666666666"
		}
		row := []string{
			"1400000US" + geoid,
			fmt.Sprintf("Census Tract %s", geoid[5:]),
			income,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeConfig(path, dir string) error {
	cfg := fmt.Sprintf(`raster:
  pre_tiles:
    - %[1]s/vnp46a1_20210207_tile0.asc
    - %[1]s/vnp46a1_20210207_tile1.asc
  post_tiles:
    - %[1]s/vnp46a1_20210216_tile0.asc
    - %[1]s/vnp46a1_20210216_tile1.asc
layers:
  roads: %[1]s/roads.geojson
  buildings: %[1]s/buildings.geojson
  tracts: %[1]s/tracts.geojson
  income: %[1]s/income.csv
output:
  dir: %[1]s/out
`, dir)
	return os.WriteFile(path, []byte(cfg), 0o644)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func squareAround(lon, lat, half float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{lon - half, lat - half}, {lon + half, lat - half},
		{lon + half, lat + half}, {lon - half, lat + half},
		{lon - half, lat - half},
	}}
}

func insideBound(b orb.Bound, lon, lat float64) bool {
	return lon >= b.Min[0] && lon <= b.Max[0] && lat >= b.Min[1] && lat <= b.Max[1]
}
