package layer

import (
	"github.com/paulmach/orb"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
)

// RoadLayer holds motorway centerlines in a single CRS.
type RoadLayer struct {
	CRS   geo.CRS
	Lines orb.MultiLineString
}

// Building is a dwelling footprint. Type is the OSM building tag; empty
// means the tag was absent.
type Building struct {
	ID   string
	Type string
	Geom orb.MultiPolygon
}

// BuildingLayer holds residential building footprints in a single CRS.
type BuildingLayer struct {
	CRS       geo.CRS
	Buildings []Building
}

// Tract is a census tract polygon with its joined income attribute.
// MedianIncome is NaN when the ACS estimate is suppressed. Affected is the
// single derived field of the whole pipeline, set once by the spatial joiner.
type Tract struct {
	GEOID        string
	Geom         orb.MultiPolygon
	MedianIncome float64
	Affected     bool
}

// TractLayer holds census tracts in a single CRS.
type TractLayer struct {
	CRS    geo.CRS
	Tracts []Tract
}

// IncomeTable maps a normalized tract GEOID to median household income.
type IncomeTable map[string]float64
