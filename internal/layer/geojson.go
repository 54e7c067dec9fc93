package layer

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/silkieMoth/UCSB-EDS-220-Houston-Blackout-Analysis/internal/geo"
)

// MotorwayClass is the OSM highway value the road filter keeps.
const MotorwayClass = "motorway"

// ResidentialBuildingTypes is the allow-list of OSM building tags treated as
// dwellings. A feature with no building tag at all also passes, matching how
// the source extract marks untyped residential footprints.
var ResidentialBuildingTypes = map[string]bool{
	"residential":    true,
	"apartments":     true,
	"house":          true,
	"detached":       true,
	"static_caravan": true,
}

// LoadRoads reads a GeoJSON road layer and keeps only motorway-class
// segments. The CRS is supplied by the caller; GeoJSON itself is always
// lon/lat per RFC 7946.
func LoadRoads(path string, crs geo.CRS) (*RoadLayer, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var lines orb.MultiLineString
	for _, f := range fc.Features {
		if cls, _ := f.Properties["highway"].(string); cls != MotorwayClass {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = append(lines, g)
		case orb.MultiLineString:
			lines = append(lines, g...)
		}
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("load roads %s: no %s features found", path, MotorwayClass)
	}
	return &RoadLayer{CRS: crs, Lines: lines}, nil
}

// LoadBuildings reads a GeoJSON building layer and keeps only residential
// dwellings: features whose building tag is in the allow-list or absent.
func LoadBuildings(path string, crs geo.CRS) (*BuildingLayer, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var buildings []Building
	for i, f := range fc.Features {
		typ, tagged := f.Properties["building"].(string)
		if tagged && !ResidentialBuildingTypes[typ] {
			continue
		}

		geom := toMultiPolygon(f.Geometry)
		if geom == nil {
			continue
		}

		id, _ := f.Properties["osm_id"].(string)
		if id == "" {
			id = fmt.Sprintf("building-%d", i)
		}
		buildings = append(buildings, Building{ID: id, Type: typ, Geom: geom})
	}

	if len(buildings) == 0 {
		return nil, fmt.Errorf("load buildings %s: no residential features found", path)
	}
	return &BuildingLayer{CRS: crs, Buildings: buildings}, nil
}

// LoadTracts reads census tract polygons keyed by GEOID. Income is joined
// separately; MedianIncome starts as NaN-free zero and is overwritten by
// JoinIncome before any statistics run.
func LoadTracts(path string, crs geo.CRS) (*TractLayer, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	var tracts []Tract
	for _, f := range fc.Features {
		geoid, _ := f.Properties["GEOID"].(string)
		if geoid == "" {
			return nil, fmt.Errorf("load tracts %s: feature without GEOID", path)
		}
		geom := toMultiPolygon(f.Geometry)
		if geom == nil {
			return nil, fmt.Errorf("load tracts %s: tract %s has non-polygon geometry %s", path, geoid, f.Geometry.GeoJSONType())
		}
		tracts = append(tracts, Tract{GEOID: geoid, Geom: geom})
	}

	if len(tracts) == 0 {
		return nil, fmt.Errorf("load tracts %s: no features found", path)
	}
	return &TractLayer{CRS: crs, Tracts: tracts}, nil
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layer %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse layer %s: %w", path, err)
	}
	return fc, nil
}

func toMultiPolygon(g orb.Geometry) orb.MultiPolygon {
	switch t := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{t}
	case orb.MultiPolygon:
		return t
	default:
		return nil
	}
}
