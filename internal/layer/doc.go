// Package layer models the vector inputs of the blackout analysis.
//
// # Data Sources
//
// Roads and buildings are OpenStreetMap extracts for the Houston
// metropolitan area, stored as GeoJSON feature collections in EPSG:4326.
// Roads are filtered to highway=motorway at load time; only motorway-class
// segments matter because the 200 m exclusion buffer exists to remove
// light-intensity changes attributable to road lighting. Buildings are
// filtered to residential dwelling types (or a missing building tag, which
// OSM extracts use for untyped residential footprints).
//
// Census tracts come from the TIGER/Line tract polygons for Texas, keyed by
// GEOID. Median household income is the ACS table B19013 estimate, stored as
// a CSV keyed by the long-form GEO_ID ("1400000US" + GEOID); the fixed-width
// prefix is stripped before joining. The ACS publishes -666666666 as the
// sentinel for suppressed estimates; those tracts carry NaN income and are
// excluded from income statistics but kept in the spatial analysis.
package layer
