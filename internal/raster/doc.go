// Package raster models night-light radiance grids and the pure transforms
// the blackout analysis applies to them.
//
// # Data Source
//
// Tiles are regional extracts of the VIIRS day/night band (VNP46A1-style
// products): one grid of radiance values per satellite pass, on a regular
// lon/lat cell grid (EPSG:4326). Two tiles cover the Houston region per
// date, vertically adjacent on the same column grid, so a same-day mosaic
// stacks one tile on top of the other and the merged row count is exactly
// the sum of the inputs.
//
// # File Format
//
// Tiles are stored as Esri ASCII grids (.asc): a six-line header
// (ncols, nrows, xllcorner, yllcorner, cellsize, NODATA_value) followed by
// nrows lines of ncols space-separated values, listed north to south. The
// format carries no CRS of its own; the loader takes the CRS from
// configuration and stamps it on the Raster at construction.
//
// # Blackout Signal
//
// The outage signal is the per-cell difference post-storm minus pre-storm.
// Only sufficiently large negative drops count: every cell with a difference
// above the threshold (default -200) is set to nodata and discarded. The
// surviving cells are cropped to the Houston bounding box and vectorized
// into one square polygon per cell for the vector stages downstream.
//
// All types in this package are immutable after construction; every
// transform returns a new Raster.
package raster
