// Package sqltomvt holds the constants shared by the tileset model, the
// MVT query compiler and the PostGIS provider.
package sqltomvt

import "github.com/go-spatial/geom"

const (
	WebMercator = 3857
	WGS84       = 4326
)

// DefaultExtent is the number of integer units along one edge of an MVT tile.
const DefaultExtent = 4096

// DefaultPixelScale is the rendered size of a tile edge in pixels.
const DefaultPixelScale = 256

// EarthCircumference is the equatorial circumference in meters that
// web mercator uses as the width of the world at zoom 0.
const EarthCircumference = 40075016.6855785

// MaxZoom is the deepest zoom level the compiler reasons about.
const MaxZoom = 22

var WGS84Bounds = geom.Extent{-180.0, -85.0511, 180.0, 85.0511}
