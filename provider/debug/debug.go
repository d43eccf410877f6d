// Package debug provides layers that are helpful for debugging a tile: the
// outline of the tile including its buffer and a point in the middle of the
// tile labelled with its zoom.
package debug

import (
	"github.com/atlasdatatech/sqltomvt/tileset"
)

const Name = "debug"

const (
	LayerDebugTileOutline = "debug-tile-outline"
	LayerDebugTileCenter  = "debug-tile-center"
)

// BufferSize of the debug layers in tile units.
const BufferSize = 64

// Layers returns the definitions of the debug layers. They use only PostGIS
// functions and can be appended to any tileset.
func Layers() []tileset.LayerDefinition {
	buffer := BufferSize
	return []tileset.LayerDefinition{
		{
			ID:          LayerDebugTileOutline,
			Description: "Outline of the tile including the buffer.",
			BufferSize:  &buffer,
			Fields:      []tileset.Field{{Name: "type"}},
			Query:       "SELECT geometry, type FROM (VALUES (ST_Boundary(!bbox!), 'debug_buffer_outline'::text)) AS t(\"geometry\", type)",
		},
		{
			ID:          LayerDebugTileCenter,
			Description: "Center of the tile with its zoom.",
			BufferSize:  &buffer,
			Fields:      []tileset.Field{{Name: "type"}, {Name: "zoom"}},
			Query:       "SELECT geometry, type, zoom FROM (VALUES (ST_Centroid(!bbox!), 'debug_text'::text, z(!scale_denominator!)::int4)) AS t(\"geometry\", type, zoom)",
		},
	}
}
