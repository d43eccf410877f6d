package mvt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/atlasdatatech/sqltomvt"
)

// GroundBuffer converts a buffer in tile units into meters at the given zoom.
func GroundBuffer(zoom uint, buffer, extent int) float64 {
	return (sqltomvt.EarthCircumference * float64(buffer) / float64(extent)) / math.Pow(2, float64(zoom))
}

// ExpandBBox grows the bbox expression by buffer tile units. zoom is an SQL
// expression; when it is an integer literal the distance is computed here.
// A zero buffer returns bbox unchanged.
func ExpandBBox(bbox, zoom string, buffer, extent int) string {
	if buffer == 0 {
		return bbox
	}
	if z, err := strconv.ParseUint(strings.TrimSpace(zoom), 10, 8); err == nil && z <= sqltomvt.MaxZoom {
		return fmt.Sprintf("ST_Expand(%v, %v)", bbox, formatFloat(GroundBuffer(uint(z), buffer, extent)))
	}
	base := sqltomvt.EarthCircumference * float64(buffer) / float64(extent)
	return fmt.Sprintf("ST_Expand(%v, %v/power(2, %v))", bbox, formatFloat(base), zoom)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
