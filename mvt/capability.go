package mvt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atlasdatatech/sqltomvt"
)

// Version is a parsed PostGIS version. A pre-release build without a patch
// number, such as "3.1dev", has Patch -1 so it orders below "3.1.0".
type Version struct {
	Major int
	Minor int
	Patch int
}

var (
	// MinVersion is the first release with ST_AsMVT.
	MinVersion = Version{2, 4, 0}
	// TileEnvelopeVersion introduced ST_TileEnvelope and the feature id
	// argument of ST_AsMVT.
	TileEnvelopeVersion = Version{3, 0, 0}
	// DefaultVersion is assumed when no version was negotiated.
	DefaultVersion = TileEnvelopeVersion
)

func (v Version) String() string {
	if v.Patch < 0 {
		return fmt.Sprintf("%d.%d (pre-release)", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) IsZero() bool { return v == Version{} }

// Less reports whether v is an older version than o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

var (
	postgisFullVersionRe = regexp.MustCompile(`POSTGIS="([^"]*)"`)
	versionRe            = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d*))?(\S*)(?:\s.*)?$`)
)

// ParseVersion reads either the output of postgis_full_version() or a bare
// MAJOR.MINOR[.PATCH[suffix]] version string.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if m := postgisFullVersionRe.FindStringSubmatch(raw); m != nil {
		raw = strings.TrimSpace(m[1])
	}
	m := versionRe.FindStringSubmatch(raw)
	if m == nil {
		return Version{}, ErrVersion{Input: s}
	}

	var (
		v   Version
		err error
	)
	if v.Major, err = strconv.Atoi(m[1]); err != nil {
		return Version{}, ErrVersion{Input: s}
	}
	if v.Minor, err = strconv.Atoi(m[2]); err != nil {
		return Version{}, ErrVersion{Input: s}
	}
	switch patch, suffix := m[3], m[4]; {
	case patch != "":
		if v.Patch, err = strconv.Atoi(patch); err != nil {
			return Version{}, ErrVersion{Input: s}
		}
	case suffix != "":
		v.Patch = -1
	}
	return v, nil
}

// Capability is the SQL dialect selected for one database version. It is a
// function of the version alone.
type Capability struct {
	Version      Version
	TileEnvelope bool
	FeatureIDs   bool
}

// CapabilityFor returns the capability of v. Versions without ST_AsMVT are
// rejected.
func CapabilityFor(v Version) (Capability, error) {
	if v.Less(MinVersion) {
		return Capability{}, ErrCapability{Feature: "ST_AsMVT", Version: v}
	}
	modern := !v.Less(TileEnvelopeVersion)
	return Capability{
		Version:      v,
		TileEnvelope: modern,
		FeatureIDs:   modern,
	}, nil
}

// TileBBox returns the expression for the web mercator envelope of a tile.
func (c Capability) TileBBox(co Coords) string {
	if c.TileEnvelope {
		return fmt.Sprintf("ST_TileEnvelope(%v, %v, %v)", co.Zoom, co.X, co.Y)
	}
	return fmt.Sprintf("TileBBox(%v, %v, %v, %v)", co.Zoom, co.X, co.Y, sqltomvt.WebMercator)
}

// AsMVT returns the ST_AsMVT call that aggregates row into one named layer.
// featureID is ignored when the version has no feature id argument.
func (c Capability) AsMVT(row, layer string, extent int, geomColumn, featureID string) string {
	args := []string{row, quoteLiteral(layer), strconv.Itoa(extent), quoteLiteral(geomColumn)}
	if featureID != "" && c.FeatureIDs {
		args = append(args, quoteLiteral(featureID))
	}
	return "ST_AsMVT(" + strings.Join(args, ", ") + ")"
}

// FeatureIDMode selects whether MVT feature ids are taken from key fields.
type FeatureIDMode uint8

const (
	// FeatureIDAuto uses key fields as feature ids when the version allows it.
	FeatureIDAuto FeatureIDMode = iota
	// FeatureIDOn fails compilation when the version cannot emit feature ids.
	FeatureIDOn
	FeatureIDOff
)

func quoteLiteral(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}
