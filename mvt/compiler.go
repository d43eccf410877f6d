// Package mvt compiles a tileset into a single PostGIS query that renders a
// Mapbox Vector Tile for any zoom, x and y.
//
// The compiler performs no I/O. A Compiler is immutable once built and may be
// used from several goroutines; compiling the same tileset with the same
// options always yields the same query text.
package mvt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/atlasdatatech/sqltomvt"
	"github.com/atlasdatatech/sqltomvt/tileset"
)

// mvtGeomColumn is the column holding the tile-space geometry of a feature.
const mvtGeomColumn = "mvtgeometry"

// layerIndexColumn orders the layer blobs of a tile.
const layerIndexColumn = "idx"

// Options control what the compiled query selects and returns.
type Options struct {
	// Layers restricts the query to these layer ids. Every id must exist.
	Layers []string
	// ExcludeLayers drops these layer ids. Every id must exist. It can not
	// be combined with Layers.
	ExcludeLayers []string
	// Extent is the tile extent, DefaultExtent when zero.
	Extent int
	// KeyColumn adds an md5 of the tile as a second column named key.
	KeyColumn bool
	// BadGeometryCount adds the number of invalid tile geometries as a
	// column named badgeos.
	BadGeometryCount bool
	Gzip             Gzip
	FeatureIDs       FeatureIDMode
	// MaskLayer names a selected layer, usually water, that may cover a
	// whole tile. Above MaskZoom a tile holding nothing but a fully covering
	// mask layer yields no row at all.
	MaskLayer string
	MaskZoom  uint
	// Version of PostGIS to generate SQL for; DefaultVersion when zero.
	Version Version
}

type compiledLayer struct {
	layer *tileset.Layer
	tmpl  *Template
}

type Compiler struct {
	ts         *tileset.Tileset
	extent     int
	keyColumn  bool
	badGeos    bool
	gzip       Gzip
	featureIDs bool
	capability Capability
	languages  string
	maskLayer  string
	maskZoom   uint
	layers     []compiledLayer
}

// NewCompiler selects the layers, negotiates the SQL dialect and parses
// every selected layer's query template.
func NewCompiler(ts *tileset.Tileset, opts Options) (*Compiler, error) {
	if ts == nil {
		return nil, ErrInvalidOption{Option: "tileset", Reason: "tileset is required"}
	}

	version := opts.Version
	if version.IsZero() {
		version = DefaultVersion
	}
	capability, err := CapabilityFor(version)
	if err != nil {
		return nil, err
	}

	c := Compiler{
		ts:         ts,
		extent:     opts.Extent,
		keyColumn:  opts.KeyColumn,
		badGeos:    opts.BadGeometryCount,
		gzip:       opts.Gzip,
		capability: capability,
		languages:  strings.Join(ts.LanguageSQLFields(), ", "),
		maskLayer:  opts.MaskLayer,
		maskZoom:   opts.MaskZoom,
	}
	if c.extent == 0 {
		c.extent = sqltomvt.DefaultExtent
	}
	if c.extent < 0 {
		return nil, ErrInvalidOption{Option: "extent", Reason: fmt.Sprintf("%v is not positive", c.extent)}
	}
	if err := c.gzip.validate(); err != nil {
		return nil, err
	}

	switch opts.FeatureIDs {
	case FeatureIDAuto:
		c.featureIDs = capability.FeatureIDs
	case FeatureIDOn:
		if !capability.FeatureIDs {
			return nil, ErrCapability{Feature: "MVT feature ids", Version: version}
		}
		c.featureIDs = true
	case FeatureIDOff:
	default:
		return nil, ErrInvalidOption{Option: "feature ids", Reason: fmt.Sprintf("unknown mode %v", opts.FeatureIDs)}
	}

	layers, err := selectLayers(ts, opts.Layers, opts.ExcludeLayers)
	if err != nil {
		return nil, err
	}
	for _, l := range layers {
		tmpl, err := ParseTemplate(l.Query, l.GeometryField)
		if err != nil {
			if e, ok := err.(ErrTemplate); ok {
				e.Layer = l.ID
				return nil, e
			}
			return nil, err
		}
		c.layers = append(c.layers, compiledLayer{layer: l, tmpl: tmpl})
	}
	if c.maskLayer != "" {
		if _, err := c.find(c.maskLayer); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func selectLayers(ts *tileset.Tileset, include, exclude []string) ([]*tileset.Layer, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, ErrInvalidOption{Option: "layers", Reason: "can not both include and exclude layers"}
	}

	known := make(map[string]struct{}, len(ts.Layers))
	for _, l := range ts.Layers {
		if _, ok := known[l.ID]; ok {
			return nil, tileset.ErrDuplicateLayer{Layer: l.ID}
		}
		known[l.ID] = struct{}{}
	}

	requested := include
	if len(exclude) > 0 {
		requested = exclude
	}
	set := make(map[string]struct{}, len(requested))
	var unknown []string
	for _, id := range requested {
		if _, ok := set[id]; ok {
			continue
		}
		set[id] = struct{}{}
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, ErrUnknownLayers{Layers: unknown, Available: ts.LayerIDs()}
	}

	var layers []*tileset.Layer
	for _, l := range ts.Layers {
		_, listed := set[l.ID]
		switch {
		case len(include) > 0 && !listed:
			continue
		case len(exclude) > 0 && listed:
			continue
		}
		layers = append(layers, l)
	}
	if len(layers) == 0 {
		return nil, ErrNoLayers{}
	}
	return layers, nil
}

// Capability returns the negotiated SQL dialect.
func (c *Compiler) Capability() Capability { return c.capability }

func (c *Compiler) Tileset() *tileset.Tileset { return c.ts }

// Layers returns the selected layers in tileset order.
func (c *Compiler) Layers() []*tileset.Layer {
	layers := make([]*tileset.Layer, len(c.layers))
	for i := range c.layers {
		layers[i] = c.layers[i].layer
	}
	return layers
}

func (c *Compiler) layerIDs() []string {
	ids := make([]string, len(c.layers))
	for i := range c.layers {
		ids[i] = c.layers[i].layer.ID
	}
	return ids
}

func (c *Compiler) find(id string) (compiledLayer, error) {
	for _, cl := range c.layers {
		if cl.layer.ID == id {
			return cl, nil
		}
	}
	return compiledLayer{}, ErrUnknownLayers{Layers: []string{id}, Available: c.layerIDs()}
}

// Query compiles the tile query for the given coordinate expressions.
func (c *Compiler) Query(co Coords) (*Query, error) {
	if err := co.validate(); err != nil {
		return nil, err
	}

	parts := make([]string, len(c.layers))
	for i, cl := range c.layers {
		parts[i] = c.layerSQL(cl, co, i)
	}

	// union branches may arrive in any order
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(c.gzip.wrap("COALESCE(STRING_AGG(mvtl, '' ORDER BY " + layerIndexColumn + "), '')"))
	b.WriteString(" AS mvt")
	if c.badGeos {
		b.WriteString(", COALESCE(SUM(badgeos), 0) AS badgeos")
	}
	b.WriteString(" FROM (\n")
	if c.maskLayer != "" {
		b.WriteString("SELECT " + layerIndexColumn + ", isempty, count(*) OVER () AS layercount, mvtl")
		if c.badGeos {
			b.WriteString(", badgeos")
		}
		b.WriteString(" FROM (\n")
	}
	b.WriteString("  ")
	b.WriteString(strings.Join(parts, "\n    UNION ALL\n  "))
	b.WriteString("\n) AS all_layers")
	if c.maskLayer != "" {
		b.WriteString("\n) AS counter_layers\nHAVING BOOL_AND(NOT isempty OR layercount <> 1)")
	}

	sql := b.String()
	if c.keyColumn {
		cols := "mvt, md5(mvt) AS key"
		if c.badGeos {
			cols += ", badgeos"
		}
		sql = "SELECT " + cols + " FROM (" + sql + "\n) AS mvt_data"
	}

	return &Query{
		SQL:                 sql,
		Coords:              co,
		Layers:              c.layerIDs(),
		HasKey:              c.keyColumn,
		HasBadGeometryCount: c.badGeos,
		Masked:              c.maskLayer != "",
		Gzip:                c.gzip,
	}, nil
}

// LayerQuery returns the query producing the MVT layer blob of a single
// selected layer. It returns no row when the layer has no features in the
// tile.
func (c *Compiler) LayerQuery(id string, co Coords) (string, error) {
	if err := co.validate(); err != nil {
		return "", err
	}
	cl, err := c.find(id)
	if err != nil {
		return "", err
	}
	return c.layerSQL(cl, co, -1), nil
}

func (c *Compiler) bindings(l *tileset.Layer, co Coords) Bindings {
	pixels := strconv.Itoa(c.ts.PixelScale)
	return Bindings{
		BBox:        ExpandBBox(c.capability.TileBBox(co), co.Zoom, l.BufferSize, c.extent),
		Zoom:        co.Zoom,
		PixelWidth:  pixels,
		PixelHeight: pixels,
		Languages:   c.languages,
	}
}

// layerSQL renders the query of one layer. A non negative index is selected
// as the layer's position in the tile.
func (c *Compiler) layerSQL(cl compiledLayer, co Coords, index int) string {
	l := cl.layer
	tileBBox := c.capability.TileBBox(co)

	b := c.bindings(l, co)
	b.Geometry = func(ref string) string {
		return fmt.Sprintf("ST_AsMVTGeom(%v, %v, %v, %v, true) AS %v", ref, tileBBox, c.extent, l.BufferSize, mvtGeomColumn)
	}
	body := cl.tmpl.Render(b)

	featureID := ""
	if c.featureIDs {
		featureID = l.KeyField
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if index >= 0 {
		fmt.Fprintf(&sb, "%v AS %v, ", index, layerIndexColumn)
	}
	switch {
	case c.maskLayer == "":
	case c.maskLayer == l.ID:
		// tile space polygon of the whole tile
		ext := c.extent
		fmt.Fprintf(&sb, "CASE %v <= %v WHEN TRUE THEN FALSE ELSE ST_Within(ST_GeomFromText('POLYGON((0 %v,0 0,%v 0,%v %v,0 %v))', %v), ST_Union(%v)) END AS isempty, ",
			co.Zoom, c.maskZoom, ext, ext, ext, ext, ext, sqltomvt.WebMercator, mvtGeomColumn)
	default:
		sb.WriteString("FALSE AS isempty, ")
	}
	if c.badGeos {
		fmt.Fprintf(&sb, "COUNT(*) FILTER (WHERE NOT ST_IsValid(%v)) AS badgeos, ", mvtGeomColumn)
	}
	fmt.Fprintf(&sb, "%v AS mvtl FROM (%v) AS tile WHERE %v IS NOT NULL HAVING COUNT(*) > 0",
		c.capability.AsMVT("tile", l.ID, c.extent, mvtGeomColumn, featureID), body, mvtGeomColumn)
	return sb.String()
}

// ProbeQuery returns the layer's query bound to tile 0/0/0 with the geometry
// left untouched, filtered so it returns no rows. Running it reveals the
// columns the layer produces.
func (c *Compiler) ProbeQuery(id string) (string, error) {
	cl, err := c.find(id)
	if err != nil {
		return "", err
	}
	body := cl.tmpl.Render(c.bindings(cl.layer, Coords{Zoom: "0", X: "0", Y: "0"}))
	return "SELECT * FROM (" + body + ") AS t WHERE false", nil
}
