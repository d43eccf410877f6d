// Package tileset models a set of independently authored vector tile layers
// and the settings shared between them. A Tileset is built once from an
// already decoded Definition and is read-only afterwards.
package tileset

import (
	"strings"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/sqltomvt"
)

// AutoLanguageFields are always appended after the configured languages.
var AutoLanguageFields = []string{"name_int", "name:latin", "name:nonlatin"}

type Defaults struct {
	SRS  string
	SRID string
}

// LayerEntry is one element of the tileset's layer list: the layer itself and
// the overrides the tileset applies to it.
type LayerEntry struct {
	Layer     LayerDefinition
	Overrides Overrides
}

// Definition is the decoded form of a tileset.
type Definition struct {
	ID          string
	Name        string
	Description string
	Attribution string
	Version     string
	Bounds      geom.Extent
	Center      [3]float64
	MinZoom     uint
	MaxZoom     uint
	PixelScale  int
	Languages   []string
	Defaults    Defaults
	Overrides   Overrides
	Layers      []LayerEntry
}

type Tileset struct {
	ID          string
	Name        string
	Description string
	Attribution string
	Version     string
	Bounds      geom.Extent
	Center      [3]float64
	MinZoom     uint
	MaxZoom     uint
	PixelScale  int
	Languages   []string
	Defaults    Defaults
	// Layers are in definition order and already dependency checked.
	Layers []*Layer

	layersByID map[string]*Layer
}

// New validates def and builds the tileset. getenv supplies the external
// overrides (see EnvBufferSize); it may be nil.
func New(def Definition, getenv func(string) string) (*Tileset, error) {
	ts := Tileset{
		ID:          def.ID,
		Name:        def.Name,
		Description: strings.TrimSpace(def.Description),
		Attribution: def.Attribution,
		Version:     def.Version,
		Bounds:      def.Bounds,
		Center:      def.Center,
		MinZoom:     def.MinZoom,
		MaxZoom:     def.MaxZoom,
		PixelScale:  def.PixelScale,
		Languages:   dedupe(def.Languages),
		Defaults:    def.Defaults,
		layersByID:  make(map[string]*Layer, len(def.Layers)),
	}
	if ts.PixelScale == 0 {
		ts.PixelScale = sqltomvt.DefaultPixelScale
	}
	if ts.Defaults.SRS == "" {
		ts.Defaults.SRS = DefaultSRS
	}
	if ts.Defaults.SRID == "" {
		ts.Defaults.SRID = DefaultSRID
	}

	env, err := EnvOverride(getenv)
	if err != nil {
		return nil, err
	}
	languageFields := ts.LanguageFields()

	for i, entry := range def.Layers {
		id := entry.Layer.ID
		if id == "" {
			return nil, ErrMissingLayerID{Index: i}
		}
		if _, ok := ts.layersByID[id]; ok {
			return nil, ErrDuplicateLayer{Layer: id}
		}

		overrides := []BufferOverride{
			def.Overrides.source(SourceTileset),
			entry.Overrides.source(SourceTilesetLayer),
			env,
		}
		layer, err := newLayer(entry.Layer, ts.Defaults, languageFields, overrides)
		if err != nil {
			return nil, ErrInvalidLayer{Layer: id, Err: err}
		}
		ts.Layers = append(ts.Layers, layer)
		ts.layersByID[id] = layer
	}

	if _, err := Resolve(ts.Layers); err != nil {
		return nil, err
	}
	return &ts, nil
}

// Layer returns the layer with the given id.
func (ts *Tileset) Layer(id string) (*Layer, bool) {
	l, ok := ts.layersByID[id]
	return l, ok
}

// LayerIDs returns the ids of all layers in tileset order.
func (ts *Tileset) LayerIDs() []string {
	ids := make([]string, len(ts.Layers))
	for i := range ts.Layers {
		ids[i] = ts.Layers[i].ID
	}
	return ids
}

// LanguageFields returns the localized name fields, "name:<code>" for every
// configured language followed by AutoLanguageFields.
func (ts *Tileset) LanguageFields() []string {
	fields := make([]string, 0, len(ts.Languages)+len(AutoLanguageFields))
	for _, lang := range ts.Languages {
		fields = append(fields, "name:"+lang)
	}
	return append(fields, AutoLanguageFields...)
}

// LanguageSQLFields renders LanguageFields as select expressions over the
// tags hstore column.
func (ts *Tileset) LanguageSQLFields() []string {
	return TagFieldsSQL(ts.LanguageFields())
}

// TagFieldsSQL converts hstore tag names into select expressions, e.g.
//	name:en  =>  NULLIF(tags->'name:en', '') AS "name:en"
func TagFieldsSQL(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = "NULLIF(tags->" + quoteLiteral(f) + ", '') AS " + quoteIdent(f)
	}
	return out
}

func (ts *Tileset) String() string { return ts.Name }

func dedupe(vals []string) []string {
	if vals == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
