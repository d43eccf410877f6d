package tileset

import (
	"strings"
)

const (
	DefaultGeometryField = "geometry"
	DefaultMaxSize       = 512
	DefaultSRID          = "900913"
	DefaultSRS           = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 " +
		"+x_0=0.0 +y_0=0.0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs +over"
)

// LanguagesToken is replaced by one select expression per localized name
// field of the tileset.
const LanguagesToken = "{name_languages}"

// Requires lists what a layer needs besides its own query.
type Requires struct {
	Layers    []string
	Tables    []string
	Functions []string
	HelpText  string
}

// Schema is a named chunk of SQL that prepares the database for a layer.
type Schema struct {
	Name string
	SQL  string
}

// LayerDefinition is a decoded layer, before any tileset level settings are
// applied to it.
type LayerDefinition struct {
	ID                  string
	Description         string
	GeometryField       string
	KeyField            string
	KeyFieldAsAttribute bool
	SRS                 string
	SRID                string
	MaxSize             int
	BufferSize          *int
	MinBufferSize       *int
	Fields              []Field
	Query               string
	Requires            Requires
	Schemas             []Schema
}

// Layer is a validated layer of a tileset. Layers are built by New and must
// not be modified afterwards.
type Layer struct {
	ID            string
	Description   string
	GeometryField string
	KeyField      string
	SRS           string
	SRID          string
	MaxSize       int
	// BufferSize is the effective buffer in tile units after all overrides.
	BufferSize    int
	MinBufferSize int
	Fields        []Field
	Query         string
	Requires      Requires
	Schemas       []Schema

	languageFields []string
}

func newLayer(def LayerDefinition, defaults Defaults, languageFields []string, overrides []BufferOverride) (*Layer, error) {
	l := Layer{
		ID:            def.ID,
		Description:   strings.TrimSpace(def.Description),
		GeometryField: def.GeometryField,
		KeyField:      def.KeyField,
		SRS:           def.SRS,
		SRID:          def.SRID,
		MaxSize:       def.MaxSize,
		Fields:        def.Fields,
		Query:         def.Query,
		Requires:      def.Requires,
		Schemas:       def.Schemas,
	}
	if l.GeometryField == "" {
		l.GeometryField = DefaultGeometryField
	}
	if l.SRS == "" {
		l.SRS = defaults.SRS
	}
	if l.SRID == "" {
		l.SRID = defaults.SRID
	}
	if l.MaxSize == 0 {
		l.MaxSize = DefaultMaxSize
	}
	if strings.TrimSpace(l.Query) == "" {
		return nil, ErrMissingQuery{}
	}
	if def.KeyField != "" && def.KeyFieldAsAttribute {
		return nil, ErrKeyFieldAsAttribute{KeyField: def.KeyField}
	}

	seen := make(map[string]struct{}, len(l.Fields))
	for _, f := range l.Fields {
		if f.Name == l.GeometryField {
			return nil, ErrGeometryFieldDeclared{Field: f.Name}
		}
		if _, ok := seen[f.Name]; ok {
			return nil, ErrDuplicateField{Field: f.Name}
		}
		seen[f.Name] = struct{}{}
		if err := f.validate(); err != nil {
			return nil, err
		}
	}

	if def.BufferSize == nil {
		return nil, ErrBufferRequired{}
	}
	if def.MinBufferSize != nil && *def.BufferSize < *def.MinBufferSize {
		return nil, ErrBufferBelowMinimum{BufferSize: *def.BufferSize, MinBufferSize: *def.MinBufferSize}
	}
	sources := append([]BufferOverride{{
		Source:  SourceLayer,
		Size:    def.BufferSize,
		MinSize: def.MinBufferSize,
	}}, overrides...)
	size, err := ResolveBuffer(sources)
	if err != nil {
		return nil, err
	}
	l.BufferSize = size
	for _, src := range sources {
		if src.MinSize != nil {
			l.MinBufferSize = *src.MinSize
		}
	}

	if l.HasLocalizedNames() {
		l.languageFields = languageFields
	}
	return &l, nil
}

// HasLocalizedNames reports whether the query expands the language token.
func (l *Layer) HasLocalizedNames() bool {
	return strings.Contains(l.Query, LanguagesToken)
}

// FieldNames returns every attribute the layer's query produces apart from
// the geometry: the declared fields, the key field, and the localized name
// fields when the query uses them.
func (l *Layer) FieldNames() []string {
	names := make([]string, 0, len(l.Fields)+1+len(l.languageFields))
	hasKey := false
	for _, f := range l.Fields {
		names = append(names, f.Name)
		hasKey = hasKey || f.Name == l.KeyField
	}
	if l.KeyField != "" && !hasKey {
		names = append(names, l.KeyField)
	}
	return append(names, l.languageFields...)
}

func (l *Layer) String() string { return l.ID }
