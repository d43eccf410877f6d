package register

import (
	"html"
	"path/filepath"

	"github.com/go-spatial/geom"

	"github.com/atlasdatatech/sqltomvt"
	"github.com/atlasdatatech/sqltomvt/config"
	"github.com/atlasdatatech/sqltomvt/tileset"
)

// DefaultMaxZoom is used when a tileset does not set maxzoom.
const DefaultMaxZoom = 14

func definitionFromConfigTileset(cfg *config.Tileset) (def tileset.Definition, err error) {
	def = tileset.Definition{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Description: cfg.Description,
		Attribution: html.EscapeString(cfg.Attribution),
		Version:     cfg.Version,
		Bounds:      sqltomvt.WGS84Bounds,
		MaxZoom:     DefaultMaxZoom,
		PixelScale:  cfg.PixelScale,
		Languages:   cfg.Languages,
		Defaults: tileset.Defaults{
			SRS:  cfg.Defaults.SRS,
			SRID: cfg.Defaults.SRID,
		},
		Overrides: tileset.Overrides{
			BufferSize:    cfg.Overrides.BufferSize,
			MinBufferSize: cfg.Overrides.MinBufferSize,
		},
	}

	switch len(cfg.Center) {
	case 0:
	case 3:
		copy(def.Center[:], cfg.Center)
	default:
		return def, ErrInvalidCenter{Center: cfg.Center}
	}

	switch len(cfg.Bounds) {
	case 0:
	case 4:
		def.Bounds = *geom.NewExtent(
			[2]float64{cfg.Bounds[0], cfg.Bounds[1]},
			[2]float64{cfg.Bounds[2], cfg.Bounds[3]},
		)
	default:
		return def, ErrInvalidBounds{Bounds: cfg.Bounds}
	}

	if cfg.MinZoom != nil {
		def.MinZoom = *cfg.MinZoom
	}
	if cfg.MaxZoom != nil {
		def.MaxZoom = *cfg.MaxZoom
	}
	if def.MaxZoom > sqltomvt.MaxZoom || def.MinZoom > def.MaxZoom {
		return def, ErrInvalidZoom{MinZoom: def.MinZoom, MaxZoom: def.MaxZoom}
	}
	return def, nil
}

func layerFromConfigLayer(lf *config.LayerFile) (def tileset.LayerDefinition, err error) {
	cfg := lf.Layer
	def = tileset.LayerDefinition{
		ID:                  cfg.ID,
		Description:         cfg.Description,
		GeometryField:       cfg.Datasource.GeometryField,
		KeyField:            cfg.Datasource.KeyField,
		KeyFieldAsAttribute: cfg.Datasource.KeyFieldAsAttribute,
		SRS:                 cfg.SRS,
		SRID:                cfg.Datasource.SRID,
		MaxSize:             cfg.MaxSize,
		BufferSize:          cfg.BufferSize,
		MinBufferSize:       cfg.MinBufferSize,
		Query:               cfg.Datasource.Query,
		Requires: tileset.Requires{
			Layers:    cfg.Requires.Layers,
			Tables:    cfg.Requires.Tables,
			Functions: cfg.Requires.Functions,
			HelpText:  cfg.Requires.HelpText,
		},
	}

	for _, f := range cfg.Fields {
		field := tileset.Field{
			Name:        f.Name,
			Description: f.Description,
		}
		if f.Values != nil {
			field.Values = make([]tileset.FieldValue, 0, len(f.Values))
		}
		for _, v := range f.Values {
			fv := tileset.FieldValue{Value: v.Value}
			if v.When != nil {
				if fv.When, err = tileset.ParseCondition(v.When); err != nil {
					return def, ErrInvalidField{Layer: cfg.ID, Field: f.Name, Err: err}
				}
			}
			field.Values = append(field.Values, fv)
		}
		def.Fields = append(def.Fields, field)
	}

	for _, s := range lf.Schemas {
		def.Schemas = append(def.Schemas, tileset.Schema{
			Name: filepath.Base(s.Name),
			SQL:  s.SQL,
		})
	}
	return def, nil
}

// Tileset converts a loaded tileset file into a tileset definition.
func Tileset(cfg *config.Tileset) (tileset.Definition, error) {
	def, err := definitionFromConfigTileset(cfg)
	if err != nil {
		return def, err
	}

	for i, l := range cfg.Layers {
		if l.Layer == nil {
			return def, ErrLayerNotLoaded{File: l.File}
		}
		layer, err := layerFromConfigLayer(l.Layer)
		if err != nil {
			return def, err
		}
		if layer.ID == "" {
			return def, ErrLayerMissingID{File: l.File, Index: i}
		}
		def.Layers = append(def.Layers, tileset.LayerEntry{
			Layer: layer,
			Overrides: tileset.Overrides{
				BufferSize:    l.BufferSize,
				MinBufferSize: l.MinBufferSize,
			},
		})
	}
	return def, nil
}
