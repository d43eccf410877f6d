// Package config loads tileset and layer definitions written in TOML.
//
// A tileset file lists its layers by the path of their layer file, relative
// to the tileset file. A layer file lists its schema SQL files relative to
// the layer file.
package config

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/atlasdatatech/sqltomvt/internal/log"
)

// Tileset is the [tileset] table of a tileset file.
type Tileset struct {
	ID          string         `toml:"id"`
	Name        string         `toml:"name"`
	Version     string         `toml:"version"`
	Description string         `toml:"description"`
	Attribution string         `toml:"attribution"`
	Center      []float64      `toml:"center"`
	Bounds      []float64      `toml:"bounds"`
	MinZoom     *uint          `toml:"minzoom"`
	MaxZoom     *uint          `toml:"maxzoom"`
	PixelScale  int            `toml:"pixel_scale"`
	Languages   []string       `toml:"languages"`
	Defaults    Defaults       `toml:"defaults"`
	Overrides   Overrides      `toml:"overrides"`
	Layers      []TilesetLayer `toml:"layers"`

	// Path of the file the tileset was read from.
	Path string `toml:"-"`
}

type Defaults struct {
	SRS  string `toml:"srs"`
	SRID string `toml:"srid"`
}

// Overrides replace the buffer settings of layers.
type Overrides struct {
	BufferSize    *int `toml:"buffer_size"`
	MinBufferSize *int `toml:"min_buffer_size"`
}

// TilesetLayer references a layer file and the overrides applied to it.
type TilesetLayer struct {
	File string `toml:"file"`
	Overrides

	// Layer is read from File by LoadTileset.
	Layer *LayerFile `toml:"-"`
}

// LayerFile is the content of a layer file.
type LayerFile struct {
	Layer  Layer    `toml:"layer"`
	Schema []string `toml:"schema"`

	// Schemas are the files of Schema, read by LoadLayer.
	Schemas []SchemaFile `toml:"-"`
	Path    string       `toml:"-"`
}

type SchemaFile struct {
	Name string
	SQL  string
}

type Layer struct {
	ID            string     `toml:"id"`
	Description   string     `toml:"description"`
	BufferSize    *int       `toml:"buffer_size"`
	MinBufferSize *int       `toml:"min_buffer_size"`
	MaxSize       int        `toml:"max_size"`
	SRS           string     `toml:"srs"`
	Fields        []Field    `toml:"fields"`
	Datasource    Datasource `toml:"datasource"`
	Requires      Requires   `toml:"requires"`
}

type Datasource struct {
	GeometryField       string `toml:"geometry_field"`
	KeyField            string `toml:"key_field"`
	KeyFieldAsAttribute bool   `toml:"key_field_as_attribute"`
	SRID                string `toml:"srid"`
	Query               string `toml:"query"`
}

type Requires struct {
	Layers    []string `toml:"layers"`
	Tables    []string `toml:"tables"`
	Functions []string `toml:"functions"`
	HelpText  string   `toml:"help_text"`
}

type Field struct {
	Name        string       `toml:"name"`
	Description string       `toml:"description"`
	Values      []FieldValue `toml:"values"`
}

// FieldValue is a value of a field. When, if set, is the condition over
// input fields that selects the value, e.g.
//	when = { subclass = ["river", "canal"], __AND__ = { brunnel = "bridge" } }
type FieldValue struct {
	Value       string                 `toml:"value"`
	Description string                 `toml:"description"`
	When        map[string]interface{} `toml:"when"`
}

type tilesetFile struct {
	Tileset Tileset `toml:"tileset"`
}

// LoadTileset reads the tileset file at path and every layer file it
// references.
func LoadTileset(path string) (*Tileset, error) {
	var f tilesetFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading tileset %v", path)
	}
	warnUndecoded(path, md)

	ts := f.Tileset
	ts.Path = path
	dir := filepath.Dir(path)
	for i := range ts.Layers {
		if ts.Layers[i].File == "" {
			return nil, ErrMissingLayerFile{Tileset: path, Index: i}
		}
		layer, err := LoadLayer(filepath.Join(dir, ts.Layers[i].File))
		if err != nil {
			return nil, err
		}
		ts.Layers[i].Layer = layer
	}
	return &ts, nil
}

// LoadLayer reads the layer file at path and its schema files.
func LoadLayer(path string) (*LayerFile, error) {
	var lf LayerFile
	md, err := toml.DecodeFile(path, &lf)
	if err != nil {
		return nil, errors.Wrapf(err, "reading layer %v", path)
	}
	warnUndecoded(path, md)
	lf.Path = path

	dir := filepath.Dir(path)
	for _, name := range lf.Schema {
		sql, err := ioutil.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading schema of layer %v", lf.Layer.ID)
		}
		lf.Schemas = append(lf.Schemas, SchemaFile{Name: name, SQL: string(sql)})
	}
	return &lf, nil
}

func warnUndecoded(path string, md toml.MetaData) {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return
	}
	names := make([]string, len(keys))
	for i := range keys {
		names[i] = keys[i].String()
	}
	log.Warnf("%v: ignoring unknown keys [%v]", path, strings.Join(names, ", "))
}
