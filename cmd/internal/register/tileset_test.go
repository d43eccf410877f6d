package register_test

import (
	"reflect"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/go-test/deep"

	"github.com/atlasdatatech/sqltomvt"
	"github.com/atlasdatatech/sqltomvt/cmd/internal/register"
	"github.com/atlasdatatech/sqltomvt/config"
	"github.com/atlasdatatech/sqltomvt/tileset"
)

func uintp(u uint) *uint { return &u }
func intp(i int) *int    { return &i }

func testLayerFile(id string) *config.LayerFile {
	return &config.LayerFile{
		Layer: config.Layer{
			ID:         id,
			BufferSize: intp(4),
			Datasource: config.Datasource{
				Query: "SELECT geometry FROM layer_" + id + "(!bbox!, z(!scale_denominator!))",
			},
		},
	}
}

func TestTileset(t *testing.T) {
	water := testLayerFile("water")
	water.Layer.Fields = []config.Field{
		{
			Name: "class",
			Values: []config.FieldValue{
				{Value: "ocean", When: map[string]interface{}{"water": []interface{}{"ocean", "sea"}}},
				{Value: "lake"},
			},
		},
	}
	water.Schemas = []config.SchemaFile{{Name: "sql/water.sql", SQL: "SELECT 1;"}}

	cfg := &config.Tileset{
		ID:          "test",
		Name:        "Test",
		Attribution: "<b>me</b>",
		Center:      []float64{1, 2, 3},
		Bounds:      []float64{-10, -20, 10, 20},
		MaxZoom:     uintp(12),
		Overrides:   config.Overrides{MinBufferSize: intp(2)},
		Layers: []config.TilesetLayer{
			{File: "water.toml", Layer: water, Overrides: config.Overrides{BufferSize: intp(8)}},
		},
	}

	def, err := register.Tileset(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := tileset.Definition{
		ID:          "test",
		Name:        "Test",
		Attribution: "&lt;b&gt;me&lt;/b&gt;",
		Center:      [3]float64{1, 2, 3},
		Bounds:      geom.Extent{-10, -20, 10, 20},
		MaxZoom:     12,
		Overrides:   tileset.Overrides{MinBufferSize: intp(2)},
		Layers: []tileset.LayerEntry{
			{
				Layer: tileset.LayerDefinition{
					ID:         "water",
					BufferSize: intp(4),
					Query:      "SELECT geometry FROM layer_water(!bbox!, z(!scale_denominator!))",
					Fields: []tileset.Field{
						{
							Name: "class",
							Values: []tileset.FieldValue{
								{
									Value: "ocean",
									When:  &tileset.Condition{Op: tileset.CondIn, Field: "water", Values: []string{"ocean", "sea"}},
								},
								{Value: "lake"},
							},
						},
					},
					Schemas: []tileset.Schema{{Name: "water.sql", SQL: "SELECT 1;"}},
				},
				Overrides: tileset.Overrides{BufferSize: intp(8)},
			},
		},
	}
	if diff := deep.Equal(def, expected); diff != nil {
		t.Errorf("definition: %v", diff)
	}

	if _, err := tileset.New(def, nil); err != nil {
		t.Errorf("unable to build tileset: %v", err)
	}
}

func TestTilesetDefaults(t *testing.T) {
	def, err := register.Tileset(&config.Tileset{ID: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Bounds != sqltomvt.WGS84Bounds {
		t.Errorf("bounds, expected %v got %v", sqltomvt.WGS84Bounds, def.Bounds)
	}
	if def.MinZoom != 0 || def.MaxZoom != register.DefaultMaxZoom {
		t.Errorf("zoom, expected 0-%v got %v-%v", register.DefaultMaxZoom, def.MinZoom, def.MaxZoom)
	}
}

func TestTilesetErrors(t *testing.T) {
	badValues := testLayerFile("bad")
	badValues.Layer.Fields = []config.Field{
		{Name: "class", Values: []config.FieldValue{{Value: "x", When: map[string]interface{}{"a": 1}}}},
	}

	tests := map[string]struct {
		cfg config.Tileset
		err error
	}{
		"center": {
			cfg: config.Tileset{Center: []float64{1, 2}},
			err: register.ErrInvalidCenter{Center: []float64{1, 2}},
		},
		"bounds": {
			cfg: config.Tileset{Bounds: []float64{1, 2, 3}},
			err: register.ErrInvalidBounds{Bounds: []float64{1, 2, 3}},
		},
		"maxzoom": {
			cfg: config.Tileset{MaxZoom: uintp(30)},
			err: register.ErrInvalidZoom{MinZoom: 0, MaxZoom: 30},
		},
		"minzoom above maxzoom": {
			cfg: config.Tileset{MinZoom: uintp(10), MaxZoom: uintp(5)},
			err: register.ErrInvalidZoom{MinZoom: 10, MaxZoom: 5},
		},
		"layer not loaded": {
			cfg: config.Tileset{Layers: []config.TilesetLayer{{File: "a.toml"}}},
			err: register.ErrLayerNotLoaded{File: "a.toml"},
		},
		"layer without id": {
			cfg: config.Tileset{Layers: []config.TilesetLayer{{File: "a.toml", Layer: testLayerFile("")}}},
			err: register.ErrLayerMissingID{File: "a.toml", Index: 0},
		},
		"field values": {
			cfg: config.Tileset{Layers: []config.TilesetLayer{{File: "bad.toml", Layer: badValues}}},
			err: register.ErrInvalidField{
				Layer: "bad",
				Field: "class",
				Err:   tileset.ErrInvalidCondition{Field: "a", Reason: "unsupported condition value type int"},
			},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			_, err := register.Tileset(&tc.cfg)
			if !reflect.DeepEqual(err, tc.err) {
				t.Errorf("error, expected %v got %v", tc.err, err)
			}
		})
	}
}

func TestTilesetFromFile(t *testing.T) {
	cfg, err := config.LoadTileset("../../../config/testdata/tileset.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, err := register.Tileset(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts, err := tileset.New(def, nil)
	if err != nil {
		t.Fatalf("unable to build tileset: %v", err)
	}
	if diff := deep.Equal(ts.LayerIDs(), []string{"water", "place"}); diff != nil {
		t.Errorf("layer ids: %v", diff)
	}
	place, _ := ts.Layer("place")
	// the tileset minimum replaces the layer's own
	if place.BufferSize != 128 || place.MinBufferSize != 2 {
		t.Errorf("place buffer, expected 128/2 got %v/%v", place.BufferSize, place.MinBufferSize)
	}
	water, _ := ts.Layer("water")
	if water.BufferSize != 4 || water.MinBufferSize != 2 {
		t.Errorf("water buffer, expected 4/2 got %v/%v", water.BufferSize, water.MinBufferSize)
	}
}
