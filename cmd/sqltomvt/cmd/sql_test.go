package cmd

import (
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/spf13/viper"

	"github.com/atlasdatatech/sqltomvt/mvt"
)

func TestRender(t *testing.T) {
	tilesetFile = "../../../config/testdata/tileset.toml"
	debugLayers = true
	defer func() { debugLayers = false }()

	ts, err := loadTileset()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := mvt.NewCompiler(ts, mvt.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]struct {
		shape    string
		contains string
		err      bool
	}{
		"raw":      {shape: shapeRaw, contains: "ST_TileEnvelope($1, $2, $3)"},
		"psql":     {shape: shapePsql, contains: "ST_TileEnvelope(:zoom, :x, :y)"},
		"prepared": {shape: shapePrepared, contains: "PREPARE gettile(integer, integer, integer) AS"},
		"function": {shape: shapeFunction, contains: "CREATE OR REPLACE FUNCTION gettile(zoom integer, x integer, y integer)"},
		"unknown":  {shape: "mbtiles", err: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			got, err := render(c, tc.shape, "gettile")
			if tc.err {
				if err == nil {
					t.Errorf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(got, tc.contains) {
				t.Errorf("expected output to contain\n%v\ngot\n%v", tc.contains, got)
			}
			if !strings.Contains(got, "'debug-tile-center'") {
				t.Errorf("expected the debug layers in the query")
			}
		})
	}
}

func TestCompilerOptions(t *testing.T) {
	defer func() {
		sqlOpts.featureIDs, sqlOpts.version, sqlOpts.gzip = "auto", mvt.DefaultVersion.String(), ""
	}()

	sqlOpts.featureIDs, sqlOpts.version, sqlOpts.gzip = "OFF", "2.4.8", "6"
	opts, err := compilerOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.FeatureIDs != mvt.FeatureIDOff {
		t.Errorf("feature ids, expected off got %v", opts.FeatureIDs)
	}
	if opts.Version != (mvt.Version{Major: 2, Minor: 4, Patch: 8}) {
		t.Errorf("version, got %v", opts.Version)
	}
	if !opts.Gzip.Enabled || opts.Gzip.Level == nil || *opts.Gzip.Level != 6 {
		t.Errorf("gzip, got %+v", opts.Gzip)
	}

	sqlOpts.featureIDs = "sometimes"
	if _, err := compilerOptions(); err == nil {
		t.Errorf("expected an error for an unknown feature id mode")
	}
}

func TestParseGzip(t *testing.T) {
	tests := map[string]struct {
		value    string
		expected mvt.Gzip
		err      bool
	}{
		"unset":   {value: ""},
		"off":     {value: "off"},
		"default": {value: "Default", expected: mvt.GzipDefault},
		"level":   {value: "9", expected: mvt.GzipLevel(9)},
		"zero":    {value: "0", expected: mvt.GzipLevel(0)},
		"garbage": {value: "fast", err: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			got, err := parseGzip(tc.value)
			if tc.err {
				if err == nil {
					t.Errorf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := deep.Equal(got, tc.expected); diff != nil {
				t.Errorf("gzip: %v", diff)
			}
		})
	}
}

func TestPgPort(t *testing.T) {
	orig := viper.GetString("pgport")
	defer viper.Set("pgport", orig)

	tests := map[string]struct {
		value    string
		expected uint16
		err      bool
	}{
		"default":      {value: "5432", expected: 5432},
		"max":          {value: "65535", expected: 65535},
		"out of range": {value: "70000", err: true},
		"zero":         {value: "0", err: true},
		"negative":     {value: "-1", err: true},
		"not a number": {value: "pg", err: true},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			viper.Set("pgport", tc.value)
			got, err := pgPort()
			if tc.err {
				if err == nil {
					t.Errorf("expected an error, got port %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("port, expected %v got %v", tc.expected, got)
			}
		})
	}
}
