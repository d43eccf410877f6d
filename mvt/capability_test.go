package mvt_test

import (
	"testing"

	"github.com/gdey/tbltest"

	"github.com/atlasdatatech/sqltomvt/mvt"
)

func TestParseVersion(t *testing.T) {
	type tcase struct {
		input    string
		expected mvt.Version
		err      bool
	}

	fn := func(idx int, tc tcase) {
		got, err := mvt.ParseVersion(tc.input)
		if tc.err {
			if _, ok := err.(mvt.ErrVersion); !ok {
				t.Errorf("[%v] expected ErrVersion for %q, got %v", idx, tc.input, err)
			}
			return
		}
		if err != nil {
			t.Errorf("[%v] unexpected error: %v", idx, err)
			return
		}
		if got != tc.expected {
			t.Errorf("[%v] version of %q, expected %v got %v", idx, tc.input, tc.expected, got)
		}
	}

	tbltest.Cases(
		tcase{
			input:    `POSTGIS="2.4.8 r17696" [EXTENSION] PGSQL="100" GEOS="3.7.1-CAPI-1.11.1 27a5e771"`,
			expected: mvt.Version{Major: 2, Minor: 4, Patch: 8},
		},
		tcase{input: "3.1", expected: mvt.Version{Major: 3, Minor: 1}},
		tcase{input: "3.0.1", expected: mvt.Version{Major: 3, Minor: 0, Patch: 1}},
		tcase{input: "3.1dev", expected: mvt.Version{Major: 3, Minor: 1, Patch: -1}},
		tcase{input: "3.1.0alpha2", expected: mvt.Version{Major: 3, Minor: 1, Patch: 0}},
		tcase{input: "not a version", err: true},
		tcase{input: "", err: true},
		tcase{input: `POSTGIS="x.y"`, err: true},
	).Run(fn)
}

func TestVersionLess(t *testing.T) {
	dev := mvt.Version{Major: 3, Minor: 1, Patch: -1}
	if !dev.Less(mvt.Version{Major: 3, Minor: 1}) {
		t.Errorf("expected %v to be older than 3.1.0", dev)
	}
	if mvt.TileEnvelopeVersion.Less(mvt.MinVersion) {
		t.Errorf("expected %v not to be older than %v", mvt.TileEnvelopeVersion, mvt.MinVersion)
	}
}

func TestCapabilityFor(t *testing.T) {
	tests := map[string]struct {
		version  mvt.Version
		expected mvt.Capability
		err      error
	}{
		"2.4": {
			version:  mvt.Version{Major: 2, Minor: 4, Patch: 8},
			expected: mvt.Capability{Version: mvt.Version{Major: 2, Minor: 4, Patch: 8}},
		},
		"3.0": {
			version: mvt.Version{Major: 3},
			expected: mvt.Capability{
				Version:      mvt.Version{Major: 3},
				TileEnvelope: true,
				FeatureIDs:   true,
			},
		},
		"3.0 pre-release": {
			version:  mvt.Version{Major: 3, Patch: -1},
			expected: mvt.Capability{Version: mvt.Version{Major: 3, Patch: -1}},
		},
		"too old": {
			version: mvt.Version{Major: 2, Minor: 3, Patch: 9},
			err:     mvt.ErrCapability{Feature: "ST_AsMVT", Version: mvt.Version{Major: 2, Minor: 3, Patch: 9}},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			got, err := mvt.CapabilityFor(tc.version)
			if err != tc.err {
				t.Fatalf("error, expected %v got %v", tc.err, err)
			}
			if got != tc.expected {
				t.Errorf("capability, expected %+v got %+v", tc.expected, got)
			}
		})
	}
}

func TestCapabilitySQL(t *testing.T) {
	legacy, _ := mvt.CapabilityFor(mvt.Version{Major: 2, Minor: 4})
	modern, _ := mvt.CapabilityFor(mvt.Version{Major: 3, Minor: 1})

	if got, want := legacy.TileBBox(mvt.PositionalCoords), "TileBBox($1, $2, $3, 3857)"; got != want {
		t.Errorf("legacy bbox, expected %v got %v", want, got)
	}
	if got, want := modern.TileBBox(mvt.PositionalCoords), "ST_TileEnvelope($1, $2, $3)"; got != want {
		t.Errorf("modern bbox, expected %v got %v", want, got)
	}
	if got, want := legacy.AsMVT("tile", "water", 4096, "mvtgeometry", "osm_id"), "ST_AsMVT(tile, 'water', 4096, 'mvtgeometry')"; got != want {
		t.Errorf("legacy ST_AsMVT, expected %v got %v", want, got)
	}
	if got, want := modern.AsMVT("tile", "water", 4096, "mvtgeometry", "osm_id"), "ST_AsMVT(tile, 'water', 4096, 'mvtgeometry', 'osm_id')"; got != want {
		t.Errorf("modern ST_AsMVT, expected %v got %v", want, got)
	}
	if got, want := modern.AsMVT("tile", "it's", 512, "g", ""), "ST_AsMVT(tile, 'it''s', 512, 'g')"; got != want {
		t.Errorf("quoted ST_AsMVT, expected %v got %v", want, got)
	}
}
