package postgis_test

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/go-test/deep"

	"github.com/atlasdatatech/sqltomvt/mvt"
	"github.com/atlasdatatech/sqltomvt/provider/postgis"
	"github.com/atlasdatatech/sqltomvt/tileset"
)

// TESTENV is the environment variable that must be set to "yes" to run the
// tests needing a database.
const TESTENV = "RUN_POSTGIS_TESTS"

func testProvider(t *testing.T) *postgis.Provider {
	t.Helper()
	if os.Getenv(TESTENV) != "yes" {
		t.Skipf("%v is not set to yes, skipping", TESTENV)
	}
	port, _ := strconv.Atoi(os.Getenv("PGPORT"))
	p, err := postgis.NewProvider(postgis.Config{
		Host:     os.Getenv("PGHOST"),
		Port:     uint16(port),
		Database: os.Getenv("PGDATABASE"),
		User:     os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
		SSLMode:  os.Getenv("PGSSLMODE"),
	})
	if err != nil {
		t.Fatalf("unable to connect: %v", err)
	}
	return p
}

func TestProviderVersion(t *testing.T) {
	p := testProvider(t)
	defer p.Close()

	v, err := p.Version(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Less(mvt.MinVersion) {
		t.Errorf("expected at least PostGIS %v, got %v", mvt.MinVersion, v)
	}
}

func TestProviderProbeColumns(t *testing.T) {
	p := testProvider(t)
	defer p.Close()

	cols, err := p.ProbeColumns(context.Background(),
		"SELECT 1::int4 AS a, 'x'::text AS b, true AS c WHERE false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []postgis.Column{
		{Name: "a", Type: "int4"},
		{Name: "b", Type: "text"},
		{Name: "c", Type: "bool"},
	}
	if diff := deep.Equal(cols, expected); diff != nil {
		t.Errorf("columns: %v", diff)
	}
}

func TestProviderExecGroups(t *testing.T) {
	p := testProvider(t)
	defer p.Close()

	bundle := tileset.SQLBundle{
		First: "CREATE TEMP TABLE IF NOT EXISTS sqltomvt_first (id int);",
		Groups: []tileset.GroupSQL{
			{Name: "a", SQL: "SELECT 1;"},
			{Name: "b", SQL: "SELECT 2;"},
		},
		Last: "SELECT 3;",
	}
	if err := p.ExecGroups(context.Background(), bundle); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bundle.Groups = append(bundle.Groups, tileset.GroupSQL{Name: "bad", SQL: "SELECT * FROM sqltomvt_does_not_exist;"})
	if err := p.ExecGroups(context.Background(), bundle); err == nil {
		t.Errorf("expected an error for a failing group")
	}
}

func TestNewProviderSSLMode(t *testing.T) {
	_, err := postgis.NewProvider(postgis.Config{Host: "localhost", SSLMode: "sometimes"})
	if err != postgis.ErrInvalidSSLMode("sometimes") {
		t.Errorf("expected ErrInvalidSSLMode, got %v", err)
	}
}
