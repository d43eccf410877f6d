package mvt

import (
	"fmt"
	"strings"
)

// Coords are the SQL expressions for zoom, x and y. The compiler copies them
// into the query verbatim.
type Coords struct {
	Zoom string
	X    string
	Y    string
}

var (
	// PositionalCoords bind zoom, x and y as $1, $2 and $3.
	PositionalCoords = Coords{Zoom: "$1", X: "$2", Y: "$3"}
	// PsqlCoords use psql variables, e.g. psql -v zoom=3 -v x=1 -v y=2.
	PsqlCoords = Coords{Zoom: ":zoom", X: ":x", Y: ":y"}
	// FunctionCoords refer to the arguments of the function built by
	// Query.Function.
	FunctionCoords = Coords{Zoom: "zoom", X: "x", Y: "y"}
)

func (c Coords) validate() error {
	if strings.TrimSpace(c.Zoom) == "" || strings.TrimSpace(c.X) == "" || strings.TrimSpace(c.Y) == "" {
		return ErrInvalidOption{Option: "coords", Reason: "zoom, x and y expressions are required"}
	}
	return nil
}

// Query is a compiled tile query. Evaluated with the coordinates bound it
// returns one row: the tile in column mvt, followed by key when HasKey and
// badgeos when HasBadGeometryCount. A Masked query returns no row for a tile
// fully covered by the mask layer.
type Query struct {
	SQL                 string
	Coords              Coords
	Layers              []string
	HasKey              bool
	HasBadGeometryCount bool
	Masked              bool
	Gzip                Gzip
}

func (q *Query) String() string { return q.SQL }

// Prepared wraps the query into a named server side prepared statement.
// The query must have been compiled with PositionalCoords.
func (q *Query) Prepared(name string) (string, error) {
	if !isIdent(name) {
		return "", ErrInvalidOption{Option: "name", Reason: fmt.Sprintf("%q is not a valid statement name", name)}
	}
	if q.Coords != PositionalCoords {
		return "", ErrInvalidOption{Option: "coords", Reason: "prepared statements need positional parameters"}
	}
	return fmt.Sprintf(`-- Delete prepared statement if it already exists
DO $$ BEGIN
IF EXISTS (SELECT * FROM pg_prepared_statements where name = '%[1]v') THEN
  DEALLOCATE %[1]v;
END IF;
END $$;

-- Run this statement with   EXECUTE %[1]v(zoom, x, y)
PREPARE %[1]v(integer, integer, integer) AS
%[2]v;`, name, q.SQL), nil
}

// Function wraps the query into an SQL function returning the tile as
// bytea. The query must have been compiled with FunctionCoords and return a
// single column.
func (q *Query) Function(name string) (string, error) {
	if !isIdent(name) {
		return "", ErrInvalidOption{Option: "name", Reason: fmt.Sprintf("%q is not a valid function name", name)}
	}
	if q.Coords != FunctionCoords {
		return "", ErrInvalidOption{Option: "coords", Reason: "functions need the zoom, x and y argument names"}
	}
	if q.HasKey || q.HasBadGeometryCount {
		return "", ErrInvalidOption{Option: "function", Reason: "a function can only return the tile column"}
	}
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %v(zoom integer, x integer, y integer)
RETURNS bytea AS $$
%v;
$$ LANGUAGE SQL STABLE RETURNS NULL ON NULL INPUT;`, name, q.SQL), nil
}

// Gzip configures compression of the tile.
type Gzip struct {
	Enabled bool
	// Level is 0-9, nil uses the default level of the gzip extension.
	Level *int
}

// GzipDefault compresses with the extension's default level.
var GzipDefault = Gzip{Enabled: true}

func GzipLevel(level int) Gzip { return Gzip{Enabled: true, Level: &level} }

func (g Gzip) validate() error {
	if g.Level != nil && (*g.Level < 0 || *g.Level > 9) {
		return ErrInvalidOption{Option: "gzip", Reason: fmt.Sprintf("level %v is not within 0-9", *g.Level)}
	}
	return nil
}

func (g Gzip) wrap(expr string) string {
	switch {
	case !g.Enabled:
		return expr
	case g.Level == nil:
		return "gzip(" + expr + ")"
	}
	return fmt.Sprintf("gzip(%v, %v)", expr, *g.Level)
}
