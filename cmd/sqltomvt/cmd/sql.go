package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-spatial/cobra"

	"github.com/atlasdatatech/sqltomvt/mvt"
)

// query shapes of the sql command
const (
	shapeRaw      = "raw"
	shapePrepared = "prepared"
	shapeFunction = "function"
	shapePsql     = "psql"
)

var sqlOpts struct {
	layers        []string
	exclude       []string
	shape         string
	name          string
	extent        int
	key           bool
	badGeometries bool
	gzip          string
	featureIDs    string
	version       string
	maskLayer     string
	maskZoom      uint
}

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Print the tile query of the tileset",
	Long: `Print the tile query of the tileset in one of the shapes:

  raw       the query with $1, $2 and $3 for zoom, x and y
  prepared  a PREPARE statement, run it with EXECUTE name(zoom, x, y)
  function  a CREATE FUNCTION name(zoom, x, y) returning the tile
  psql      the query using the psql variables :zoom, :x and :y`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := loadTileset()
		if err != nil {
			return err
		}
		opts, err := compilerOptions()
		if err != nil {
			return err
		}
		c, err := mvt.NewCompiler(ts, opts)
		if err != nil {
			return err
		}
		sql, err := render(c, sqlOpts.shape, sqlOpts.name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sql)
		return nil
	},
}

func init() {
	f := sqlCmd.Flags()
	f.StringSliceVarP(&sqlOpts.layers, "layer", "l", nil, "only include these layers")
	f.StringSliceVarP(&sqlOpts.exclude, "exclude", "x", nil, "exclude these layers")
	f.StringVar(&sqlOpts.shape, "shape", shapeRaw, "query shape: raw, prepared, function or psql")
	f.StringVarP(&sqlOpts.name, "name", "n", "gettile", "name of the prepared statement or function")
	f.IntVar(&sqlOpts.extent, "extent", 4096, "tile extent")
	f.BoolVarP(&sqlOpts.key, "key", "k", false, "add an md5 key column of the tile")
	f.BoolVar(&sqlOpts.badGeometries, "bad-geometry-count", false, "add a column counting invalid tile geometries")
	f.StringVar(&sqlOpts.gzip, "gzip", "", "gzip the tile: default or a level 0-9, requires the gzip extension")
	f.StringVar(&sqlOpts.featureIDs, "feature-ids", "auto", "use key fields as feature ids: auto, on or off")
	f.StringVar(&sqlOpts.version, "postgis-version", mvt.DefaultVersion.String(), "PostGIS version to generate SQL for")
	f.StringVar(&sqlOpts.maskLayer, "mask-layer", "", "skip tiles fully covered by this layer")
	f.UintVar(&sqlOpts.maskZoom, "mask-zoom", 8, "only mask tiles above this zoom")
}

func compilerOptions() (mvt.Options, error) {
	opts := mvt.Options{
		Layers:           sqlOpts.layers,
		ExcludeLayers:    sqlOpts.exclude,
		Extent:           sqlOpts.extent,
		KeyColumn:        sqlOpts.key,
		BadGeometryCount: sqlOpts.badGeometries,
		MaskLayer:        sqlOpts.maskLayer,
		MaskZoom:         sqlOpts.maskZoom,
	}
	gz, err := parseGzip(sqlOpts.gzip)
	if err != nil {
		return opts, err
	}
	opts.Gzip = gz

	switch strings.ToLower(sqlOpts.featureIDs) {
	case "auto":
		opts.FeatureIDs = mvt.FeatureIDAuto
	case "on":
		opts.FeatureIDs = mvt.FeatureIDOn
	case "off":
		opts.FeatureIDs = mvt.FeatureIDOff
	default:
		return opts, mvt.ErrInvalidOption{Option: "feature-ids", Reason: fmt.Sprintf("unknown mode %q", sqlOpts.featureIDs)}
	}

	if sqlOpts.version != "" {
		v, err := mvt.ParseVersion(sqlOpts.version)
		if err != nil {
			return opts, err
		}
		opts.Version = v
	}
	return opts, nil
}

// parseGzip reads the --gzip value: empty for no compression, "default" for
// the extension's default level, or an explicit level.
func parseGzip(v string) (mvt.Gzip, error) {
	switch v = strings.ToLower(strings.TrimSpace(v)); v {
	case "", "off", "none":
		return mvt.Gzip{}, nil
	case "default":
		return mvt.GzipDefault, nil
	}
	level, err := strconv.Atoi(v)
	if err != nil {
		return mvt.Gzip{}, mvt.ErrInvalidOption{Option: "gzip", Reason: fmt.Sprintf("%q is neither default nor a level", v)}
	}
	return mvt.GzipLevel(level), nil
}

func render(c *mvt.Compiler, shape, name string) (string, error) {
	switch shape {
	case shapeRaw:
		q, err := c.Query(mvt.PositionalCoords)
		if err != nil {
			return "", err
		}
		return q.SQL, nil
	case shapePsql:
		q, err := c.Query(mvt.PsqlCoords)
		if err != nil {
			return "", err
		}
		return q.SQL + ";", nil
	case shapePrepared:
		q, err := c.Query(mvt.PositionalCoords)
		if err != nil {
			return "", err
		}
		return q.Prepared(name)
	case shapeFunction:
		q, err := c.Query(mvt.FunctionCoords)
		if err != nil {
			return "", err
		}
		return q.Function(name)
	}
	return "", mvt.ErrInvalidOption{Option: "shape", Reason: fmt.Sprintf("unknown shape %q", shape)}
}
