// Package cmd holds the sqltomvt commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-spatial/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/atlasdatatech/sqltomvt/cmd/internal/register"
	"github.com/atlasdatatech/sqltomvt/config"
	"github.com/atlasdatatech/sqltomvt/internal/log"
	"github.com/atlasdatatech/sqltomvt/provider/debug"
	"github.com/atlasdatatech/sqltomvt/provider/postgis"
	"github.com/atlasdatatech/sqltomvt/tileset"
)

// set at build time, e.g. -ldflags "-X github.com/atlasdatatech/sqltomvt/cmd/sqltomvt/cmd.Version=v0.1.0"
var Version = "version not set"

var (
	tilesetFile string
	debugLayers bool
)

var RootCmd = &cobra.Command{
	Use:   "sqltomvt",
	Short: "sqltomvt compiles a tileset into a PostGIS vector tile query",
	Long: fmt.Sprintf(`sqltomvt %v

Compiles the layers of a tileset into a single SQL query that PostGIS
evaluates to a Mapbox Vector Tile.`, Version),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Configure(log.Config{
			Level: viper.GetString("log_level"),
			Color: viper.GetBool("color"),
		})
	},
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.StringVarP(&tilesetFile, "tileset", "t", "tileset.toml", "path to the tileset file")
	pf.BoolVar(&debugLayers, "debug-layers", false, "append the debug-tile-outline and debug-tile-center layers")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Bool("color", false, "colorize log output")

	pf.String("pghost", "localhost", "PostgreSQL host (env PGHOST)")
	pf.Int("pgport", postgis.DefaultPort, "PostgreSQL port (env PGPORT)")
	pf.String("dbname", "openmaptiles", "PostgreSQL database (env PGDATABASE)")
	pf.String("user", "openmaptiles", "PostgreSQL user (env PGUSER)")
	pf.String("password", "openmaptiles", "PostgreSQL password (env PGPASSWORD)")
	pf.String("sslmode", postgis.DefaultSSLMode, "PostgreSQL ssl mode: disable, allow, prefer or require (env PGSSLMODE)")
	pf.Int("max-connections", postgis.DefaultMaxConn, "size of the connection pool")

	if err := bindFlags(pf, map[string]string{
		"log_level":       "log-level",
		"color":           "color",
		"pghost":          "pghost",
		"pgport":          "pgport",
		"pgdatabase":      "dbname",
		"pguser":          "user",
		"pgpassword":      "password",
		"pgsslmode":       "sslmode",
		"max_connections": "max-connections",
	}); err != nil {
		panic(err)
	}
	for _, env := range []string{"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD", "PGSSLMODE", tileset.EnvBufferSize} {
		if err := viper.BindEnv(strings.ToLower(env), env); err != nil {
			panic(err)
		}
	}

	RootCmd.AddCommand(sqlCmd, ddlCmd, validateCmd, versionCmd)
}

// bindFlags binds viper keys to the flags of fs, keyed by viper key.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %v", name)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getenv reads settings that may come from the environment through viper.
func getenv(key string) string {
	return viper.GetString(strings.ToLower(key))
}

// loadTileset reads, registers and validates the tileset file.
func loadTileset() (*tileset.Tileset, error) {
	cfg, err := config.LoadTileset(tilesetFile)
	if err != nil {
		return nil, err
	}
	def, err := register.Tileset(cfg)
	if err != nil {
		return nil, err
	}
	if debugLayers {
		for _, l := range debug.Layers() {
			def.Layers = append(def.Layers, tileset.LayerEntry{Layer: l})
		}
	}
	ts, err := tileset.New(def, getenv)
	if err != nil {
		return nil, err
	}
	log.Debugf("loaded tileset %v with %v layers", ts.ID, len(ts.Layers))
	return ts, nil
}

func newProvider() (*postgis.Provider, error) {
	port, err := pgPort()
	if err != nil {
		return nil, err
	}
	return postgis.NewProvider(postgis.Config{
		Host:           viper.GetString("pghost"),
		Port:           port,
		Database:       viper.GetString("pgdatabase"),
		User:           viper.GetString("pguser"),
		Password:       viper.GetString("pgpassword"),
		SSLMode:        viper.GetString("pgsslmode"),
		MaxConnections: viper.GetInt("max_connections"),
	})
}

// pgPort reads the port from the flag or PGPORT. Values outside 1-65535 are
// an error rather than wrapping around.
func pgPort() (uint16, error) {
	raw := strings.TrimSpace(viper.GetString("pgport"))
	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || port == 0 {
		return 0, fmt.Errorf("invalid PostgreSQL port %q, expected 1-65535", raw)
	}
	return uint16(port), nil
}

// signalContext is cancelled on the first interrupt or terminate signal.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-c:
			log.Infof("received %v, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx, cancel
}
