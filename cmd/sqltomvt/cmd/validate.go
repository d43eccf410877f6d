package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/go-spatial/cobra"

	"github.com/atlasdatatech/sqltomvt/internal/log"
	"github.com/atlasdatatech/sqltomvt/mvt"
	"github.com/atlasdatatech/sqltomvt/provider"
	"github.com/atlasdatatech/sqltomvt/tileset"
)

var showSettings bool

// tileJSON is the metadata printed by the validate command.
type tileJSON struct {
	TileJSON     string                 `json:"tilejson"`
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Attribution  string                 `json:"attribution"`
	Version      string                 `json:"version"`
	Bounds       [4]float64             `json:"bounds"`
	Center       [3]float64             `json:"center"`
	MinZoom      uint                   `json:"minzoom"`
	MaxZoom      uint                   `json:"maxzoom"`
	VectorLayers []provider.VectorLayer `json:"vector_layers"`
}

func newTileJSON(ts *tileset.Tileset, layers []provider.VectorLayer) tileJSON {
	return tileJSON{
		TileJSON:     "2.2.0",
		ID:           ts.ID,
		Name:         ts.Name,
		Description:  ts.Description,
		Attribution:  ts.Attribution,
		Version:      ts.Version,
		Bounds:       ts.Bounds,
		Center:       ts.Center,
		MinZoom:      ts.MinZoom,
		MaxZoom:      ts.MaxZoom,
		VectorLayers: layers,
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the tileset layers against the database and print the tileset metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := loadTileset()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()
		p, err := newProvider()
		if err != nil {
			return err
		}
		defer p.Close()

		if showSettings {
			settings, err := p.Settings(ctx)
			if err != nil {
				return err
			}
			for _, s := range settings {
				log.Infof("%v = %v", s.Name, s.Value)
			}
		}

		version, err := p.Version(ctx)
		if err != nil {
			return err
		}
		log.Infof("PostGIS %v", version)

		c, err := mvt.NewCompiler(ts, mvt.Options{
			Layers:        sqlOpts.layers,
			ExcludeLayers: sqlOpts.exclude,
			Version:       version,
		})
		if err != nil {
			return err
		}
		layers, err := p.ValidateTileset(ctx, c)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(newTileJSON(ts, layers), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	f := validateCmd.Flags()
	f.StringSliceVarP(&sqlOpts.layers, "layer", "l", nil, "only validate these layers")
	f.StringSliceVarP(&sqlOpts.exclude, "exclude", "x", nil, "do not validate these layers")
	f.BoolVar(&showSettings, "settings", false, "log the database settings relevant for tile generation")
}
