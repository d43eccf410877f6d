package cmd

import (
	"fmt"

	"github.com/go-spatial/cobra"

	"github.com/atlasdatatech/sqltomvt/tileset"
)

var ddlExec bool

var ddlCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Print or run the schema SQL of the tileset layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := loadTileset()
		if err != nil {
			return err
		}
		bundle, err := tileset.CollectSQL(ts)
		if err != nil {
			return err
		}
		if !ddlExec {
			fmt.Fprintln(cmd.OutOrStdout(), bundle.String())
			return nil
		}

		ctx, cancel := signalContext()
		defer cancel()
		p, err := newProvider()
		if err != nil {
			return err
		}
		defer p.Close()
		return p.ExecGroups(ctx, bundle)
	},
}

func init() {
	ddlCmd.Flags().BoolVar(&ddlExec, "exec", false, "run the SQL against the database, independent layer groups in parallel")
}
