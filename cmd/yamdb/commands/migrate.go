package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-yamdb"
)

var dropFirst bool

// migrateCmd creates the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create database tables and indexes",
	Long: `Create every table and index that does not exist yet.

Examples:
  yamdb migrate          # Create missing tables
  yamdb migrate --drop   # Drop all tables first`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&dropFirst, "drop", false, "Drop every table before creating the schema")
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if dropFirst {
		rt.log.Warn("dropping schema")
		if err := yamdb.DropSchema(ctx, rt.db); err != nil {
			return err
		}
	}

	if err := yamdb.CreateSchema(ctx, rt.db); err != nil {
		return err
	}

	rt.log.Info("schema ready", "driver", rt.cfg.DatabaseDriver)
	return nil
}
