// Package dbcmd holds database administration commands. They talk to Postgres
// directly using the server's configuration, not to the API.
package dbcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucial707/geo-catalog/internal/config"
	"github.com/crucial707/geo-catalog/internal/db"
)

func InitDB(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewCmd())
}

var (
	migrateUp   = db.Run
	migrateDown = db.Down
)

func NewCmd() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database administration (uses DB_* / CONFIG_FILE settings)",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := migrateUp(cfg.DatabaseURL()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	})

	var confirm bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Revert every migration, dropping all catalog data and the audit ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to drop the catalog without --yes")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Env == "prod" {
				return fmt.Errorf("reset is disabled when ENV=prod")
			}
			if err := migrateDown(cfg.DatabaseURL()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database reset.")
			return nil
		},
	}
	reset.Flags().BoolVar(&confirm, "yes", false, "confirm dropping all data")
	dbCmd.AddCommand(reset)

	return dbCmd
}
