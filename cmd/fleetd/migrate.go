package main

import (
	"fmt"

	"github.com/rpggio/fleetd/internal/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the configured store's schema and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, err := app.OpenStore(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		defer db.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s store migrated\n", cfg.Store.Driver)
		return nil
	},
}
