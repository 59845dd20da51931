package main

import (
	"fmt"

	"github.com/rpggio/fleetd/internal/app"
	"github.com/rpggio/fleetd/internal/tenant"
	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
}

var apikeyAddCmd = &cobra.Command{
	Use:   "add TENANT_ID",
	Short: "Create an API key for a tenant",
	Long: `Create an API key for a tenant and print it.

Only the key's hash is stored, so the printed key cannot be recovered later.
Pass --key to register a key you generated yourself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		description, _ := cmd.Flags().GetString("description")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if key == "" {
			if key, err = tenant.GenerateKey(); err != nil {
				return err
			}
		}

		db, err := app.OpenStore(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()

		if err := tenant.NewAPIKeyResolver(db).AddKey(cmd.Context(), key, args[0], description); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	apikeyAddCmd.Flags().String("key", "", "use this key instead of generating one")
	apikeyAddCmd.Flags().String("description", "", "free-form note stored with the key")
	apikeyCmd.AddCommand(apikeyAddCmd)
}
