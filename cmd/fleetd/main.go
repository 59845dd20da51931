package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rpggio/fleetd/internal/config"
	"github.com/rpggio/fleetd/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fleetd",
	Short: "fleetd serves fleet, crew and personnel records",
	Long: `fleetd stores fleets, crews, personnel and districts per tenant.

It serves joined crew and personnel lookups and reconciles client fleet
copies over JSON-RPC (POST /rpc) and MCP (/mcp or stdio).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("fleetd version %s\nCommit: %s\n", Version, Commit))
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (overrides FLEETD_CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stdioCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(apikeyCmd)
}

// loadConfig applies the --config flag and loads configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("FLEETD_CONFIG_PATH", path); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(cfg.Log, cfg.Transport.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("log setup: %w", err)
	}
	return logger, closer, nil
}
