package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
store:
  driver: bolt
  dsn: /tmp/fleet.bolt
auth:
  enabled: true
  cache_ttl: 30s
log:
  format: json
`), 0o600))

	t.Setenv("FLEETD_CONFIG_PATH", path)
	t.Setenv("FLEETD_SERVER_PORT", "9100")
	t.Setenv("FLEETD_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "bolt", cfg.Store.Driver)
	require.Equal(t, "/tmp/fleet.bolt", cfg.Store.DSN)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, 30*time.Second, cfg.Auth.CacheTTL)
	require.Equal(t, "redis://localhost:6379/0", cfg.Auth.RedisURL)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("FLEETD_SERVER_PORT", "abc")
	_, err := Load()
	require.ErrorContains(t, err, "FLEETD_SERVER_PORT")

	t.Setenv("FLEETD_SERVER_PORT", "")
	t.Setenv("FLEETD_AUTH_ENABLED", "maybe")
	_, err = Load()
	require.ErrorContains(t, err, "FLEETD_AUTH_ENABLED")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "postgres"
	require.Error(t, Validate(&cfg))

	cfg = Default()
	cfg.Store.Driver = "memory"
	cfg.Store.DSN = ""
	require.NoError(t, Validate(&cfg))

	cfg = Default()
	cfg.Store.DSN = ""
	require.Error(t, Validate(&cfg))

	cfg = Default()
	cfg.Log.Level = "verbose"
	require.Error(t, Validate(&cfg))

	cfg = Default()
	cfg.Auth.DefaultTenant = ""
	require.Error(t, Validate(&cfg))
	cfg.Auth.Enabled = true
	require.NoError(t, Validate(&cfg))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("FLEETD_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}
