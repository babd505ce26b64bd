package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ratio1/cart_sdk_go/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Store.Mode)
	assert.Equal(t, 10*time.Second, cfg.Store.HTTPTimeout)
	assert.Equal(t, "@GoMarketplace:products", cfg.Cart.StorageKey)
	assert.Equal(t, 5*time.Second, cfg.Cart.HydrateTimeout)
	assert.Zero(t, cfg.Cart.WriteRetries)
	assert.Equal(t, ":8787", cfg.Sandbox.Addr)
	assert.Equal(t, "cart-sdk", cfg.Tracing.ServiceName)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  mode: bolt
  bolt_path: /var/lib/cart.db
cart:
  storage_key: shop
  write_retries: 2
logger:
  level: debug
`), 0o600))

	t.Setenv("CART_WRITE_RETRIES", "4")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Store.Mode)
	assert.Equal(t, "/var/lib/cart.db", cfg.Store.BoltPath)
	assert.Equal(t, "shop", cfg.Cart.StorageKey)
	assert.Equal(t, 4, cfg.Cart.WriteRetries)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("CART_STORE_URL", "http://127.0.0.1:8787")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8787", cfg.Store.URL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CART_HYDRATE_TIMEOUT", "soon")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte("sandbox:\n  addr: \":9999\"\n"), 0o600))
	t.Setenv(config.EnvConfigPath, path)

	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Sandbox.Addr)
}
