package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment does not leak in.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"CART_CONFIG", "CART_API_BASE_URL", "CART_REQUEST_TIMEOUT", "CART_MAX_QUANTITY",
		"CART_STORAGE", "CART_STORAGE_PATH", "CART_STORAGE_DSN", "CART_FIRESTORE_COLLECTION",
		"FIRESTORE_PROJECT_ID", "FIRESTORE_CREDENTIALS_FILE", "FIREBASE_PROJECT_ID",
		"CHECKOUT_SUCCESS_URL", "CHECKOUT_CANCEL_URL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	// no stray .env from the package dir
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, 99, cfg.MaxQuantity)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.NotEmpty(t, cfg.StoragePath)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "cart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://papeleria.example/api
  request_timeout: 3s
cart:
  max_quantity: 20
storage:
  backend: sqlite
  path: /tmp/cart-state
checkout:
  success_url: https://papeleria.example/ok
log_level: debug
`), 0o600))

	t.Setenv("CART_CONFIG", path)
	t.Setenv("CART_MAX_QUANTITY", "50")
	t.Setenv("CHECKOUT_CANCEL_URL", "https://papeleria.example/cart")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://papeleria.example/api", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 50, cfg.MaxQuantity, "env wins over file")
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, filepath.Join("/tmp/cart-state", "state.db"), cfg.SQLiteDSN())
	assert.Equal(t, "https://papeleria.example/ok", cfg.CheckoutSuccessURL)
	assert.Equal(t, "https://papeleria.example/cart", cfg.CheckoutCancelURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("CART_STORAGE=memory\nCART_REQUEST_TIMEOUT=7\n"), 0o600))
	// godotenv only fills unset variables
	require.NoError(t, os.Unsetenv("CART_STORAGE"))
	require.NoError(t, os.Unsetenv("CART_REQUEST_TIMEOUT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"storage":  {"CART_STORAGE", "redis"},
		"quantity": {"CART_MAX_QUANTITY", "0"},
		"not int":  {"CART_MAX_QUANTITY", "many"},
		"timeout":  {"CART_REQUEST_TIMEOUT", "soon"},
		"postgres": {"CART_STORAGE", "postgres"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CART_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
