package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/memory"
	appcfg "github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T, storage string) *appcfg.Config {
	cfg := appcfg.Default()
	cfg.Storage = storage
	cfg.StoragePath = t.TempDir()
	cfg.APIBaseURL = "http://127.0.0.1:1"
	cfg.RequestTimeout = 200 * time.Millisecond
	require.NoError(t, cfg.Validate())
	return cfg
}

func start(t *testing.T, cfg *appcfg.Config, opts Options) *Container {
	t.Helper()
	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t), opts)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	return c
}

func TestContainer_PersistsAcrossRestarts(t *testing.T) {
	for _, storage := range []string{appcfg.StorageFile, appcfg.StorageSQLite} {
		t.Run(storage, func(t *testing.T) {
			cfg := testConfig(t, storage)

			c := start(t, cfg, Options{})
			_, err := c.Cart.Add(context.Background(), "Cuaderno", "65.00", 2)
			require.NoError(t, err)
			require.NoError(t, c.Close())

			c2 := start(t, cfg, Options{})
			defer c2.Close()
			assert.Equal(t, 2, c2.Cart.ItemCount())
			assert.Equal(t, "130.00", c2.Cart.Total().StringFixed(2))
		})
	}
}

func TestContainer_SQLiteFirstRun(t *testing.T) {
	cfg := testConfig(t, appcfg.StorageSQLite)
	cfg.StoragePath = filepath.Join(t.TempDir(), "papeleria-cart")

	c := start(t, cfg, Options{})
	defer c.Close()

	_, err := c.Cart.Add(context.Background(), "Cuaderno", "65.00", 1)
	require.NoError(t, err)
	_, err = os.Stat(cfg.SQLiteDSN())
	assert.NoError(t, err)
}

func TestContainer_SharedMemorySpace(t *testing.T) {
	space := memory.NewSpace()
	cfg := testConfig(t, appcfg.StorageMemory)

	a := start(t, cfg, Options{Space: space})
	defer a.Close()
	b := start(t, cfg, Options{Space: space})
	defer b.Close()

	require.Eventually(t, func() bool {
		if _, err := b.Cart.Add(context.Background(), "Lápiz", "10.00", 1); err != nil {
			return false
		}
		return a.Cart.ItemCount() > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestContainer_UnknownStorage(t *testing.T) {
	cfg := appcfg.Default()
	cfg.Storage = "redis"
	_, err := NewContainer(context.Background(), cfg, nil, Options{})
	assert.Error(t, err)
}
