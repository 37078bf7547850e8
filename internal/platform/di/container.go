// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/db"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/filestore"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/firebaseauth"
	fs "github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/firestore"
	httpout "github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/http"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/memory"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/adapters/out/notify"
	uc "github.com/MaYdaN875/Papeleria-store-sub000/internal/application/usecase"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
	appcfg "github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/config"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/database"
	firebaseinfra "github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/firebase"
	firestoreinfra "github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/firestore"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/platform/events"
)

// Options are the process-specific pieces the caller provides.
type Options struct {
	// Notifier shows the "added to cart" messages. nil = log them.
	Notifier uc.Notifier
	// Space is shared by memory-backed containers (tests, demos). nil = private space.
	Space *memory.Space
}

// Container wires config, storage backend, remote API and usecases.
type Container struct {
	Config *appcfg.Config
	Log    *zap.Logger
	Bus    *events.Bus

	KV      localstore.Store
	Watcher localstore.Watcher
	API     *httpout.CartAPIClient

	Sessions *uc.SessionUsecase
	Cart     *uc.CartStore
	Checkout *uc.CheckoutUsecase
	Catalog  *uc.CatalogIndex

	identityMu sync.Mutex
	identity   *firebaseauth.IdentityResolver

	closers    []func() error
	pumpCancel context.CancelFunc
	pumpDone   chan struct{}
}

// ========================================
// NewContainer
// ========================================

func NewContainer(ctx context.Context, cfg *appcfg.Config, log *zap.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{Config: cfg, Log: log, Bus: events.NewBus(log)}

	// 1. Storage backend
	if err := c.openStorage(ctx, opts); err != nil {
		_ = c.Close()
		return nil, err
	}

	// 2. Remote shop API
	c.API = httpout.NewCartAPIClient(cfg.APIBaseURL, cfg.RequestTimeout, log)

	// 3. Usecases
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	c.Sessions = uc.NewSessionUsecase(c.KV, c.Bus, log)
	c.Cart = uc.NewCartStore(c.KV, c.Sessions, c.API, c.Bus, uc.CartStoreOptions{
		MaxQuantity:    cfg.MaxQuantity,
		RequestTimeout: cfg.RequestTimeout,
		Notifier:       notifier,
		Logger:         log,
	})
	c.Checkout = uc.NewCheckoutUsecase(c.Cart, c.Sessions, c.API, uc.CheckoutURLs{
		Success: cfg.CheckoutSuccessURL,
		Cancel:  cfg.CheckoutCancelURL,
	}, log)
	c.Catalog = uc.NewCatalogIndex(c.API, cfg.RequestTimeout, log)

	log.Debug("container ready", zap.String("storage", cfg.Storage))
	return c, nil
}

func (c *Container) openStorage(ctx context.Context, opts Options) error {
	cfg := c.Config
	switch cfg.Storage {
	case appcfg.StorageMemory:
		space := opts.Space
		if space == nil {
			space = memory.NewSpace()
		}
		kv := space.Handle()
		c.KV, c.Watcher = kv, kv

	case appcfg.StorageFile:
		kv, err := filestore.New(cfg.StoragePath, c.Log)
		if err != nil {
			return err
		}
		c.KV, c.Watcher = kv, kv

	case appcfg.StorageSQLite, appcfg.StoragePostgres:
		driver, dsn := database.DriverSQLite, cfg.SQLiteDSN()
		if cfg.Storage == appcfg.StoragePostgres {
			driver, dsn = database.DriverPostgres, cfg.StorageDSN
		}
		conn, err := database.Open(driver, dsn, c.Log)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, conn.Close)
		kv, err := db.NewKVRepositorySQL(ctx, conn, c.Log)
		if err != nil {
			return err
		}
		c.KV, c.Watcher = kv, kv

	case appcfg.StorageFirestore:
		cw, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, c.Log)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, cw.Close)
		pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		err = cw.Ping(pingCtx, cfg.FirestoreCollection)
		cancel()
		if err != nil {
			return err
		}
		kv := fs.NewKVRepositoryFS(cw.Client, cfg.FirestoreCollection, c.Log)
		c.KV, c.Watcher = kv, kv

	default:
		return fmt.Errorf("di: unknown storage %q", cfg.Storage)
	}
	return nil
}

// Start forwards backend change notifications to the bus and loads the cart.
func (c *Container) Start(ctx context.Context) error {
	if c.Watcher != nil && c.pumpDone == nil {
		pctx, cancel := context.WithCancel(ctx)
		c.pumpCancel = cancel
		c.pumpDone = make(chan struct{})
		go func() {
			defer close(c.pumpDone)
			err := c.Bus.PumpStorage(pctx, c.Watcher.Watch)
			switch {
			case err == nil:
			case errors.Is(err, localstore.ErrWatchUnsupported):
				c.Log.Debug("storage has no change feed; cross-process updates are picked up on next load")
			default:
				c.Log.Warn("storage watch stopped", zap.Error(err))
			}
		}()
	}
	return c.Cart.Start(ctx)
}

// FirebaseIdentity initializes Firebase Auth on first use.
func (c *Container) FirebaseIdentity(ctx context.Context) (*firebaseauth.IdentityResolver, error) {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()
	if c.identity != nil {
		return c.identity, nil
	}

	client, err := firebaseinfra.NewAuthClient(ctx, c.Config.FirebaseProjectID, c.Config.FirestoreCredentialsFile, c.Log)
	if err != nil {
		return nil, err
	}
	c.identity = firebaseauth.NewIdentityResolver(client)
	return c.identity, nil
}

// Close stops the change feed and releases backend connections.
func (c *Container) Close() error {
	if c.Cart != nil {
		c.Cart.Stop()
	}
	if c.pumpCancel != nil {
		c.pumpCancel()
		<-c.pumpDone
		c.pumpCancel = nil
	}

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
