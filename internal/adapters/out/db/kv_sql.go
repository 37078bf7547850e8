// internal/adapters/out/db/kv_sql.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
	"github.com/MaYdaN875/Papeleria-store-sub000/internal/infra/database"
)

const (
	kvTable = "local_state"
	// notifyChannel carries "<instance>|<key>" on every write (postgres only)
	notifyChannel = "local_state_changed"
)

// KVRepositorySQL keeps the local state in a single table.
// It works with both the postgres (lib/pq) and sqlite (modernc) drivers.
type KVRepositorySQL struct {
	db       *sql.DB
	driver   string
	dsn      string
	instance string
	log      *zap.Logger
}

var (
	_ localstore.Store   = (*KVRepositorySQL)(nil)
	_ localstore.Watcher = (*KVRepositorySQL)(nil)
)

// NewKVRepositorySQL creates the table when missing.
func NewKVRepositorySQL(ctx context.Context, conn *database.DB, log *zap.Logger) (*KVRepositorySQL, error) {
	if conn == nil || conn.Client == nil {
		return nil, errors.New("kv.sql: db is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &KVRepositorySQL{
		db:       conn.Client,
		driver:   conn.Driver,
		dsn:      conn.DSN,
		instance: uuid.NewString(),
		log:      log.Named("kv.sql"),
	}

	const ddl = `CREATE TABLE IF NOT EXISTS ` + kvTable + ` (
    k          TEXT PRIMARY KEY,
    v          TEXT NOT NULL,
    updated_at BIGINT NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("kv.sql: create table: %w", err)
	}
	return r, nil
}

// ph returns the n-th placeholder of the driver.
func (r *KVRepositorySQL) ph(n int) string {
	if r.driver == database.DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (r *KVRepositorySQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, localstore.ErrEmptyKey
	}

	q := `SELECT v FROM ` + kvTable + ` WHERE k = ` + r.ph(1)
	var v string
	err := r.db.QueryRowContext(ctx, q, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv.sql: get %s: %w", key, err)
	}
	return []byte(v), true, nil
}

func (r *KVRepositorySQL) Set(ctx context.Context, key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return localstore.ErrEmptyKey
	}

	q := `
INSERT INTO ` + kvTable + ` (k, v, updated_at)
VALUES (` + r.ph(1) + `, ` + r.ph(2) + `, ` + r.ph(3) + `)
ON CONFLICT (k) DO UPDATE SET
    v          = excluded.v,
    updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, q, key, string(value), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("kv.sql: set %s: %w", key, err)
	}
	r.notify(ctx, key)
	return nil
}

func (r *KVRepositorySQL) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return localstore.ErrEmptyKey
	}

	q := `DELETE FROM ` + kvTable + ` WHERE k = ` + r.ph(1)
	res, err := r.db.ExecContext(ctx, q, key)
	if err != nil {
		return fmt.Errorf("kv.sql: delete %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.notify(ctx, key)
	}
	return nil
}

func (r *KVRepositorySQL) notify(ctx context.Context, key string) {
	if r.driver != database.DriverPostgres {
		return
	}
	if _, err := r.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, r.instance+"|"+key); err != nil {
		r.log.Warn("notify failed", zap.String("key", key), zap.Error(err))
	}
}

// Watch reports writes of other instances through LISTEN/NOTIFY.
// SQLite has no change feed: ErrWatchUnsupported.
func (r *KVRepositorySQL) Watch(ctx context.Context, fn func(key string)) error {
	if r.driver != database.DriverPostgres {
		return localstore.ErrWatchUnsupported
	}

	l := pq.NewListener(r.dsn, time.Second, 30*time.Second, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.log.Warn("listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	defer l.Close()

	if err := l.Listen(notifyChannel); err != nil {
		return fmt.Errorf("kv.sql: listen: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-l.Notify:
			if !ok {
				return nil
			}
			// nil after a reconnect: anything may have changed
			if n == nil {
				fn("")
				continue
			}
			instance, key, found := strings.Cut(n.Extra, "|")
			if !found || instance == r.instance {
				continue
			}
			fn(key)
		}
	}
}
