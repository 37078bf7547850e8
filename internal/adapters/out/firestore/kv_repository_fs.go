// internal/adapters/out/firestore/kv_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
)

const defaultCollection = "local_state"

// KVRepositoryFS keeps the local state in one Firestore collection.
//
// Collection design:
//   - docId : PathEscape(key) ("/" is not allowed in ids)
//   - fields: key, value, writer, updatedAt
//
// writer is the instance id of the handle that wrote the doc, so Watch can skip its own writes.
type KVRepositoryFS struct {
	Client     *firestore.Client
	collection string
	instance   string
	log        *zap.Logger
}

var (
	_ localstore.Store   = (*KVRepositoryFS)(nil)
	_ localstore.Watcher = (*KVRepositoryFS)(nil)
)

type kvDoc struct {
	Key       string    `firestore:"key"`
	Value     string    `firestore:"value"`
	Writer    string    `firestore:"writer"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func NewKVRepositoryFS(client *firestore.Client, collection string, log *zap.Logger) *KVRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultCollection
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KVRepositoryFS{
		Client:     client,
		collection: collection,
		instance:   uuid.NewString(),
		log:        log.Named("kv.firestore"),
	}
}

func (r *KVRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.collection)
}

func docID(key string) string {
	return url.PathEscape(key)
}

func (r *KVRepositoryFS) check(key string) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("kv_repository_fs: firestore client is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", localstore.ErrEmptyKey
	}
	return key, nil
}

// Get returns ok=false when the doc does not exist.
func (r *KVRepositoryFS) Get(ctx context.Context, key string) ([]byte, bool, error) {
	key, err := r.check(key)
	if err != nil {
		return nil, false, err
	}

	snap, err := r.col().Doc(docID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kv_repository_fs: get %s: %w", key, err)
	}

	var d kvDoc
	if err := snap.DataTo(&d); err != nil {
		// an unreadable doc is treated like a missing one
		r.log.Warn("malformed doc", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	return []byte(d.Value), true, nil
}

func (r *KVRepositoryFS) Set(ctx context.Context, key string, value []byte) error {
	key, err := r.check(key)
	if err != nil {
		return err
	}

	_, err = r.col().Doc(docID(key)).Set(ctx, kvDoc{
		Key:       key,
		Value:     string(value),
		Writer:    r.instance,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kv_repository_fs: set %s: %w", key, err)
	}
	return nil
}

// Delete is a no-op for missing docs.
func (r *KVRepositoryFS) Delete(ctx context.Context, key string) error {
	key, err := r.check(key)
	if err != nil {
		return err
	}
	if _, err := r.col().Doc(docID(key)).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("kv_repository_fs: delete %s: %w", key, err)
	}
	return nil
}

// Watch listens to the collection and reports changes written by other instances.
// The first snapshot is the current state and is not reported.
func (r *KVRepositoryFS) Watch(ctx context.Context, fn func(key string)) error {
	if r == nil || r.Client == nil {
		return errors.New("kv_repository_fs: firestore client is nil")
	}

	it := r.col().Snapshots(ctx)
	defer it.Stop()

	first := true
	for {
		snap, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) || ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return fmt.Errorf("kv_repository_fs: watch: %w", err)
		}
		if first {
			first = false
			continue
		}

		for _, ch := range snap.Changes {
			key, own := r.changeKey(ch)
			if own || key == "" {
				continue
			}
			fn(key)
		}
	}
}

func (r *KVRepositoryFS) changeKey(ch firestore.DocumentChange) (key string, own bool) {
	if ch.Doc == nil {
		return "", false
	}
	var d kvDoc
	if err := ch.Doc.DataTo(&d); err == nil && d.Key != "" {
		// a removed doc keeps the writer of its last version, so deletions are always reported
		return d.Key, ch.Kind != firestore.DocumentRemoved && d.Writer == r.instance
	}
	k, err := url.PathUnescape(ch.Doc.Ref.ID)
	if err != nil {
		return "", false
	}
	return k, false
}
