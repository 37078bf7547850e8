// internal/domain/localstore/port.go
package localstore

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrWatchUnsupported = errors.New("localstore: watch is not supported by this backend")
	ErrEmptyKey         = errors.New("localstore: key is empty")
)

// Keys of the persisted layout.
//   - session           : token + user record
//   - cart:<ownerKey>   : serialized item list of one partition (guest = cart:guest)
//   - cart_reconciled   : fingerprint of the last session whose guest cart was migrated
const (
	KeySession      = "session"
	KeyReconciled   = "cart_reconciled"
	partitionPrefix = "cart:"
)

func PartitionKey(owner string) string {
	return partitionPrefix + strings.TrimSpace(owner)
}

// IsPartitionKey reports whether key names a cart partition.
func IsPartitionKey(key string) bool {
	return strings.HasPrefix(key, partitionPrefix)
}

// Store is the synchronous key-value substrate (the "local storage").
// Get returns ok=false for a missing key; it is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Watcher reports changes to persisted state made from another context
// (another process, another handle). Watch blocks until ctx is done and calls fn
// with the changed key. Backends that cannot tell their own writes apart may also
// report them; consumers must treat notifications as idempotent reload hints.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}
