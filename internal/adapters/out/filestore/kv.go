// internal/adapters/out/filestore/kv.go
package filestore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/MaYdaN875/Papeleria-store-sub000/internal/domain/localstore"
)

const (
	ext       = ".json"
	tmpPrefix = ".tmp-"
	// deleted marks a key this handle removed itself
	deleted = "-"
)

// KV stores one file per key under dir.
// Several processes may share dir; Watch reports the writes of the others.
type KV struct {
	dir string
	log *zap.Logger

	mu   sync.Mutex
	self map[string]string // key -> digest of the last write made through this handle
}

var (
	_ localstore.Store   = (*KV)(nil)
	_ localstore.Watcher = (*KV)(nil)
)

func New(dir string, log *zap.Logger) (*KV, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("filestore: dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KV{
		dir:  dir,
		log:  log.Named("kv.file").With(zap.String("dir", dir)),
		self: map[string]string{},
	}, nil
}

func (kv *KV) Dir() string { return kv.dir }

func (kv *KV) path(key string) string {
	return filepath.Join(kv.dir, url.QueryEscape(key)+ext)
}

func keyFromPath(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, tmpPrefix) || !strings.HasSuffix(base, ext) {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(base, ext))
	if err != nil {
		return "", false
	}
	return key, true
}

func (kv *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, localstore.ErrEmptyKey
	}
	b, err := os.ReadFile(kv.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("filestore: read %s: %w", key, err)
	}
	return b, true, nil
}

// Set writes value atomically (temp file + rename).
func (kv *KV) Set(_ context.Context, key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return localstore.ErrEmptyKey
	}

	tmp, err := os.CreateTemp(kv.dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("filestore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close %s: %w", key, err)
	}

	kv.remember(key, digest(value))
	if err := os.Rename(tmpName, kv.path(key)); err != nil {
		return fmt.Errorf("filestore: rename %s: %w", key, err)
	}
	return nil
}

func (kv *KV) Delete(_ context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return localstore.ErrEmptyKey
	}
	kv.remember(key, deleted)
	err := os.Remove(kv.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: delete %s: %w", key, err)
	}
	return nil
}

// Watch reports changes under dir made by other handles until ctx is done.
func (kv *KV) Watch(ctx context.Context, fn func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filestore: watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(kv.dir); err != nil {
		return fmt.Errorf("filestore: watch %s: %w", kv.dir, err)
	}
	kv.log.Debug("watching")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			key, ok := keyFromPath(ev.Name)
			if !ok || kv.isOwnWrite(key) {
				continue
			}
			fn(key)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			kv.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (kv *KV) remember(key, d string) {
	kv.mu.Lock()
	kv.self[key] = d
	kv.mu.Unlock()
}

// isOwnWrite compares the current file with the last write made through this handle.
func (kv *KV) isOwnWrite(key string) bool {
	kv.mu.Lock()
	last, ok := kv.self[key]
	kv.mu.Unlock()
	if !ok {
		return false
	}

	b, err := os.ReadFile(kv.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return last == deleted
	}
	if err != nil {
		return false
	}
	return digest(b) == last
}

func digest(b []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return fmt.Sprintf("%x", h.Sum64())
}
