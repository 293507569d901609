// Package storage provides the durable on-device key/value records the client
// persists between runs: the store snapshot and the identity session.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/and161185/covered/internal/config"
)

// ErrNotFound is returned by Get for a key that was never written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// Store is a small durable key/value store. Values are opaque bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

func checkKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}

// Open builds the backend selected by cfg, sealed when an encryption key is set.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Type {
	case config.StorageFile, "":
		st, err = NewFile(filepath.Join(cfg.DataDir, "storage"))
	case config.StorageSQLite:
		st, err = OpenSQLite(ctx, filepath.Join(cfg.DataDir, "covered.db"))
	case config.StorageMemory:
		st = NewMemory()
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionKey == "" {
		return st, nil
	}
	sealed, err := NewSealed(ctx, st, cfg.EncryptionKey)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return sealed, nil
}
