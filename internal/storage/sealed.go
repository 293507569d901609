package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/covered/internal/crypto/clientcrypto"
)

// SaltKey holds the key-derivation salt next to the sealed records.
const SaltKey = "covered-storage-salt"

// Sealed encrypts every value before handing it to the wrapped Store.
type Sealed struct {
	inner  Store
	sealer *clientcrypto.Sealer
}

// NewSealed wraps inner; the salt is created on first use and reused afterwards.
func NewSealed(ctx context.Context, inner Store, passphrase string) (*Sealed, error) {
	salt, err := inner.Get(ctx, SaltKey)
	if errors.Is(err, ErrNotFound) {
		salt, err = clientcrypto.Rand(clientcrypto.SaltLen)
		if err != nil {
			return nil, fmt.Errorf("storage: salt: %w", err)
		}
		if err := inner.Set(ctx, SaltKey, salt); err != nil {
			return nil, fmt.Errorf("storage: save salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("storage: load salt: %w", err)
	}
	s, err := clientcrypto.NewSealer(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &Sealed{inner: inner, sealer: s}, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.sealer.Open(key, blob)
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	if key == SaltKey {
		return fmt.Errorf("storage: key %q is reserved", key)
	}
	blob, err := s.sealer.Seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, blob)
}

func (s *Sealed) Delete(ctx context.Context, key string) error { return s.inner.Delete(ctx, key) }

func (s *Sealed) Close() error { return s.inner.Close() }
