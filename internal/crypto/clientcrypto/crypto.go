// Package clientcrypto seals records the client keeps on disk.
package clientcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Params
const (
	KeyLen  = 32
	SaltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1

	formatV1 byte = 1
)

// ErrSealed is returned when a blob cannot be opened with the current key.
var ErrSealed = errors.New("sealed record: authentication failed")

func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveMasterKey derives the master key from a passphrase and salt using Argon2id.
func DeriveMasterKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeyLen)
}

// Sealer encrypts named records with per-record keys derived from one master key.
type Sealer struct {
	master []byte
}

// NewSealer builds a Sealer from a passphrase and the salt stored next to the data.
func NewSealer(passphrase string, salt []byte) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	if len(salt) < SaltLen {
		return nil, errors.New("salt too short")
	}
	return &Sealer{master: DeriveMasterKey([]byte(passphrase), salt)}, nil
}

// recordKey derives the key for one record via HKDF-SHA256 with name as info.
func (s *Sealer) recordKey(name string) ([]byte, error) {
	r := hkdf.New(sha256.New, s.master, nil, []byte(name))
	key := make([]byte, KeyLen)
	_, err := r.Read(key)
	return key, err
}

// Seal encrypts plaintext bound to name: version || nonce || ciphertext.
func (s *Sealer) Seal(name string, plaintext []byte) ([]byte, error) {
	key, err := s.recordKey(name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, formatV1)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, aad(name))...)
	return out, nil
}

// Open decrypts a blob produced by Seal for the same name.
func (s *Sealer) Open(name string, blob []byte) ([]byte, error) {
	if len(blob) < 1+chacha20poly1305.NonceSizeX {
		return nil, errors.New("blob too short")
	}
	if blob[0] != formatV1 {
		return nil, errors.New("unknown blob format")
	}
	key, err := s.recordKey(name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ct := blob[1+chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, aad(name))
	if err != nil {
		return nil, ErrSealed
	}
	return pt, nil
}

func aad(name string) []byte {
	out := make([]byte, 0, 1+len(name))
	out = append(out, formatV1)
	return append(out, name...)
}
