package clientcrypto

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"testing"
)

func TestRand_LengthUniq(t *testing.T) {
	t.Parallel()
	const n = 48
	a, err := Rand(n)
	if err != nil {
		t.Fatalf("Rand: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, _ := Rand(n)
	if bytes.Equal(a, b) {
		t.Fatalf("Rand produced equal slices")
	}
}

func TestDeriveMasterKey_DeterministicAndSaltDependent(t *testing.T) {
	t.Parallel()
	pw := []byte("secret-pass")
	s1 := []byte("salt-1----------")
	s2 := []byte("salt-2----------")
	k1 := DeriveMasterKey(pw, s1)
	if subtle.ConstantTimeCompare(k1, DeriveMasterKey(pw, s1)) != 1 {
		t.Fatalf("DeriveMasterKey not deterministic")
	}
	if subtle.ConstantTimeCompare(k1, DeriveMasterKey(pw, s2)) != 0 {
		t.Fatalf("DeriveMasterKey must change with salt")
	}
	if subtle.ConstantTimeCompare(k1, DeriveMasterKey([]byte("other"), s1)) != 0 {
		t.Fatalf("DeriveMasterKey must change with passphrase")
	}
}

func newTestSealer(t *testing.T, pass string, salt []byte) *Sealer {
	t.Helper()
	s, err := NewSealer(pass, salt)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return s
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()
	salt, _ := Rand(SaltLen)
	s := newTestSealer(t, "pw", salt)

	pt := []byte(`{"state":{"homes":[]},"version":1}`)
	blob, err := s.Seal("covered-app-storage", pt)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(blob, pt) {
		t.Fatalf("blob contains plaintext")
	}
	out, err := s.Open("covered-app-storage", blob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(out, pt) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestOpen_Failures(t *testing.T) {
	t.Parallel()
	salt, _ := Rand(SaltLen)
	s := newTestSealer(t, "pw", salt)
	blob, _ := s.Seal("a", []byte("payload"))

	if _, err := s.Open("b", blob); !errors.Is(err, ErrSealed) {
		t.Fatalf("Open with other name: got %v, want ErrSealed", err)
	}
	other := newTestSealer(t, "pw2", salt)
	if _, err := other.Open("a", blob); !errors.Is(err, ErrSealed) {
		t.Fatalf("Open with other key: got %v, want ErrSealed", err)
	}
	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := s.Open("a", tampered); err == nil {
		t.Fatalf("Open tampered must fail")
	}
	if _, err := s.Open("a", []byte{1, 2, 3}); err == nil {
		t.Fatalf("Open short blob must fail")
	}
}

func TestNewSealer_Rejects(t *testing.T) {
	t.Parallel()
	if _, err := NewSealer("", make([]byte, SaltLen)); err == nil {
		t.Fatalf("empty passphrase must fail")
	}
	if _, err := NewSealer("pw", []byte("short")); err == nil {
		t.Fatalf("short salt must fail")
	}
}
