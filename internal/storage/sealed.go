// internal/storage/sealed.go
package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealSaltLen  = 16
	sealNonceLen = 24
	sealKeyLen   = 32
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// SealedStore encrypts every value before handing it to the inner store.
// The argon2 salt is kept in the inner store under its own key.
type SealedStore struct {
	inner Store
	key   [sealKeyLen]byte
}

// NewSealedStore derives the box key from secret. The salt is created on first
// use and reused afterwards so existing values stay readable.
func NewSealedStore(ctx context.Context, inner Store, secret string) (*SealedStore, error) {
	salt, err := loadSalt(ctx, inner)
	if err != nil {
		return nil, err
	}
	s := &SealedStore{inner: inner}
	copy(s.key[:], argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, sealKeyLen))
	return s, nil
}

func loadSalt(ctx context.Context, inner Store) ([]byte, error) {
	raw, ok, err := inner.Get(ctx, keySealSalt)
	if err != nil {
		return nil, fmt.Errorf("load seal salt: %w", err)
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(raw)
		if err == nil && len(salt) == sealSaltLen {
			return salt, nil
		}
		return nil, fmt.Errorf("%w: seal salt", ErrMalformed)
	}
	salt := make([]byte, sealSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if err := inner.Set(ctx, keySealSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("store seal salt: %w", err)
	}
	return salt, nil
}

func (s *SealedStore) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(sealed) < sealNonceLen {
		return "", false, fmt.Errorf("%w: %s", ErrMalformed, key)
	}
	var nonce [sealNonceLen]byte
	copy(nonce[:], sealed[:sealNonceLen])
	plain, opened := secretbox.Open(nil, sealed[sealNonceLen:], &nonce, &s.key)
	if !opened {
		return "", false, fmt.Errorf("%w: %s cannot be opened", ErrMalformed, key)
	}
	return string(plain), true, nil
}

func (s *SealedStore) Set(ctx context.Context, key, value string) error {
	var nonce [sealNonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}
