// internal/storage/store.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed = errors.New("stored value is malformed")
	ErrClosed    = errors.New("store is closed")
)

// Durable keys shared by the storefront components.
const (
	KeyAuthToken      = "bookvault_auth_token"
	KeyUserRole       = "bookvault_user_role"
	KeyUserProfile    = "bookvault_user_profile"
	KeyCart           = "bookvault_cart"
	keyWishlistPrefix = "bookvault_wishlist_"
	keySealSalt       = "bookvault_seal_salt"
)

// WishlistKey returns the per-user wishlist key.
func WishlistKey(userID string) string {
	return keyWishlistPrefix + userID
}

// Store is a string-keyed durable key-value store. Implementations must be
// safe for concurrent use; read-modify-write sequences are not atomic.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ReadJSON decodes the value stored at key into v. It reports false when the
// key is absent. A value that does not decode yields ErrMalformed so callers
// can fall back to an empty state.
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return true, nil
}

// WriteJSON encodes v and stores it at key.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
