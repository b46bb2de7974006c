// Package store persists client-local state (token, profile, cart, wishlist)
// in a key-value backend scoped to one namespace.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Fixed keys of the persisted client state.
const (
	KeyAuthToken = "auth_token"
	KeyAuthUser  = "auth_user"
	KeyCart      = "shopping_cart"
	KeyWishlist  = "ecommerce_wishlist"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes the value stored under key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
