// Package kv provides the key-value media that analytics records live in.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store is closed")

// Store is a durable string key-value medium. Get reports ok=false for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	// Keys returns the keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
