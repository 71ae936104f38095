package storage

import (
	"context"
)

// KV is the flat key-value capability games are persisted through. It
// plays the part of browser-local storage: string keys, string values.
type KV interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetAll writes every entry or none of them.
	SetAll(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}
