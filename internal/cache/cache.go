// Package cache provides the key-value backends behind the permission cache.
// Values are opaque bytes with a per-key TTL; a miss is reported as ErrMiss.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("cache: miss")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key that starts with prefix, such as "perm:menus:".
	DeletePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}
