package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is an in-process LRU for single-instance deployments and tests.
// The LRU evicts at maxTTL; shorter per-key TTLs are enforced on read.
type MemoryBackend struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

func NewMemoryBackend(size int, maxTTL time.Duration) *MemoryBackend {
	if size <= 0 {
		size = 1024
	}
	return &MemoryBackend{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := b.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !entry.expiresAt.IsZero() && !b.now().Before(entry.expiresAt) {
		b.lru.Remove(key)
		return nil, ErrMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = b.now().Add(ttl)
	}
	b.lru.Add(key, entry)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		b.lru.Remove(key)
	}
	return nil
}

func (b *MemoryBackend) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range b.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			b.lru.Remove(key)
		}
	}
	return nil
}

func (b *MemoryBackend) Ping(context.Context) error {
	return nil
}

func (b *MemoryBackend) Len() int {
	return b.lru.Len()
}
