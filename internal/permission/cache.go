package permission

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/cache"
	"github.com/frahmantamala/pos-backoffice/internal/menu"
	"github.com/frahmantamala/pos-backoffice/internal/observability"
	"github.com/samber/lo"
)

const (
	menusKeyPrefix   = "perm:menus:"
	summaryKeyPrefix = "perm:summary:"
	hierarchyKey     = "perm:hierarchy"

	familyMenus     = "menus"
	familySummary   = "summary"
	familyHierarchy = "hierarchy"
)

// Cache stores derived permission data over a cache.Backend.
//
// Reads treat any backend failure as a miss. Invalidation always deletes;
// entries are rebuilt on the next read and never patched in place. Every
// invalidation bumps an epoch, and a write whose computation started under
// an older epoch is dropped so a slow resolution cannot resurrect stale data.
type Cache struct {
	backend      cache.Backend
	userTTL      time.Duration
	hierarchyTTL time.Duration
	epoch        atomic.Uint64
	metrics      *observability.Metrics
	logger       *slog.Logger
}

func NewCache(backend cache.Backend, userTTL, hierarchyTTL time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Cache {
	return &Cache{
		backend:      backend,
		userTTL:      userTTL,
		hierarchyTTL: hierarchyTTL,
		metrics:      metrics,
		logger:       logger,
	}
}

// Epoch is captured before a resolution starts and handed back on write.
func (c *Cache) Epoch() uint64 {
	return c.epoch.Load()
}

func (c *Cache) GetMenus(ctx context.Context, username string) ([]UserMenu, bool) {
	var menus []UserMenu
	ok := c.get(ctx, familyMenus, menusKeyPrefix+username, &menus)
	return menus, ok
}

func (c *Cache) SetMenus(ctx context.Context, username string, menus []UserMenu, epoch uint64) {
	c.set(ctx, menusKeyPrefix+username, menus, c.userTTL, epoch)
}

func (c *Cache) GetSummary(ctx context.Context, username string) (map[string]Level, bool) {
	var summary map[string]Level
	ok := c.get(ctx, familySummary, summaryKeyPrefix+username, &summary)
	return summary, ok && summary != nil
}

// SetSummary replaces the whole summary entry in a single write.
func (c *Cache) SetSummary(ctx context.Context, username string, summary map[string]Level, epoch uint64) {
	c.set(ctx, summaryKeyPrefix+username, summary, c.userTTL, epoch)
}

func (c *Cache) GetHierarchy(ctx context.Context) ([]menu.Node, bool) {
	var nodes []menu.Node
	ok := c.get(ctx, familyHierarchy, hierarchyKey, &nodes)
	return nodes, ok
}

func (c *Cache) SetHierarchy(ctx context.Context, nodes []menu.Node, epoch uint64) {
	c.set(ctx, hierarchyKey, nodes, c.hierarchyTTL, epoch)
}

// InvalidateUsers drops both per-user families for each username.
func (c *Cache) InvalidateUsers(ctx context.Context, usernames ...string) error {
	usernames = lo.Uniq(lo.Compact(usernames))
	if len(usernames) == 0 {
		return nil
	}
	c.epoch.Add(1)
	c.metrics.RecordInvalidation("user")

	keys := make([]string, 0, 2*len(usernames))
	for _, u := range usernames {
		keys = append(keys, menusKeyPrefix+u, summaryKeyPrefix+u)
	}
	return c.fail("invalidate users", c.backend.Delete(ctx, keys...))
}

func (c *Cache) InvalidateAllUsers(ctx context.Context) error {
	c.epoch.Add(1)
	c.metrics.RecordInvalidation("all_users")

	return c.fail("invalidate all users", errors.Join(
		c.backend.DeletePrefix(ctx, menusKeyPrefix),
		c.backend.DeletePrefix(ctx, summaryKeyPrefix),
	))
}

func (c *Cache) InvalidateHierarchy(ctx context.Context) error {
	c.epoch.Add(1)
	c.metrics.RecordInvalidation("hierarchy")

	return c.fail("invalidate hierarchy", c.backend.Delete(ctx, hierarchyKey))
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

func (c *Cache) get(ctx context.Context, family, key string, dst interface{}) bool {
	data, err := c.backend.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrMiss):
		c.metrics.RecordCacheLookup(family, observability.CacheMiss)
		return false
	case err != nil:
		c.metrics.RecordCacheLookup(family, observability.CacheError)
		c.logger.Warn("permission cache read failed, treating as miss", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.metrics.RecordCacheLookup(family, observability.CacheError)
		c.logger.Warn("permission cache entry is corrupt, treating as miss", "key", key, "error", err)
		return false
	}
	c.metrics.RecordCacheLookup(family, observability.CacheHit)
	return true
}

func (c *Cache) set(ctx context.Context, key string, value interface{}, ttl time.Duration, epoch uint64) {
	if ctx.Err() != nil {
		return
	}
	// The check and the backend write are not atomic; an invalidation landing between them is accepted.
	if c.epoch.Load() != epoch {
		c.logger.Debug("skipping stale permission cache write", "key", key)
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to encode permission cache entry", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("permission cache write failed", "key", key, "error", err)
	}
}

func (c *Cache) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	c.logger.Error("permission cache "+op+" failed", "error", err)
	return err
}
