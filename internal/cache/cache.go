package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"activity-archive/internal/models"
)

const (
	keyPrefix  = "activity:"
	defaultTTL = 5 * time.Minute
)

// KV is the slice of the Redis client the cache needs. Every write fully
// replaces the value for a key; there are no read-modify-write operations.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

// ActivityCache is a TTL-bounded cache of fetched event sequences, keyed by
// username. It is a pure optimization layer: the store stays the system of
// record, and every cache failure degrades to a miss or a skipped write.
type ActivityCache struct {
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

func New(logger *slog.Logger, kv KV) *ActivityCache {
	return &ActivityCache{kv: kv, ttl: defaultTTL, logger: logger}
}

// NewWithTTL is used by tests that need a short expiry.
func NewWithTTL(logger *slog.Logger, kv KV, ttl time.Duration) *ActivityCache {
	return &ActivityCache{kv: kv, ttl: ttl, logger: logger}
}

// Get returns the cached events for username, or (nil, false) on a miss.
// Absent keys, expired entries, and corrupt stored values all count as
// misses; corruption is never surfaced as an error.
func (c *ActivityCache) Get(ctx context.Context, username string) ([]models.Event, bool) {
	raw, err := c.kv.Get(ctx, keyPrefix+username)
	if err != nil {
		c.logger.Warn("cache_read_failed", "username", username, "error", err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var events []models.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		c.logger.Error("cache_entry_corrupt", "username", username, "error", err)
		return nil, false
	}

	c.logger.Info("cache_hit", "username", username, "events", len(events))
	return events, true
}

// Put stores the events under the fixed TTL, overwriting any prior entry.
// Failures are logged and swallowed; a cache write must never fail the
// caller's request.
func (c *ActivityCache) Put(ctx context.Context, username string, events []models.Event) {
	raw, err := json.Marshal(events)
	if err != nil {
		c.logger.Error("cache_encode_failed", "username", username, "error", err)
		return
	}
	if err := c.kv.Set(ctx, keyPrefix+username, string(raw), c.ttl); err != nil {
		c.logger.Error("cache_write_failed", "username", username, "error", err)
		return
	}
	c.logger.Info("cache_write", "username", username, "events", len(events))
}

// Invalidate removes the entry for username and reports whether a removal
// occurred.
func (c *ActivityCache) Invalidate(ctx context.Context, username string) bool {
	removed, err := c.kv.Del(ctx, keyPrefix+username)
	if err != nil {
		c.logger.Warn("cache_invalidate_failed", "username", username, "error", err)
		return false
	}
	if removed > 0 {
		c.logger.Info("cache_invalidated", "username", username)
	}
	return removed > 0
}
