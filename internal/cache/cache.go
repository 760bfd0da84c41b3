// Package cache memoises warehouse reads keyed by their query text.
//
// Entries always expire. With Redis configured the store is shared between
// replicas and a distlock guards each fill; otherwise an in-process map and a
// local lock are used.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ignite/customer360/internal/pkg/distlock"
	"github.com/ignite/customer360/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var log = logger.With("component", "cache")

const (
	DefaultTTL       = 10 * time.Minute
	DefaultLockTTL   = 2 * time.Minute
	DefaultKeyPrefix = "c360:q:"
)

// Config controls entry lifetime and key namespacing.
type Config struct {
	TTL       time.Duration `yaml:"ttl"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.LockTTL <= 0 {
		c.LockTTL = DefaultLockTTL
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	return c
}

// Stats counts cache outcomes since startup.
type Stats struct {
	Hits        int64  `json:"hits"`
	Misses      int64  `json:"misses"`
	ReadThrough int64  `json:"read_through"`
	Backend     string `json:"backend"`
}

// Cache is safe for concurrent use.
type Cache struct {
	store  Store
	redis  *redis.Client
	config Config

	hits        atomic.Int64
	misses      atomic.Int64
	readThrough atomic.Int64
}

// New builds a cache on Redis when client is non-nil, in memory otherwise.
func New(cfg Config, client *redis.Client) *Cache {
	var store Store
	if client != nil {
		store = NewRedisStore(client)
	} else {
		store = NewMemoryStore()
	}
	return &Cache{store: store, redis: client, config: cfg.withDefaults()}
}

// NewWithStore is used by tests and callers that bring their own Store.
// Fills are guarded by a process-local lock.
func NewWithStore(cfg Config, store Store) *Cache {
	return &Cache{store: store, config: cfg.withDefaults()}
}

// Key derives the storage key for a query.
func (c *Cache) Key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return c.config.KeyPrefix + hex.EncodeToString(sum[:16])
}

// Invalidate drops the entry for query so the next read hits the warehouse.
func (c *Cache) Invalidate(ctx context.Context, query string) error {
	return c.store.Delete(ctx, c.Key(query))
}

// Stats returns a snapshot of the hit counters.
func (c *Cache) Stats() Stats {
	backend := "memory"
	if c.redis != nil {
		backend = "redis"
	}
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		ReadThrough: c.readThrough.Load(),
		Backend:     backend,
	}
}

// Remember returns the cached value for query or calls load and stores its
// result for the configured TTL. Store failures degrade to a plain load.
// When another holder is filling the same key, load runs without writing.
func Remember[T any](ctx context.Context, c *Cache, query string, load func(context.Context) (T, error)) (T, error) {
	key := c.Key(query)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		jerr := json.Unmarshal(data, &v)
		if jerr == nil {
			c.hits.Add(1)
			return v, nil
		}
		log.Warn("cache entry undecodable, reloading", "key", key, "error", jerr)
	case !errors.Is(err, ErrMiss):
		log.Warn("cache read failed", "key", key, "error", err)
	}
	c.misses.Add(1)

	lock := distlock.NewLock(c.redis, "fill:"+key, c.config.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Warn("cache fill lock failed", "key", key, "error", err)
	}
	if !acquired {
		c.readThrough.Add(1)
		return load(ctx)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("cache fill unlock failed", "key", key, "error", err)
		}
	}()

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		log.Warn("cache encode failed", "key", key, "error", err)
		return v, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.config.TTL); err != nil {
		log.Warn("cache write failed", "key", key, "error", err)
	}
	return v, nil
}
