// Package cache wraps a store.Store with a Redis-backed select cache.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"corkboard-cli/internal/store"
)

const keyPrefix = "corkboard:"

// Cache serves Select from Redis when possible. Every write to a table evicts
// the cached selects of that table and of its dependent tables.
type Cache struct {
	base  store.Store
	redis *redis.Client
	ttl   time.Duration
}

var _ store.Store = (*Cache)(nil)

// New creates a caching store using the provided Redis client and TTL. A nil
// client or a zero TTL disables caching.
func New(base store.Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("cache.New: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) Select(ctx context.Context, t store.Table, f store.Filter, order ...store.Order) ([]store.Row, error) {
	key, ok := selectKey(t, f, order)
	if ok {
		if rows, hit := c.load(ctx, key); hit {
			return rows, nil
		}
	}
	rows, err := c.base.Select(ctx, t, f, order...)
	if err != nil {
		return nil, err
	}
	if ok {
		c.save(ctx, t, key, rows)
	}
	return rows, nil
}

func (c *Cache) Insert(ctx context.Context, t store.Table, row store.Row) (store.Row, error) {
	out, err := c.base.Insert(ctx, t, row)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, t)
	return out, nil
}

func (c *Cache) Update(ctx context.Context, t store.Table, f store.Filter, patch store.Row) error {
	if err := c.base.Update(ctx, t, f, patch); err != nil {
		return err
	}
	c.evict(ctx, t)
	return nil
}

func (c *Cache) Delete(ctx context.Context, t store.Table, f store.Filter) error {
	if err := c.base.Delete(ctx, t, f); err != nil {
		return err
	}
	c.evict(ctx, t)
	return nil
}

func (c *Cache) load(ctx context.Context, key string) ([]store.Row, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var rows []store.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return rows, true
}

func (c *Cache) save(ctx context.Context, t store.Table, key string, rows []store.Row) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	pipe := c.redis.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, indexKey(t), key)
	pipe.Expire(ctx, indexKey(t), c.ttl)
	_, _ = pipe.Exec(ctx)
}

func (c *Cache) evict(ctx context.Context, t store.Table) {
	if c.redis == nil {
		return
	}
	for _, table := range append([]store.Table{t}, t.Dependents()...) {
		idx := indexKey(table)
		keys, err := c.redis.SMembers(ctx, idx).Result()
		if err != nil {
			continue
		}
		_, _ = c.redis.Del(ctx, append(keys, idx)...).Result()
	}
}

// selectKey hashes the query. ok is false for queries that cannot be encoded.
func selectKey(t store.Table, f store.Filter, order []store.Order) (string, bool) {
	data, err := json.Marshal(struct {
		Filter store.Filter  `json:"f"`
		Order  []store.Order `json:"o"`
	}{f, order})
	if err != nil {
		return "", false
	}
	sum := sha1.Sum(data)
	return keyPrefix + string(t) + ":select:" + hex.EncodeToString(sum[:]), true
}

func indexKey(t store.Table) string {
	return keyPrefix + string(t) + ":keys"
}
