package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// Cache mimics the subset of redis used by redisrepo.Default, returning the same
// command types so callers handle redis.Nil identically.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
}

func NewCache() *Cache {
	return &Cache{
		items: make(map[string]cacheItem),
	}
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		str = fmt.Sprint(v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item := cacheItem{value: str}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	c.items[key] = item

	return nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, valueJSON, ttl)
}

func (c *Cache) Get(ctx context.Context, key string) *redis.StringCmd {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || item.expired() {
		return redis.NewStringResult("", redis.Nil)
	}

	return redis.NewStringResult(item.value, nil)
}

func (c *Cache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	for _, key := range keys {
		if _, ok := c.items[key]; ok {
			delete(c.items, key)
			n++
		}
	}

	return redis.NewIntResult(n, nil)
}

func (c *Cache) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := []string{}
	for key, item := range c.items {
		if item.expired() {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}

	return redis.NewStringSliceResult(keys, nil)
}

func (i cacheItem) expired() bool {
	return !i.expiresAt.IsZero() && time.Now().After(i.expiresAt)
}
