package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default is the cache surface the services use. memory.Cache implements it
// for storage.driver=memory.
type Default interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
}

type cacheRepo struct {
	rdb *redis.Client
}

func newCacheRepo(rdb *redis.Client) Default {
	return &cacheRepo{rdb: rdb}
}

func (r *cacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *cacheRepo) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Set(ctx, key, encoded, ttl)
}

func (r *cacheRepo) Get(ctx context.Context, key string) *redis.StringCmd {
	return r.rdb.Get(ctx, key)
}

func (r *cacheRepo) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return r.rdb.Del(ctx, keys...)
}

func (r *cacheRepo) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	return r.rdb.Keys(ctx, pattern)
}

// decode reads key and unmarshals it into dst. A miss surfaces as redis.Nil.
func decode(r Default, ctx context.Context, key string, dst interface{}) error {
	raw, err := r.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// Get returns the value SetJSON stored under key. A cached JSON null yields (nil, nil).
func Get[T any](r Default, ctx context.Context, key string) (*T, error) {
	var result *T
	if err := decode(r, ctx, key, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetMany is Get for cached lists; a cached null is an empty page.
func GetMany[T any](r Default, ctx context.Context, key string) ([]*T, error) {
	var result []*T
	if err := decode(r, ctx, key, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = []*T{}
	}
	return result, nil
}

// DelPattern removes every key matching pattern.
func DelPattern(r Default, ctx context.Context, pattern string) error {
	keys, err := r.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return err
	}
	return r.Del(ctx, keys...).Err()
}
