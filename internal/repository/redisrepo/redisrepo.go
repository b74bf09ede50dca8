package redisrepo

import "github.com/redis/go-redis/v9"

type RedisRepository struct {
	Default
	Locker
}

func New(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{
		Default: newCacheRepo(rdb),
		Locker:  newLeaseRepo(rdb),
	}
}
