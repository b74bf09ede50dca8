package redisrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaseRetryInterval = 100 * time.Millisecond

var ErrLeaseNotAcquired = errors.New("lease not acquired")

// releaseScript deletes the key only while it still holds our token, so a lease
// that expired and was taken by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes work on a key across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type leaseRepo struct {
	rdb *redis.Client
}

func newLeaseRepo(rdb *redis.Client) Locker {
	return &leaseRepo{
		rdb: rdb,
	}
}

// Acquire blocks until the lease is taken or ctx ends. The lease expires after
// ttl even if release is never called.
func (r *leaseRepo) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	ticker := time.NewTicker(leaseRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
				defer cancel()
				releaseScript.Run(ctx, r.rdb, []string{key}, token)
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLeaseNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}
