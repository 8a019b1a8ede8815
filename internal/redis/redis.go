// Package redis provides a per-resource lock shared by every server process
// that points at the same Redis instance.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix    = "fleet:lock:"
	defaultTTL   = 30 * time.Second
	retryBackoff = 25 * time.Millisecond
)

// releaseScript deletes the lock only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func NewClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// Locker takes SET NX PX locks. A lock outlives a crashed holder by at most
// its TTL.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Locker{rdb: rdb, ttl: ttl}
}

// Lock blocks until key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	k := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			log.Error().Err(err).Str("key", k).Msg("redis lock failed")
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}

	return func() {
		// release even if the caller's context is already cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{k}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("key", k).Msg("redis unlock failed")
		}
	}, nil
}

// Ping checks connectivity at startup.
func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
