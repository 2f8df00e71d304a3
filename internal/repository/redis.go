package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"courtbook/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a lock could not be acquired before the
// caller's deadline. It signals contention, not a broken backend.
var ErrLockTimeout = errors.New("lock wait timed out")

const (
	lockKeyPrefix    = "courtbook:lock:"
	lockPollInterval = 25 * time.Millisecond
	unlockTimeout    = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisClient builds a client from the redis config section.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

// RedisDateLocker holds a per-key lease (SET NX PX) shared by every process
// pointed at the same Redis.
type RedisDateLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDateLocker(client *redis.Client, ttl time.Duration) *RedisDateLocker {
	return &RedisDateLocker{client: client, ttl: ttl}
}

func (r *RedisDateLocker) Lock(ctx context.Context, key string) (func(), error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	redisKey := lockKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("lock %s: %w: %w", key, ErrLockTimeout, ctxErr)
			}
			return nil, fmt.Errorf("failed to acquire lock in redis: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w: %w", key, ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
			defer cancel()
			// A failed release leaves the lease to expire after ttl.
			_ = releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err()
		})
	}, nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the client; a nil client is a no-op.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
