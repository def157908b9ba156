package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cyberelites/formmailer/internal/config"
)

// Redis wraps the Redis client
type Redis struct {
	*redis.Client
}

// NewRedis creates a new Redis connection
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Redis{Client: client}, nil
}

// HealthCheck verifies the Redis connection is healthy
func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.Ping(ctx).Err()
}

// SetIfAbsent sets key to value only when it does not exist yet.
// A zero ttl means no expiry. It reports whether this call set the key.
func (r *Redis) SetIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return r.SetNX(ctx, key, value, ttl).Result()
}

// Persist removes the expiry from key
func (r *Redis) Persist(ctx context.Context, key string) error {
	return r.Client.Persist(ctx, key).Err()
}

// GetString retrieves a string value
func (r *Redis) GetString(ctx context.Context, key string) (string, error) {
	return r.Get(ctx, key).Result()
}

// SetString stores a string value without expiry
func (r *Redis) SetString(ctx context.Context, key, value string) error {
	return r.Set(ctx, key, value, 0).Err()
}

// Delete removes a key
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	return r.Del(ctx, keys...).Err()
}

// Incr increments a key's value
func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.Client.Incr(ctx, key).Result()
}

// Expire sets a TTL on an existing key
func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.Client.Expire(ctx, key, ttl).Err()
}

// HashSet stores field in the hash at key
func (r *Redis) HashSet(ctx context.Context, key, field, value string) error {
	return r.HSet(ctx, key, field, value).Err()
}

// HashValues returns all values of the hash at key
func (r *Redis) HashValues(ctx context.Context, key string) ([]string, error) {
	return r.HVals(ctx, key).Result()
}

// TimeToLive returns the remaining lifetime of key
func (r *Redis) TimeToLive(ctx context.Context, key string) (time.Duration, error) {
	return r.TTL(ctx, key).Result()
}
