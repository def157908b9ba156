package watcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const cursorKeyPrefix = "formmailer:cursor:"

// redisClient is the subset of database.Redis used for cursors
type redisClient interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
}

// RedisCursorStore keeps cursors as Redis string keys.
type RedisCursorStore struct {
	rdb redisClient
}

// NewRedisCursorStore creates a new RedisCursorStore
func NewRedisCursorStore(rdb redisClient) *RedisCursorStore {
	return &RedisCursorStore{rdb: rdb}
}

// Load returns the stored position, or 0 when none is stored
func (s *RedisCursorStore) Load(ctx context.Context, key string) (int, error) {
	v, err := s.rdb.GetString(ctx, cursorKeyPrefix+key)
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	pos, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor %q: %w", v, err)
	}
	return pos, nil
}

// Save stores the position
func (s *RedisCursorStore) Save(ctx context.Context, key string, position int) error {
	return s.rdb.SetString(ctx, cursorKeyPrefix+key, strconv.Itoa(position))
}
