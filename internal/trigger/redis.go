package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cyberelites/formmailer/internal/model"
)

const (
	triggersKey   = "formmailer:triggers"
	flagKeyPrefix = "formmailer:trigger_flag:"
)

// redisClient is the subset of database.Redis used here
type redisClient interface {
	HashSet(ctx context.Context, key, field, value string) error
	HashValues(ctx context.Context, key string) ([]string, error)
	SetIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Persist(ctx context.Context, key string) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisRegistry keeps triggers in a Redis hash keyed by trigger ID.
type RedisRegistry struct {
	rdb redisClient
	now func() time.Time
}

// NewRedisRegistry creates a new RedisRegistry
func NewRedisRegistry(rdb redisClient) *RedisRegistry {
	return &RedisRegistry{rdb: rdb, now: time.Now}
}

// ListTriggers returns all triggers ordered by creation time
func (r *RedisRegistry) ListTriggers(ctx context.Context) ([]model.Trigger, error) {
	values, err := r.rdb.HashValues(ctx, triggersKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read triggers: %w", err)
	}

	triggers := make([]model.Trigger, 0, len(values))
	for _, v := range values {
		var t model.Trigger
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("failed to decode trigger: %w", err)
		}
		triggers = append(triggers, t)
	}
	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].CreatedAt.Before(triggers[j].CreatedAt)
	})
	return triggers, nil
}

// CreateFormSubmitTrigger stores a new trigger binding source to handlerName
func (r *RedisRegistry) CreateFormSubmitTrigger(ctx context.Context, handlerName, source string) (model.Trigger, error) {
	t := model.Trigger{
		ID:          uuid.New().String(),
		HandlerName: handlerName,
		Source:      source,
		CreatedAt:   r.now().UTC(),
	}

	data, err := json.Marshal(t)
	if err != nil {
		return model.Trigger{}, fmt.Errorf("failed to encode trigger: %w", err)
	}
	if err := r.rdb.HashSet(ctx, triggersKey, t.ID, string(data)); err != nil {
		return model.Trigger{}, fmt.Errorf("failed to store trigger: %w", err)
	}
	return t, nil
}

// RedisFlagStore keeps registration flags as plain Redis keys.
type RedisFlagStore struct {
	rdb redisClient
}

// NewRedisFlagStore creates a new RedisFlagStore
func NewRedisFlagStore(rdb redisClient) *RedisFlagStore {
	return &RedisFlagStore{rdb: rdb}
}

// Claim sets the flag with SETNX and an expiry
func (s *RedisFlagStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetIfAbsent(ctx, flagKeyPrefix+key, "1", ttl)
}

// Settle drops the flag's expiry
func (s *RedisFlagStore) Settle(ctx context.Context, key string) error {
	return s.rdb.Persist(ctx, flagKeyPrefix+key)
}

// Clear removes the flag
func (s *RedisFlagStore) Clear(ctx context.Context, key string) error {
	return s.rdb.Delete(ctx, flagKeyPrefix+key)
}
