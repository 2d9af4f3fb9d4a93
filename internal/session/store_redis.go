package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions as JSON values whose key TTL tracks the
// session's expiration.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Find(ctx context.Context, id string) (State, error) {
	var state State
	b, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return state, ErrNotFound
	}
	if err != nil {
		return state, errors.Wrapf(err, "error finding session with ID: %s", id)
	}
	if err = json.Unmarshal(b, &state); err != nil {
		return state, errors.Wrapf(err, "error decoding session with ID: %s", id)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, state State) error {
	ttl := time.Until(state.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, state.ID)
	}
	b, err := json.Marshal(state)
	if err != nil {
		return errors.Wrapf(err, "error encoding session with ID: %s", state.ID)
	}
	return errors.Wrapf(
		s.client.Set(ctx, redisKeyPrefix+state.ID, b, ttl).Err(),
		"error saving session with ID: %s", state.ID,
	)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return errors.Wrapf(
		s.client.Del(ctx, redisKeyPrefix+id).Err(),
		"error deleting session with ID: %s", id,
	)
}
