package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKV is the part of redis.Cmdable the store uses.
type redisKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps session snapshots as JSON values that expire after ttl.
type RedisStore struct {
	client redisKV
	prefix string
	ttl    time.Duration
}

// NewRedisStore stores keys as "<prefix><session id>".
func NewRedisStore(client redisKV, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "thumbgen:session:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Save(ctx context.Context, st SessionState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("editor: encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(st.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("editor: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (SessionState, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return SessionState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return SessionState{}, fmt.Errorf("editor: redis get: %w", err)
	}
	var st SessionState
	if err := json.Unmarshal(payload, &st); err != nil {
		return SessionState{}, fmt.Errorf("editor: decode session: %w", err)
	}
	return st, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("editor: redis del: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
