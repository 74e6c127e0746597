package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tagbot:session:"

// RedisStore keeps records in Redis so workflows survive restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, actor int64) (*Record, error) {
	val, err := s.client.Get(ctx, s.key(actor)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(rec.Actor), val, s.ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, actor int64) error {
	return s.client.Del(ctx, s.key(actor)).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(actor int64) string {
	return redisKeyPrefix + strconv.FormatInt(actor, 10)
}
