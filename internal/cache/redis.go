package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed implementation of KV. TTL handling is
// delegated to Redis itself; DeletePrefix is a SCAN+DEL sweep.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisStore creates a KV backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		ctx:    context.Background(),
	}
}

func (s *RedisStore) Get(key string) ([]byte, error) {
	data, err := s.client.Get(s.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Put(key string, value []byte, ttl time.Duration) error {
	return s.client.Set(s.ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(key string) error {
	return s.client.Del(s.ctx, key).Err()
}

// DeletePrefix scans for keys matching prefix* and deletes them one by one.
// A delete that fails for one key does not abort the sweep; the first error
// is reported after the scan completes.
func (s *RedisStore) DeletePrefix(prefix string) (int, error) {
	var count int
	var firstErr error
	iter := s.client.Scan(s.ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(s.ctx) {
		if err := s.client.Del(s.ctx, iter.Val()).Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		count++
	}
	if err := iter.Err(); err != nil && firstErr == nil {
		firstErr = err
	}
	return count, firstErr
}
