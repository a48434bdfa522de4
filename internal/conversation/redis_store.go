package conversation

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flint:"

// RedisStore keeps history in Redis so it can follow the user across
// machines. Keys are namespaced with "flint:".
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
