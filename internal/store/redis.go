package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage namespaces keys under Prefix. A zero TTL never expires,
// which suits local data; session data wants a TTL.
type RedisStorage struct {
	Client redis.Cmdable
	Prefix string
	TTL    time.Duration
}

func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); nil != err {
		client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return client, nil
}

func (r *RedisStorage) key(key string) string {
	return r.Prefix + key
}

func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.Client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, err
}

func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, r.key(key), value, r.TTL).Err()
}

func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	return r.Client.Del(ctx, r.key(key)).Err()
}
