package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps blobs as plain string values under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to the server at url and verifies it with a ping.
func OpenRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opts.PoolSize = 4
	opts.MinIdleConns = 1
	// a failed write is surfaced, not retried
	opts.MaxRetries = 0
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Redis{client: rdb, prefix: prefix}, nil
}

func (s *Redis) key(k string) string {
	return s.prefix + k
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *Redis) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

// Rename checks the source and moves it in one MULTI/EXEC block, so a
// missing source is reported from EXISTS rather than from the error text.
func (s *Redis) Rename(ctx context.Context, from, to string) error {
	var exists *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, s.key(from))
		pipe.Rename(ctx, s.key(from), s.key(to))
		return nil
	})
	if exists != nil && exists.Err() == nil && exists.Val() == 0 {
		return ErrNotFound
	}
	return err
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Ping checks the connection health.
func (s *Redis) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (s *Redis) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
