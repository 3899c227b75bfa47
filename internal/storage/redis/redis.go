// Package redisstore keeps the snapshot document under a single redis key.
// Unlike a TTL cache the document is durable: writes never set an expiry.
package redisstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	c   *redis.Client
	key string
}

func New(addr, pass string, db int, key string) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), key)
}

// NewWithClient wraps an existing client; tests hand in a miniredis-backed one.
func NewWithClient(c *redis.Client, key string) *Store {
	return &Store{c: c, key: key}
}

func (s *Store) Read(ctx context.Context) ([]byte, bool, error) {
	data, err := s.c.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *Store) Write(ctx context.Context, data []byte) error {
	return s.c.Set(ctx, s.key, data, 0).Err()
}

func (s *Store) Close() error { return s.c.Close() }
