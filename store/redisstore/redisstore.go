// Package redisstore keeps one SDK session in a Redis hash, so several
// processes serving the same user session share one token.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-albis-sdk/store"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "albis:session:"

var (
	_ store.Store     = (*Store)(nil)
	_ store.Destroyer = (*Store)(nil)
)

type Store struct {
	client redis.Cmdable
	prefix string
	key    string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL refreshes the session hash expiry on every write. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix replaces the default "albis:session:" key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New binds the store to sessionID.
func New(client redis.Cmdable, sessionID string, options ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range options {
		opt(s)
	}
	s.key = s.prefix + sessionID
	return s
}

// NewFromOptions dials a new client.
func NewFromOptions(opt *redis.Options, sessionID string, options ...Option) *Store {
	return New(redis.NewClient(opt), sessionID, options...)
}

// Key is the Redis key of the session hash.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.ttl <= 0 {
		return s.client.HSet(ctx, s.key, key, value).Err()
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, key, value)
		pipe.Expire(ctx, s.key, s.ttl)
		return nil
	})
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.HDel(ctx, s.key, key).Err()
}

// Destroy removes the whole session hash.
func (s *Store) Destroy(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
