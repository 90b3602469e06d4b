package appstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists state in Redis so it survives CLI invocations and is
// shared by server replicas. Subscribers are notified for writes made through
// this instance only; cross-process change feeds are not provided.
type RedisStore struct {
	client *redis.Client
	prefix string
	watchers
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedisStore connects to addr and verifies the connection with PING.
func DialRedisStore(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("appstate: redis ping %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("appstate: redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("appstate: redis set %s: %w", key, err)
	}
	s.notify(key, value, false)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("appstate: redis del %s: %w", key, err)
	}
	s.notify(key, "", true)
	return nil
}

// maxUpdateAttempts bounds optimistic retries when another writer touches the
// watched key between read and commit.
const maxUpdateAttempts = 16

// Update runs fn inside WATCH/MULTI and retries when the key changed underneath.
func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if key == "" {
		return ErrEmptyKey
	}
	full := s.prefix + key
	var (
		next    string
		skipped bool
	)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Result()
		ok := true
		switch {
		case errors.Is(err, redis.Nil):
			ok = false
		case err != nil:
			return err
		}
		next, err = fn(current, ok)
		if errors.Is(err, ErrSkipUpdate) {
			skipped = true
			return nil
		}
		if err != nil {
			return err
		}
		skipped = false
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("appstate: redis update %s: %w", key, err)
		}
		if !skipped {
			s.notify(key, next, false)
		}
		return nil
	}
	return fmt.Errorf("appstate: redis update %s: %w", key, redis.TxFailedErr)
}

func (s *RedisStore) Subscribe(key string, fn ChangeFunc) func() {
	return s.subscribe(key, fn)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
