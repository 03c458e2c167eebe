// Package store adapts the external key-value store used as the engine's
// only durable memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// drainScript reads a whole list and deletes the key in one atomic step,
// so two concurrent drains can never observe the same entries.
var drainScript = redis.NewScript(`
local entries = redis.call('LRANGE', KEYS[1], 0, -1)
redis.call('DEL', KEYS[1])
return entries
`)

// Store wraps the durable key-value store.
type Store struct {
	client *redis.Client
}

// New builds a Store over an established Redis client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get reads a key. The second return value reports whether the key exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return val, true, nil
}

// Set writes a key with no expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

// SetNX writes a key with a TTL only if it does not already exist and
// reports whether the write happened. Used as an atomic gate.
func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("store: setnx %s: %w", key, err)
	}
	return ok, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// ListPush appends values to the list at key. Duplicates are allowed at
// this layer; deduplication belongs to the consumer.
func (s *Store) ListPush(ctx context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	if err := s.client.RPush(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("store: push %s: %w", key, err)
	}
	return nil
}

// ListRead returns the full list at key in insertion order.
func (s *Store) ListRead(ctx context.Context, key string) ([]string, error) {
	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", key, err)
	}
	return vals, nil
}

// ListDrain atomically reads and removes the full list at key.
func (s *Store) ListDrain(ctx context.Context, key string) ([]string, error) {
	res, err := drainScript.Run(ctx, s.client, []string{key}).Result()
	if err != nil {
		return nil, fmt.Errorf("store: drain %s: %w", key, err)
	}
	raw, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("store: drain %s: unexpected reply %T", key, res)
	}
	entries := make([]string, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("store: drain %s: unexpected element %T", key, item)
		}
		entries = append(entries, str)
	}
	return entries, nil
}
