// Package stash keeps short-lived start payloads between the request that
// prepares a publish session and the session itself.
package stash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("stashed payload not found")

type Stash struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func New(client *redis.Client, ttl time.Duration) *Stash {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Stash{client: client, ttl: ttl}
}

func key(session string) string {
	return fmt.Sprintf("publish:payload:%s", session)
}

func (s *Stash) Put(ctx context.Context, session string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := s.client.Set(ctx, key(session), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to stash payload: %w", err)
	}
	return nil
}

func (s *Stash) Get(ctx context.Context, session string) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, key(session)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

// Take reads and removes the payload in one step.
func (s *Stash) Take(ctx context.Context, session string) (json.RawMessage, error) {
	data, err := s.client.GetDel(ctx, key(session)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take payload: %w", err)
	}
	return data, nil
}

func (s *Stash) Delete(ctx context.Context, session string) error {
	return s.client.Del(ctx, key(session)).Err()
}
