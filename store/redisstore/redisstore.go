// Package redisstore persists conversations in Redis. Each conversation's
// history lives as one JSON-encoded value and the invocation log as a list
// the run appends to, both under a shared key prefix with an optional TTL.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turnwise/turnwise/core"
)

// Options configure the Redis-backed store.
type Options struct {
	// KeyPrefix namespaces all keys (default "turnwise").
	KeyPrefix string
	// TTL expires idle conversations; zero keeps them forever.
	TTL time.Duration
}

// Store is a conversation store backed by a Redis client. It is safe for
// concurrent use; go-redis manages its own connection pool.
type Store struct {
	client *redis.Client
	opts   Options
}

// New wraps an existing Redis client.
func New(client *redis.Client, optFns ...func(o *Options)) *Store {
	opts := Options{KeyPrefix: "turnwise"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

// NewFromURL dials Redis from a URL such as redis://localhost:6379/0 and
// verifies connectivity with a ping.
func NewFromURL(ctx context.Context, url string, optFns ...func(o *Options)) (*Store, error) {
	parsed, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, optFns...), nil
}

func (s *Store) historyKey(id string) string {
	return fmt.Sprintf("%s:conversation:%s:history", s.opts.KeyPrefix, id)
}

func (s *Store) invocationsKey(id string) string {
	return fmt.Sprintf("%s:conversation:%s:invocations", s.opts.KeyPrefix, id)
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, conversationID string) ([]core.Message, error) {
	raw, err := s.client.Get(ctx, s.historyKey(conversationID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var history []core.Message
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, conversationID string, history []core.Message, invocations []core.Invocation) error {
	encoded, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.historyKey(conversationID), encoded, s.opts.TTL)
	for _, inv := range invocations {
		record, err := json.Marshal(inv)
		if err != nil {
			return fmt.Errorf("encode invocation: %w", err)
		}
		pipe.RPush(ctx, s.invocationsKey(conversationID), record)
	}
	if s.opts.TTL > 0 {
		pipe.Expire(ctx, s.invocationsKey(conversationID), s.opts.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}
