// Package store defines the conversation persistence contract the runner
// consumes and provides a volatile in-memory implementation. Durable
// backends live in the subpackages (sqlite, redisstore). The engine works
// correctly with an absent or failing store: load failures degrade to "no
// prior history" and save failures are logged, never propagated.
package store

import (
	"context"
	"sync"

	"github.com/turnwise/turnwise/core"
)

// Store supplies prior history for a conversation and accepts the post-run
// history plus invocation log for persistence.
type Store interface {
	// Load returns the stored history for the conversation, or an empty
	// slice when the conversation is unknown.
	Load(ctx context.Context, conversationID string) ([]core.Message, error)

	// Save replaces the stored history for the conversation and appends the
	// run's invocation records.
	Save(ctx context.Context, conversationID string, history []core.Message, invocations []core.Invocation) error
}

// InMemory is a volatile Store keeping conversations in a process-local map.
// It is safe for concurrent access and best suited for tests or ephemeral
// demo servers. Returned slices are copies so callers cannot mutate the
// stored state.
type InMemory struct {
	mu            sync.RWMutex
	conversations map[string][]core.Message
	invocations   map[string][]core.Invocation
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		conversations: make(map[string][]core.Message),
		invocations:   make(map[string][]core.Invocation),
	}
}

// Load implements Store.
func (s *InMemory) Load(_ context.Context, conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.conversations[conversationID]
	out := make([]core.Message, len(stored))
	copy(out, stored)
	return out, nil
}

// Save implements Store.
func (s *InMemory) Save(_ context.Context, conversationID string, history []core.Message, invocations []core.Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]core.Message, len(history))
	copy(stored, history)
	s.conversations[conversationID] = stored
	s.invocations[conversationID] = append(s.invocations[conversationID], invocations...)
	return nil
}

// Invocations returns the accumulated invocation log for a conversation.
func (s *InMemory) Invocations(conversationID string) []core.Invocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.invocations[conversationID]
	out := make([]core.Invocation, len(stored))
	copy(out, stored)
	return out
}
