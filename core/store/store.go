// Package store defines persistence for conversation transcripts.
package store

import (
	"context"
	"sync"

	"github.com/mindfuljourney/voicechat-core/core/providers"
)

// MessageStore persists conversation messages per session. Implementations
// must keep List ordered by creation time.
type MessageStore interface {
	Save(ctx context.Context, sessionID string, msg providers.Message) error
	List(ctx context.Context, sessionID string) ([]providers.Message, error)
}

// MemoryStore is an in-process MessageStore, used as the default when no
// external persistence is configured.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]providers.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string][]providers.Message{}}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, msg providers.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

func (s *MemoryStore) List(_ context.Context, sessionID string) ([]providers.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]providers.Message, len(s.sessions[sessionID]))
	copy(messages, s.sessions[sessionID])
	return messages, nil
}
