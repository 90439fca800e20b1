package conversation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/executive-intake/internal/types"
)

// Store persists conversations with optimistic concurrency.
//
// Load returns *NotFoundError for unknown ids. Create returns *ConflictError if the id is taken.
// Save writes conv only if the stored version equals expectedVersion, returning *ConflictError
// otherwise and *NotFoundError if the conversation does not exist. Writes are all-or-nothing.
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	Create(ctx context.Context, conv *types.Conversation) (uuid.UUID, error)
	Save(ctx context.Context, conv *types.Conversation, expectedVersion int64) error
}

// MemoryStore is an in-process Store holding deep copies of each conversation.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[uuid.UUID]*types.Conversation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[uuid.UUID]*types.Conversation)}
}

func (s *MemoryStore) Load(_ context.Context, id uuid.UUID) (*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return conv.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, conv *types.Conversation) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.convs[conv.ID]; exists {
		return uuid.Nil, &ConflictError{ID: conv.ID, ExpectedVersion: conv.Version}
	}
	s.convs[conv.ID] = conv.Clone()
	return conv.ID, nil
}

func (s *MemoryStore) Save(_ context.Context, conv *types.Conversation, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.convs[conv.ID]
	if !ok {
		return &NotFoundError{ID: conv.ID}
	}
	if current.Version != expectedVersion {
		return &ConflictError{ID: conv.ID, ExpectedVersion: expectedVersion}
	}
	s.convs[conv.ID] = conv.Clone()
	return nil
}

// Len returns the number of stored conversations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}
