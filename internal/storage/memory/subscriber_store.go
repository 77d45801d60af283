package memory

import (
	"context"
	"sort"
	"sync"

	"gemwatch/internal/domain"
	"gemwatch/internal/storage"
)

// SubscriberStore is an in-memory implementation of storage.SubscriberStore.
type SubscriberStore struct {
	mu   sync.RWMutex
	byID map[int64]*domain.Subscriber
}

// NewSubscriberStore creates a new in-memory subscriber store.
func NewSubscriberStore() *SubscriberStore {
	return &SubscriberStore{byID: make(map[int64]*domain.Subscriber)}
}

var _ storage.SubscriberStore = (*SubscriberStore)(nil)

// Add registers a subscriber. Re-adding an existing chat ID is a no-op.
func (s *SubscriberStore) Add(_ context.Context, sub *domain.Subscriber) error {
	if sub == nil || sub.ChatID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[sub.ChatID]; exists {
		return nil
	}
	subCopy := *sub
	s.byID[sub.ChatID] = &subCopy
	return nil
}

// Remove deletes a subscriber. Removing an unknown chat ID is a no-op.
func (s *SubscriberStore) Remove(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byID, chatID)
	return nil
}

// List returns a snapshot of all subscribers, ordered by chat ID for
// deterministic iteration.
func (s *SubscriberStore) List(_ context.Context) ([]*domain.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Subscriber, 0, len(s.byID))
	for _, sub := range s.byID {
		subCopy := *sub
		result = append(result, &subCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ChatID < result[j].ChatID })
	return result, nil
}
