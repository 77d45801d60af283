package memory

import (
	"context"
	"strings"
	"sync"

	"gemwatch/internal/domain"
	"gemwatch/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
// A single mutex serializes all access, which satisfies the per-token
// linearizability contract at low update volume.
type TokenStore struct {
	mu      sync.RWMutex
	records map[string]*domain.TokenRecord
	updates map[string][]*domain.MarketUpdate // insertion order per token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		records: make(map[string]*domain.TokenRecord),
		updates: make(map[string][]*domain.MarketUpdate),
	}
}

var _ storage.TokenStore = (*TokenStore)(nil)

// GetRecord retrieves the record for a token. Returns ErrNotFound if the
// token has never been observed.
func (s *TokenStore) GetRecord(_ context.Context, tokenID string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[tokenID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recordCopy := *r
	return &recordCopy, nil
}

// CountUpdates counts recorded capitalization changes, excluding first_seen.
func (s *TokenStore) CountUpdates(_ context.Context, tokenID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, u := range s.updates[tokenID] {
		if u.ChangeType != domain.ChangeFirstSeen {
			count++
		}
	}
	return count, nil
}

// ApplyMutation applies the record change and appends the audit row
// atomically under the store lock.
func (s *TokenStore) ApplyMutation(_ context.Context, m *domain.Mutation) error {
	if m == nil {
		return storage.ErrInvalidInput
	}
	if m.Op == domain.OpNone {
		return nil
	}
	if m.Record.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.records[m.Record.TokenID]
	switch m.Op {
	case domain.OpInsert:
		if exists {
			return storage.ErrDuplicateKey
		}
	case domain.OpUpdate:
		if !exists {
			return storage.ErrNotFound
		}
	default:
		return storage.ErrInvalidInput
	}

	recordCopy := m.Record
	s.records[m.Record.TokenID] = &recordCopy

	if m.Event != nil {
		eventCopy := *m.Event
		s.updates[m.Event.TokenID] = append(s.updates[m.Event.TokenID], &eventCopy)
	}
	return nil
}

// FindByName retrieves the first record from the given feed whose name
// contains nameSubstr, case-insensitively.
func (s *TokenStore) FindByName(_ context.Context, nameSubstr string, feed domain.Feed) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(nameSubstr)
	for _, r := range s.records {
		if r.Feed != feed {
			continue
		}
		if strings.Contains(strings.ToLower(r.TokenName), needle) {
			recordCopy := *r
			return &recordCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetUpdates retrieves the audit trail for a token in insertion order.
func (s *TokenStore) GetUpdates(_ context.Context, tokenID string) ([]*domain.MarketUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.updates[tokenID]
	result := make([]*domain.MarketUpdate, 0, len(rows))
	for _, u := range rows {
		updateCopy := *u
		result = append(result, &updateCopy)
	}
	return result, nil
}
