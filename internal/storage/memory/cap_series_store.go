package memory

import (
	"context"
	"sort"
	"sync"

	"gemwatch/internal/domain"
	"gemwatch/internal/storage"
)

// CapSeriesStore is an in-memory implementation of storage.CapSeriesStore.
type CapSeriesStore struct {
	mu     sync.RWMutex
	points map[string][]*domain.CapPoint
}

// NewCapSeriesStore creates a new in-memory cap series store.
func NewCapSeriesStore() *CapSeriesStore {
	return &CapSeriesStore{points: make(map[string][]*domain.CapPoint)}
}

var _ storage.CapSeriesStore = (*CapSeriesStore)(nil)

// Insert appends one sample.
func (s *CapSeriesStore) Insert(_ context.Context, p *domain.CapPoint) error {
	if p == nil || p.TokenID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pointCopy := *p
	s.points[p.TokenID] = append(s.points[p.TokenID], &pointCopy)
	return nil
}

// GetByTokenID retrieves all samples for a token, ordered by timestamp ASC.
func (s *CapSeriesStore) GetByTokenID(_ context.Context, tokenID string) ([]*domain.CapPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.points[tokenID]
	result := make([]*domain.CapPoint, 0, len(rows))
	for _, p := range rows {
		pointCopy := *p
		result = append(result, &pointCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TimestampMs < result[j].TimestampMs })
	return result, nil
}
