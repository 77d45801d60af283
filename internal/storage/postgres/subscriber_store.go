package postgres

import (
	"context"
	"fmt"
	"time"

	"gemwatch/internal/domain"
	"gemwatch/internal/storage"
)

// SubscriberStore implements storage.SubscriberStore using PostgreSQL.
type SubscriberStore struct {
	pool *Pool
}

// NewSubscriberStore creates a new SubscriberStore.
func NewSubscriberStore(pool *Pool) *SubscriberStore {
	return &SubscriberStore{pool: pool}
}

var _ storage.SubscriberStore = (*SubscriberStore)(nil)

// Add registers a subscriber. Re-adding an existing chat ID is a no-op,
// enforced with ON CONFLICT DO NOTHING.
func (s *SubscriberStore) Add(ctx context.Context, sub *domain.Subscriber) error {
	if sub == nil || sub.ChatID == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO subscribers (chat_id, handle, subscribed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, sub.ChatID, sub.Handle, time.UnixMilli(sub.SubscribedAt).UTC())
	if err != nil {
		return fmt.Errorf("add subscriber: %w", err)
	}
	return nil
}

// Remove deletes a subscriber. Removing an unknown chat ID is a no-op.
func (s *SubscriberStore) Remove(ctx context.Context, chatID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM subscribers WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("remove subscriber: %w", err)
	}
	return nil
}

// List returns a snapshot of all subscribers.
func (s *SubscriberStore) List(ctx context.Context) ([]*domain.Subscriber, error) {
	query := `
		SELECT chat_id, handle, subscribed_at
		FROM subscribers
		ORDER BY chat_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var result []*domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		var subscribedAt time.Time
		if err := rows.Scan(&sub.ChatID, &sub.Handle, &subscribedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		sub.SubscribedAt = subscribedAt.UnixMilli()
		result = append(result, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return result, nil
}
