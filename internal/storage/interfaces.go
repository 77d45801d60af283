package storage

import (
	"context"

	"gemwatch/internal/domain"
)

// TokenStore provides transactional access to tokens and their append-only
// market_updates audit trail.
//
// GetRecord, CountUpdates, and ApplyMutation used together for one token
// identifier during one decision are linearizable with respect to
// concurrent processing of the same identifier; cross-token concurrency is
// unconstrained.
type TokenStore interface {
	// GetRecord retrieves the record for a token. Returns ErrNotFound if
	// the token has never been observed.
	GetRecord(ctx context.Context, tokenID string) (*domain.TokenRecord, error)

	// CountUpdates counts recorded capitalization changes for a token.
	// The first_seen audit row is excluded: the count is of prior updates,
	// not observations.
	CountUpdates(ctx context.Context, tokenID string) (int, error)

	// ApplyMutation applies the record change and appends the audit row
	// atomically. OpNone is a no-op. A failure leaves storage unchanged.
	ApplyMutation(ctx context.Context, m *domain.Mutation) error

	// FindByName retrieves the first record from the given feed whose name
	// contains nameSubstr. Returns ErrNotFound when nothing matches.
	FindByName(ctx context.Context, nameSubstr string, feed domain.Feed) (*domain.TokenRecord, error)

	// GetUpdates retrieves the audit trail for a token in insertion order.
	GetUpdates(ctx context.Context, tokenID string) ([]*domain.MarketUpdate, error)
}

// SubscriberStore provides access to notification recipients.
type SubscriberStore interface {
	// Add registers a subscriber. Re-adding an existing chat ID is a no-op.
	Add(ctx context.Context, s *domain.Subscriber) error

	// Remove deletes a subscriber. Removing an unknown chat ID is a no-op.
	Remove(ctx context.Context, chatID int64) error

	// List returns a snapshot of all subscribers.
	List(ctx context.Context) ([]*domain.Subscriber, error)
}

// CapSeriesStore receives best-effort analytics samples of capitalization
// over time. It is a mirror, never consulted by the decision path.
type CapSeriesStore interface {
	// Insert appends one sample.
	Insert(ctx context.Context, p *domain.CapPoint) error

	// GetByTokenID retrieves all samples for a token, ordered by timestamp ASC.
	GetByTokenID(ctx context.Context, tokenID string) ([]*domain.CapPoint, error)
}
