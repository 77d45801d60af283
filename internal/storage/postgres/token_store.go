package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"gemwatch/internal/domain"
	"gemwatch/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL. Row-level
// locking inside ApplyMutation's transaction gives per-token atomicity.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `
	token_id, token_name, market_cap, total_liq, liq_percent, bonding,
	age, channel_name, notified, updated_at
`

// GetRecord retrieves the record for a token. Returns ErrNotFound if the
// token has never been observed.
func (s *TokenStore) GetRecord(ctx context.Context, tokenID string) (*domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE token_id = $1`

	r, err := scanToken(s.pool.QueryRow(ctx, query, tokenID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token record: %w", err)
	}
	return r, nil
}

// CountUpdates counts recorded capitalization changes, excluding first_seen.
func (s *TokenStore) CountUpdates(ctx context.Context, tokenID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM market_updates
		WHERE token_id = $1 AND change_type <> $2
	`

	var count int
	if err := s.pool.QueryRow(ctx, query, tokenID, string(domain.ChangeFirstSeen)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count market updates: %w", err)
	}
	return count, nil
}

// ApplyMutation applies the record change and appends the audit row in one
// transaction. A failure on either statement rolls back both.
func (s *TokenStore) ApplyMutation(ctx context.Context, m *domain.Mutation) error {
	if m == nil {
		return storage.ErrInvalidInput
	}
	if m.Op == domain.OpNone {
		return nil
	}
	if m.Record.TokenID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin mutation tx: %w", err)
	}
	defer tx.Rollback(ctx)

	switch m.Op {
	case domain.OpInsert:
		err = s.insertRecord(ctx, tx, &m.Record)
	case domain.OpUpdate:
		err = s.updateRecord(ctx, tx, &m.Record)
	default:
		return storage.ErrInvalidInput
	}
	if err != nil {
		return err
	}

	if m.Event != nil {
		if err := s.appendUpdate(ctx, tx, m.Event); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit mutation tx: %w", err)
	}
	return nil
}

func (s *TokenStore) insertRecord(ctx context.Context, tx pgx.Tx, r *domain.TokenRecord) error {
	query := `
		INSERT INTO tokens (
			token_id, token_name, market_cap, total_liq, liq_percent, bonding,
			age, channel_name, notified, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := tx.Exec(ctx, query,
		r.TokenID, r.TokenName, r.MarketCap, r.TotalLiq, r.LiqPercent,
		r.Bonding, r.Age, string(r.Feed), r.Notified, msToTime(r.UpdatedAt),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (s *TokenStore) updateRecord(ctx context.Context, tx pgx.Tx, r *domain.TokenRecord) error {
	query := `
		UPDATE tokens
		SET token_name = $2, market_cap = $3, channel_name = $4,
		    notified = $5, updated_at = $6
		WHERE token_id = $1
	`

	tag, err := tx.Exec(ctx, query,
		r.TokenID, r.TokenName, r.MarketCap, string(r.Feed), r.Notified, msToTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *TokenStore) appendUpdate(ctx context.Context, tx pgx.Tx, u *domain.MarketUpdate) error {
	query := `
		INSERT INTO market_updates (token_id, old_cap, new_cap, change_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query,
		u.TokenID, u.OldCap, u.NewCap, string(u.ChangeType), msToTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append market update: %w", err)
	}
	return nil
}

// FindByName retrieves the first record from the given feed whose name
// contains nameSubstr, case-insensitively.
func (s *TokenStore) FindByName(ctx context.Context, nameSubstr string, feed domain.Feed) (*domain.TokenRecord, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE token_name ILIKE '%' || $1 || '%' AND channel_name = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`

	r, err := scanToken(s.pool.QueryRow(ctx, query, nameSubstr, string(feed)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find token by name: %w", err)
	}
	return r, nil
}

// GetUpdates retrieves the audit trail for a token in insertion order.
func (s *TokenStore) GetUpdates(ctx context.Context, tokenID string) ([]*domain.MarketUpdate, error) {
	query := `
		SELECT token_id, old_cap, new_cap, change_type, created_at
		FROM market_updates
		WHERE token_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get market updates: %w", err)
	}
	defer rows.Close()

	var result []*domain.MarketUpdate
	for rows.Next() {
		var u domain.MarketUpdate
		var changeType string
		var createdAt time.Time
		if err := rows.Scan(&u.TokenID, &u.OldCap, &u.NewCap, &changeType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan market update: %w", err)
		}
		u.ChangeType = domain.ChangeType(changeType)
		u.CreatedAt = createdAt.UnixMilli()
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market updates: %w", err)
	}
	return result, nil
}

func scanToken(row pgx.Row) (*domain.TokenRecord, error) {
	var r domain.TokenRecord
	var feed string
	var updatedAt time.Time
	err := row.Scan(
		&r.TokenID, &r.TokenName, &r.MarketCap, &r.TotalLiq, &r.LiqPercent,
		&r.Bonding, &r.Age, &feed, &r.Notified, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Feed = domain.Feed(feed)
	r.UpdatedAt = updatedAt.UnixMilli()
	return &r, nil
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
