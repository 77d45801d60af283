package clickhouse

import (
	"context"
	"fmt"

	"gemwatch/internal/domain"
	"gemwatch/internal/storage"
)

// CapSeriesStore implements storage.CapSeriesStore using ClickHouse.
// It is the analytics mirror of capitalization over time; the decision
// path never reads from it.
type CapSeriesStore struct {
	conn *Conn
}

// NewCapSeriesStore creates a new CapSeriesStore.
func NewCapSeriesStore(conn *Conn) *CapSeriesStore {
	return &CapSeriesStore{conn: conn}
}

var _ storage.CapSeriesStore = (*CapSeriesStore)(nil)

// Insert appends one sample.
func (s *CapSeriesStore) Insert(ctx context.Context, p *domain.CapPoint) error {
	if p == nil || p.TokenID == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO cap_timeseries (token_id, timestamp_ms, market_cap, percent_change)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	if err := batch.Append(p.TokenID, uint64(p.TimestampMs), p.MarketCap, p.PercentChange); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTokenID retrieves all samples for a token, ordered by timestamp ASC.
func (s *CapSeriesStore) GetByTokenID(ctx context.Context, tokenID string) ([]*domain.CapPoint, error) {
	query := `
		SELECT token_id, timestamp_ms, market_cap, percent_change
		FROM cap_timeseries
		WHERE token_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query cap timeseries: %w", err)
	}
	defer rows.Close()

	var result []*domain.CapPoint
	for rows.Next() {
		var p domain.CapPoint
		var ts uint64
		if err := rows.Scan(&p.TokenID, &ts, &p.MarketCap, &p.PercentChange); err != nil {
			return nil, fmt.Errorf("scan cap point: %w", err)
		}
		p.TimestampMs = int64(ts)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cap timeseries: %w", err)
	}
	return result, nil
}
