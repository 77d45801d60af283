package domain

// ChangeType tags a MarketUpdate row with why it was recorded.
type ChangeType string

const (
	// ChangeFirstSeen marks the first observation of a token.
	ChangeFirstSeen ChangeType = "first_seen"
	// ChangeUpdate marks a capitalization change persisted without notification.
	ChangeUpdate ChangeType = "update"
	// ChangeNotified marks a capitalization change that emitted a notification.
	ChangeNotified ChangeType = "notified_update"
)

// MarketUpdate is one append-only audit row for a capitalization transition.
// Corresponds to the market_updates table. Rows are inserted in chronological
// order and never mutated or deleted.
type MarketUpdate struct {
	TokenID    string     // foreign key to TokenRecord
	OldCap     int64      // capitalization before this update (0 for first_seen)
	NewCap     int64      // capitalization after this update
	ChangeType ChangeType // why the row exists
	CreatedAt  int64      // insertion timestamp, Unix ms
}

// CapPoint is one analytics sample of a token's capitalization over time.
// Mirrored to the cap_timeseries table in ClickHouse; never consulted by
// the decision path.
type CapPoint struct {
	TokenID       string
	TimestampMs   int64
	MarketCap     int64
	PercentChange int64
}
