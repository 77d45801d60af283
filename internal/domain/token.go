package domain

// UnknownName is the display name used when a post does not carry one.
const UnknownName = "Unknown"

// UnknownAge is the age descriptor used when a post does not carry one.
const UnknownAge = "Unknown"

// TokenUpdate is one parsed observation of a token, produced per post.
// It is ephemeral; persistence goes through TokenRecord and MarketUpdate.
type TokenUpdate struct {
	TokenID    string  // token identifier (contract address), never empty
	TokenName  string  // display name, UnknownName when absent
	MarketCap  int64   // market capitalization in whole currency units
	TotalLiq   float64 // total liquidity, 0 when unknown
	LiqPercent float64 // liquidity percentage, 0 when unknown
	Bonding    float64 // bonding percentage, 0 when unknown
	Age        string  // free-form age descriptor, UnknownAge when absent
	Feed       Feed    // feed the post came from

	// OldCap is set only when the post itself carried an old -> new pair.
	OldCap int64

	// PercentChange is derived from OldCap/MarketCap when both are present,
	// otherwise parsed from an explicit "up N%" / "NX" phrase, otherwise 0.
	PercentChange int64

	// IDKind classifies the identifier (mint vs pool), when resolvable.
	IDKind IdentifierKind
}

// IdentifierKind classifies a token identifier extracted from a post.
type IdentifierKind string

const (
	// IdentifierUnknown means the identifier could not be classified.
	IdentifierUnknown IdentifierKind = "UNKNOWN"
	// IdentifierMint is an on-curve address, typically a token mint.
	IdentifierMint IdentifierKind = "MINT"
	// IdentifierPool is an off-curve address, typically an AMM pool PDA.
	IdentifierPool IdentifierKind = "POOL"
)

// TokenRecord is the persistent state for one token identifier.
// Corresponds to the tokens table. At most one record per identifier;
// MarketCap holds the last observed value. Records are never deleted.
type TokenRecord struct {
	TokenID    string  // PRIMARY KEY
	TokenName  string  // last observed display name
	MarketCap  int64   // last observed capitalization
	TotalLiq   float64 // liquidity at first observation
	LiqPercent float64
	Bonding    float64
	Age        string // age descriptor at first observation
	Feed       Feed   // feed that last updated the record
	Notified   bool   // true once any notification has been emitted
	UpdatedAt  int64  // last mutation timestamp, Unix ms
}
