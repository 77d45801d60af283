package domain

// MutationOp says what a Mutation does to the tokens table.
type MutationOp string

const (
	// OpNone leaves storage untouched.
	OpNone MutationOp = "NONE"
	// OpInsert creates a new TokenRecord.
	OpInsert MutationOp = "INSERT"
	// OpUpdate overwrites an existing TokenRecord's mutable fields.
	OpUpdate MutationOp = "UPDATE"
)

// Mutation is the intended state change produced by the decision engine.
// The store applies Record and Event atomically per token identifier;
// the engine never touches storage itself.
type Mutation struct {
	Op     MutationOp
	Record TokenRecord   // meaningful unless Op == OpNone
	Event  *MarketUpdate // appended when non-nil
}
