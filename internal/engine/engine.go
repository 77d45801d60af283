// Package engine decides whether a parsed token update warrants persisting
// state and notifying recipients. Decisions are pure: the engine reads the
// prior record and the prior update count, and returns an intended mutation
// plus at most one notification; it never touches storage itself.
package engine

import (
	"gemwatch/internal/domain"
)

// NotificationKind says why a notification was emitted.
type NotificationKind string

const (
	// KindNewToken is the first observation of a token identifier.
	KindNewToken NotificationKind = "new_token"
	// KindCapUpdate is a capitalization change that passed the active
	// policy's gate.
	KindCapUpdate NotificationKind = "cap_update"
)

// Notification is the payload handed to the fan-out after the mutation has
// been committed.
type Notification struct {
	Kind      NotificationKind
	TokenID   string
	TokenName string
	OldCap    int64
	NewCap    int64
	Feed      domain.Feed

	// PercentChange is floor(100*(new-old)/old); HasPercent is false when
	// the prior capitalization was zero and the delta is unavailable.
	PercentChange int64
	HasPercent    bool
}

// Policy gates notifications for existing tokens. Exactly one policy is
// active for the life of the process; both observed product revisions are
// available as implementations.
type Policy interface {
	// Name identifies the policy in logs and flags.
	Name() string

	// Decide produces the state mutation and optional notification for one
	// update. prior is nil for a never-seen token; priorUpdates counts the
	// token's recorded capitalization changes (first observation excluded).
	// nowMs stamps the mutation.
	Decide(u *domain.TokenUpdate, prior *domain.TokenRecord, priorUpdates int, nowMs int64) (domain.Mutation, *Notification)
}

// PercentDelta computes floor(100*(newCap-oldCap)/oldCap). The second
// return is false when oldCap is not positive and the delta is unavailable.
func PercentDelta(oldCap, newCap int64) (int64, bool) {
	if oldCap <= 0 {
		return 0, false
	}
	return floorDiv((newCap-oldCap)*100, oldCap), true
}

// floorDiv divides rounding toward negative infinity. Go's integer
// division truncates toward zero, which differs for negative deltas.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// newTokenDecision is the shared first-observation path: always insert the
// record, always append a first_seen audit row, always notify with
// previous = 0.
func newTokenDecision(u *domain.TokenUpdate, nowMs int64) (domain.Mutation, *Notification) {
	record := domain.TokenRecord{
		TokenID:    u.TokenID,
		TokenName:  u.TokenName,
		MarketCap:  u.MarketCap,
		TotalLiq:   u.TotalLiq,
		LiqPercent: u.LiqPercent,
		Bonding:    u.Bonding,
		Age:        u.Age,
		Feed:       u.Feed,
		Notified:   true,
		UpdatedAt:  nowMs,
	}

	mutation := domain.Mutation{
		Op:     domain.OpInsert,
		Record: record,
		Event: &domain.MarketUpdate{
			TokenID:    u.TokenID,
			OldCap:     0,
			NewCap:     u.MarketCap,
			ChangeType: domain.ChangeFirstSeen,
			CreatedAt:  nowMs,
		},
	}

	notification := &Notification{
		Kind:      KindNewToken,
		TokenID:   u.TokenID,
		TokenName: u.TokenName,
		OldCap:    0,
		NewCap:    u.MarketCap,
		Feed:      u.Feed,
	}
	if u.PercentChange != 0 {
		// The post itself carried an old -> new pair or an explicit
		// "up N%" phrase.
		notification.PercentChange = u.PercentChange
		notification.HasPercent = true
	}

	return mutation, notification
}

// updatedRecord carries the prior record forward with the fields an update
// is allowed to touch. Liquidity, bonding, and age stay at their
// first-observation values.
func updatedRecord(prior *domain.TokenRecord, u *domain.TokenUpdate, notified bool, nowMs int64) domain.TokenRecord {
	record := *prior
	record.MarketCap = u.MarketCap
	record.TokenName = u.TokenName
	record.Feed = u.Feed
	record.Notified = prior.Notified || notified
	record.UpdatedAt = nowMs
	return record
}
