package engine

import (
	"fmt"

	"gemwatch/internal/domain"
)

// NewPolicy resolves a policy by name. Known names: "second-update",
// "threshold". DefaultPolicyName is what production wires.
func NewPolicy(name string) (Policy, error) {
	switch name {
	case "second-update":
		return &SecondUpdatePolicy{}, nil
	case "threshold":
		return &ThresholdPolicy{AgeLimitMinutes: DefaultAgeLimitMinutes, DoublingFactor: DefaultDoublingFactor}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}

// DefaultPolicyName is the product default gating policy.
const DefaultPolicyName = "threshold"

// SecondUpdatePolicy notifies only on a token's exactly-second recorded
// capitalization change. A single spike persists silently; a second change
// confirms a sustained move and fires once.
type SecondUpdatePolicy struct{}

var _ Policy = (*SecondUpdatePolicy)(nil)

// Name implements Policy.
func (p *SecondUpdatePolicy) Name() string { return "second-update" }

// Decide implements Policy.
func (p *SecondUpdatePolicy) Decide(u *domain.TokenUpdate, prior *domain.TokenRecord, priorUpdates int, nowMs int64) (domain.Mutation, *Notification) {
	if prior == nil {
		return newTokenDecision(u, nowMs)
	}

	if u.MarketCap == prior.MarketCap {
		return domain.Mutation{Op: domain.OpNone}, nil
	}

	notify := priorUpdates == 1

	changeType := domain.ChangeUpdate
	if notify {
		changeType = domain.ChangeNotified
	}

	mutation := domain.Mutation{
		Op:     domain.OpUpdate,
		Record: updatedRecord(prior, u, notify, nowMs),
		Event: &domain.MarketUpdate{
			TokenID:    u.TokenID,
			OldCap:     prior.MarketCap,
			NewCap:     u.MarketCap,
			ChangeType: changeType,
			CreatedAt:  nowMs,
		},
	}

	if !notify {
		return mutation, nil
	}

	notification := &Notification{
		Kind:      KindCapUpdate,
		TokenID:   u.TokenID,
		TokenName: u.TokenName,
		OldCap:    prior.MarketCap,
		NewCap:    u.MarketCap,
		Feed:      u.Feed,
	}
	notification.PercentChange, notification.HasPercent = PercentDelta(prior.MarketCap, u.MarketCap)
	return mutation, notification
}

// Threshold policy defaults.
const (
	DefaultAgeLimitMinutes = 10
	DefaultDoublingFactor  = 2
)

// ThresholdPolicy notifies on capitalization increases when the token is
// young (parsed age within AgeLimitMinutes) or the move is explosive (new
// capitalization at least DoublingFactor times the prior). Decreases are
// persisted without notification.
type ThresholdPolicy struct {
	AgeLimitMinutes int
	DoublingFactor  int64
}

var _ Policy = (*ThresholdPolicy)(nil)

// Name implements Policy.
func (p *ThresholdPolicy) Name() string { return "threshold" }

// Decide implements Policy.
func (p *ThresholdPolicy) Decide(u *domain.TokenUpdate, prior *domain.TokenRecord, priorUpdates int, nowMs int64) (domain.Mutation, *Notification) {
	if prior == nil {
		return newTokenDecision(u, nowMs)
	}

	if u.MarketCap == prior.MarketCap {
		return domain.Mutation{Op: domain.OpNone}, nil
	}

	notify := false
	if u.MarketCap > prior.MarketCap {
		young := AgeWithinMinutes(u.Age, p.AgeLimitMinutes)
		doubled := u.MarketCap >= prior.MarketCap*p.DoublingFactor
		notify = young || doubled
	}

	changeType := domain.ChangeUpdate
	if notify {
		changeType = domain.ChangeNotified
	}

	mutation := domain.Mutation{
		Op:     domain.OpUpdate,
		Record: updatedRecord(prior, u, notify, nowMs),
		Event: &domain.MarketUpdate{
			TokenID:    u.TokenID,
			OldCap:     prior.MarketCap,
			NewCap:     u.MarketCap,
			ChangeType: changeType,
			CreatedAt:  nowMs,
		},
	}

	if !notify {
		return mutation, nil
	}

	notification := &Notification{
		Kind:      KindCapUpdate,
		TokenID:   u.TokenID,
		TokenName: u.TokenName,
		OldCap:    prior.MarketCap,
		NewCap:    u.MarketCap,
		Feed:      u.Feed,
	}
	notification.PercentChange, notification.HasPercent = PercentDelta(prior.MarketCap, u.MarketCap)
	return mutation, notification
}
