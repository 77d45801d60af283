package engine

import (
	"testing"

	"gemwatch/internal/domain"
)

const testNowMs = int64(1700000000000)

func newUpdate(cap int64) *domain.TokenUpdate {
	return &domain.TokenUpdate{
		TokenID:   "token-1",
		TokenName: "Moonshot",
		MarketCap: cap,
		Age:       "8 minutes ago",
		Feed:      domain.FeedEarlyGems,
	}
}

func priorRecord(cap int64) *domain.TokenRecord {
	return &domain.TokenRecord{
		TokenID:   "token-1",
		TokenName: "Moonshot",
		MarketCap: cap,
		Age:       "8 minutes ago",
		Feed:      domain.FeedEarlyGems,
		Notified:  true,
		UpdatedAt: testNowMs - 60000,
	}
}

func TestNewPolicy(t *testing.T) {
	for _, name := range []string{"second-update", "threshold"} {
		p, err := NewPolicy(name)
		if err != nil {
			t.Fatalf("NewPolicy(%q) failed: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Name() = %s, want %s", p.Name(), name)
		}
	}

	if _, err := NewPolicy("bogus"); err == nil {
		t.Error("expected error for unknown policy name")
	}
}

func TestPolicies_NewToken(t *testing.T) {
	for _, p := range []Policy{&SecondUpdatePolicy{}, &ThresholdPolicy{AgeLimitMinutes: 10, DoublingFactor: 2}} {
		m, n := p.Decide(newUpdate(52000), nil, 0, testNowMs)

		if m.Op != domain.OpInsert {
			t.Fatalf("%s: expected OpInsert, got %v", p.Name(), m.Op)
		}
		if !m.Record.Notified {
			t.Errorf("%s: expected record marked notified", p.Name())
		}
		if m.Event == nil || m.Event.ChangeType != domain.ChangeFirstSeen {
			t.Fatalf("%s: expected first_seen event, got %+v", p.Name(), m.Event)
		}
		if m.Event.OldCap != 0 || m.Event.NewCap != 52000 {
			t.Errorf("%s: event caps mismatch: %d -> %d", p.Name(), m.Event.OldCap, m.Event.NewCap)
		}

		if n == nil || n.Kind != KindNewToken {
			t.Fatalf("%s: expected new-token notification, got %+v", p.Name(), n)
		}
		if n.OldCap != 0 || n.NewCap != 52000 {
			t.Errorf("%s: notification caps mismatch: %d -> %d", p.Name(), n.OldCap, n.NewCap)
		}
	}
}

func TestPolicies_UnchangedCap(t *testing.T) {
	for _, p := range []Policy{&SecondUpdatePolicy{}, &ThresholdPolicy{AgeLimitMinutes: 10, DoublingFactor: 2}} {
		m, n := p.Decide(newUpdate(52000), priorRecord(52000), 3, testNowMs)

		if m.Op != domain.OpNone {
			t.Errorf("%s: expected OpNone for unchanged cap, got %v", p.Name(), m.Op)
		}
		if m.Event != nil {
			t.Errorf("%s: expected no event for unchanged cap", p.Name())
		}
		if n != nil {
			t.Errorf("%s: expected no notification for unchanged cap", p.Name())
		}
	}
}

func TestSecondUpdatePolicy_FirstChangeIsSilent(t *testing.T) {
	p := &SecondUpdatePolicy{}

	m, n := p.Decide(newUpdate(60000), priorRecord(52000), 0, testNowMs)

	if m.Op != domain.OpUpdate {
		t.Fatalf("expected OpUpdate, got %v", m.Op)
	}
	if m.Event == nil || m.Event.ChangeType != domain.ChangeUpdate {
		t.Fatalf("expected silent update event, got %+v", m.Event)
	}
	if n != nil {
		t.Errorf("expected no notification on first change, got %+v", n)
	}
}

func TestSecondUpdatePolicy_SecondChangeNotifies(t *testing.T) {
	p := &SecondUpdatePolicy{}

	m, n := p.Decide(newUpdate(78000), priorRecord(52000), 1, testNowMs)

	if m.Op != domain.OpUpdate {
		t.Fatalf("expected OpUpdate, got %v", m.Op)
	}
	if m.Event == nil || m.Event.ChangeType != domain.ChangeNotified {
		t.Fatalf("expected notified_update event, got %+v", m.Event)
	}
	if n == nil || n.Kind != KindCapUpdate {
		t.Fatalf("expected cap-update notification, got %+v", n)
	}
	if !n.HasPercent || n.PercentChange != 50 {
		t.Errorf("percent mismatch: got (%d, %v), want (50, true)", n.PercentChange, n.HasPercent)
	}
}

func TestSecondUpdatePolicy_LaterChangesAreSilent(t *testing.T) {
	p := &SecondUpdatePolicy{}

	m, n := p.Decide(newUpdate(90000), priorRecord(78000), 2, testNowMs)

	if m.Op != domain.OpUpdate {
		t.Fatalf("expected OpUpdate, got %v", m.Op)
	}
	if n != nil {
		t.Errorf("expected no notification after second change, got %+v", n)
	}
}

func TestSecondUpdatePolicy_DecreaseCountsAsChange(t *testing.T) {
	p := &SecondUpdatePolicy{}

	m, n := p.Decide(newUpdate(40000), priorRecord(52000), 1, testNowMs)

	if m.Op != domain.OpUpdate {
		t.Fatalf("expected OpUpdate, got %v", m.Op)
	}
	if n == nil {
		t.Fatal("expected notification: the gate counts changes, not direction")
	}
	if n.PercentChange != -24 {
		t.Errorf("PercentChange = %d, want -24", n.PercentChange)
	}
}

func TestThresholdPolicy_YoungIncreaseNotifies(t *testing.T) {
	p := &ThresholdPolicy{AgeLimitMinutes: 10, DoublingFactor: 2}

	u := newUpdate(60000)
	u.Age = "5 minutes ago"
	m, n := p.Decide(u, priorRecord(52000), 4, testNowMs)

	if m.Event == nil || m.Event.ChangeType != domain.ChangeNotified {
		t.Fatalf("expected notified_update event, got %+v", m.Event)
	}
	if n == nil || n.Kind != KindCapUpdate {
		t.Fatalf("expected cap-update notification, got %+v", n)
	}
}

func TestThresholdPolicy_OldSmallIncreaseIsSilent(t *testing.T) {
	p := &ThresholdPolicy{AgeLimitMinutes: 10, DoublingFactor: 2}

	u := newUpdate(60000)
	u.Age = "45 minutes ago"
	m, n := p.Decide(u, priorRecord(52000), 4, testNowMs)

	if m.Op != domain.OpUpdate {
		t.Fatalf("expected OpUpdate, got %v", m.Op)
	}
	if m.Event == nil || m.Event.ChangeType != domain.ChangeUpdate {
		t.Fatalf("expected silent update event, got %+v", m.Event)
	}
	if n != nil {
		t.Errorf("expected no notification, got %+v", n)
	}
}

func TestThresholdPolicy_DoublingNotifiesRegardlessOfAge(t *testing.T) {
	p := &ThresholdPolicy{AgeLimitMinutes: 10, DoublingFactor: 2}

	u := newUpdate(110000)
	u.Age = domain.UnknownAge
	_, n := p.Decide(u, priorRecord(52000), 4, testNowMs)

	if n == nil {
		t.Fatal("expected notification for a doubled cap")
	}
	if n.PercentChange != 111 {
		t.Errorf("PercentChange = %d, want 111", n.PercentChange)
	}
}

func TestThresholdPolicy_DecreaseIsSilent(t *testing.T) {
	p := &ThresholdPolicy{AgeLimitMinutes: 10, DoublingFactor: 2}

	u := newUpdate(20000)
	u.Age = "2 minutes ago"
	m, n := p.Decide(u, priorRecord(52000), 4, testNowMs)

	if m.Op != domain.OpUpdate {
		t.Fatalf("expected OpUpdate: decreases still persist, got %v", m.Op)
	}
	if m.Event == nil || m.Event.ChangeType != domain.ChangeUpdate {
		t.Fatalf("expected silent update event, got %+v", m.Event)
	}
	if n != nil {
		t.Errorf("expected no notification for a decrease, got %+v", n)
	}
}

func TestUpdatedRecord_KeepsFirstObservationFields(t *testing.T) {
	p := &ThresholdPolicy{AgeLimitMinutes: 10, DoublingFactor: 2}

	prior := priorRecord(52000)
	prior.TotalLiq = 44.2
	prior.Bonding = 81.0
	prior.Age = "8 minutes ago"

	u := newUpdate(120000)
	u.TotalLiq = 99.9
	u.Bonding = 10.0
	u.Age = "3 minutes ago"

	m, _ := p.Decide(u, prior, 1, testNowMs)

	if m.Record.TotalLiq != 44.2 || m.Record.Bonding != 81.0 {
		t.Errorf("liquidity fields changed: got %v/%v", m.Record.TotalLiq, m.Record.Bonding)
	}
	if m.Record.Age != "8 minutes ago" {
		t.Errorf("age changed: got %q", m.Record.Age)
	}
	if m.Record.MarketCap != 120000 {
		t.Errorf("cap not updated: got %d", m.Record.MarketCap)
	}
	if m.Record.UpdatedAt != testNowMs {
		t.Errorf("UpdatedAt not stamped: got %d", m.Record.UpdatedAt)
	}
}
