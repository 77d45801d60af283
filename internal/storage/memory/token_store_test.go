package memory

import (
	"context"
	"errors"
	"testing"

	"gemwatch/internal/domain"
	"gemwatch/internal/storage"
)

func insertMutation(tokenID string, cap int64) *domain.Mutation {
	return &domain.Mutation{
		Op: domain.OpInsert,
		Record: domain.TokenRecord{
			TokenID:   tokenID,
			TokenName: "Moonshot",
			MarketCap: cap,
			Feed:      domain.FeedEarlyGems,
			UpdatedAt: 1700000000000,
		},
		Event: &domain.MarketUpdate{
			TokenID:    tokenID,
			OldCap:     0,
			NewCap:     cap,
			ChangeType: domain.ChangeFirstSeen,
			CreatedAt:  1700000000000,
		},
	}
}

func updateMutation(tokenID string, oldCap, newCap int64, changeType domain.ChangeType) *domain.Mutation {
	return &domain.Mutation{
		Op: domain.OpUpdate,
		Record: domain.TokenRecord{
			TokenID:   tokenID,
			TokenName: "Moonshot",
			MarketCap: newCap,
			Feed:      domain.FeedEarlyGems,
			UpdatedAt: 1700000001000,
		},
		Event: &domain.MarketUpdate{
			TokenID:    tokenID,
			OldCap:     oldCap,
			NewCap:     newCap,
			ChangeType: changeType,
			CreatedAt:  1700000001000,
		},
	}
}

func TestTokenStore_ApplyAndGet(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.ApplyMutation(ctx, insertMutation("tok-1", 52000)); err != nil {
		t.Fatalf("ApplyMutation failed: %v", err)
	}

	got, err := store.GetRecord(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got.MarketCap != 52000 {
		t.Errorf("MarketCap mismatch: got %d", got.MarketCap)
	}

	// Mutating the returned copy must not affect the store.
	got.MarketCap = 1
	again, err := store.GetRecord(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if again.MarketCap != 52000 {
		t.Error("store state leaked through returned record")
	}
}

func TestTokenStore_GetRecord_NotFound(t *testing.T) {
	store := NewTokenStore()

	_, err := store.GetRecord(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenStore_DuplicateInsert(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.ApplyMutation(ctx, insertMutation("tok-1", 52000)); err != nil {
		t.Fatalf("ApplyMutation failed: %v", err)
	}

	err := store.ApplyMutation(ctx, insertMutation("tok-1", 60000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestTokenStore_UpdateMissing(t *testing.T) {
	store := NewTokenStore()

	err := store.ApplyMutation(context.Background(), updateMutation("ghost", 1, 2, domain.ChangeUpdate))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenStore_CountUpdates_ExcludesFirstSeen(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.ApplyMutation(ctx, insertMutation("tok-1", 52000)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	count, err := store.CountUpdates(ctx, "tok-1")
	if err != nil {
		t.Fatalf("CountUpdates failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 after first observation, got %d", count)
	}

	if err := store.ApplyMutation(ctx, updateMutation("tok-1", 52000, 60000, domain.ChangeUpdate)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := store.ApplyMutation(ctx, updateMutation("tok-1", 60000, 78000, domain.ChangeNotified)); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	count, err = store.CountUpdates(ctx, "tok-1")
	if err != nil {
		t.Fatalf("CountUpdates failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 recorded changes, got %d", count)
	}
}

func TestTokenStore_OpNoneIsNoop(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.ApplyMutation(ctx, &domain.Mutation{Op: domain.OpNone}); err != nil {
		t.Fatalf("OpNone should succeed, got %v", err)
	}

	if _, err := store.GetRecord(ctx, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected empty store, got %v", err)
	}
}

func TestTokenStore_FindByName(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	m := insertMutation("tok-trend", 90000)
	m.Record.TokenName = "Super Moonshot"
	m.Record.Feed = domain.FeedTrending
	if err := store.ApplyMutation(ctx, m); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := store.FindByName(ctx, "moonshot", domain.FeedTrending)
	if err != nil {
		t.Fatalf("FindByName failed: %v", err)
	}
	if got.TokenID != "tok-trend" {
		t.Errorf("TokenID mismatch: got %s", got.TokenID)
	}

	// Same name on a different feed must not match.
	if _, err := store.FindByName(ctx, "moonshot", domain.FeedBullishCalls); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other feed, got %v", err)
	}

	if _, err := store.FindByName(ctx, "nothing", domain.FeedTrending); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenStore_GetUpdates_InsertionOrder(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	if err := store.ApplyMutation(ctx, insertMutation("tok-1", 52000)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.ApplyMutation(ctx, updateMutation("tok-1", 52000, 60000, domain.ChangeUpdate)); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	rows, err := store.GetUpdates(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ChangeType != domain.ChangeFirstSeen || rows[1].ChangeType != domain.ChangeUpdate {
		t.Errorf("order mismatch: %s, %s", rows[0].ChangeType, rows[1].ChangeType)
	}
}
