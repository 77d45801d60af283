package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gemwatch/internal/domain"
	"gemwatch/internal/engine"
	"gemwatch/internal/storage/memory"
	"gemwatch/internal/telegram"
)

// fakeMessenger records deliveries and fails per-chat on demand.
type fakeMessenger struct {
	sent     map[int64][]string
	failWith map[int64]error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		sent:     make(map[int64][]string),
		failWith: make(map[int64]error),
	}
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string) error {
	if err := f.failWith[chatID]; err != nil {
		return err
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

func testNotification() *engine.Notification {
	return &engine.Notification{
		Kind:          engine.KindCapUpdate,
		TokenID:       "tok-1",
		TokenName:     "Moonshot",
		OldCap:        52000,
		NewCap:        78000,
		Feed:          domain.FeedEarlyGems,
		PercentChange: 50,
		HasPercent:    true,
	}
}

func TestFanout_DeliversToAdminAndSubscribers(t *testing.T) {
	messenger := newFakeMessenger()
	subs := memory.NewSubscriberStore()
	ctx := context.Background()

	subs.Add(ctx, &domain.Subscriber{ChatID: 10})
	subs.Add(ctx, &domain.Subscriber{ChatID: 20})

	fanout := NewFanout(messenger, subs, 99, nil)

	res, err := fanout.Deliver(ctx, testNotification())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if res.Delivered != 3 {
		t.Errorf("Delivered = %d, want 3", res.Delivered)
	}
	for _, chatID := range []int64{99, 10, 20} {
		if len(messenger.sent[chatID]) != 1 {
			t.Errorf("chat %d got %d messages, want 1", chatID, len(messenger.sent[chatID]))
		}
	}
}

func TestFanout_RemovesGoneSubscriber(t *testing.T) {
	messenger := newFakeMessenger()
	subs := memory.NewSubscriberStore()
	ctx := context.Background()

	subs.Add(ctx, &domain.Subscriber{ChatID: 10})
	subs.Add(ctx, &domain.Subscriber{ChatID: 20})
	messenger.failWith[10] = fmt.Errorf("%w: bot was blocked", telegram.ErrRecipientGone)

	fanout := NewFanout(messenger, subs, 99, nil)

	res, err := fanout.Deliver(ctx, testNotification())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if res.Removed != 1 {
		t.Errorf("Removed = %d, want 1", res.Removed)
	}
	if res.Delivered != 2 {
		t.Errorf("Delivered = %d, want 2", res.Delivered)
	}

	remaining, _ := subs.List(ctx)
	if len(remaining) != 1 || remaining[0].ChatID != 20 {
		t.Errorf("expected only chat 20 to remain, got %+v", remaining)
	}
}

func TestFanout_TransientFailureKeepsSubscriber(t *testing.T) {
	messenger := newFakeMessenger()
	subs := memory.NewSubscriberStore()
	ctx := context.Background()

	subs.Add(ctx, &domain.Subscriber{ChatID: 10})
	messenger.failWith[10] = &telegram.TransientError{Err: errors.New("timeout")}

	fanout := NewFanout(messenger, subs, 99, nil)

	res, err := fanout.Deliver(ctx, testNotification())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if res.Removed != 0 {
		t.Errorf("Removed = %d, want 0", res.Removed)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}

	remaining, _ := subs.List(ctx)
	if len(remaining) != 1 {
		t.Errorf("transient failure must not unsubscribe, got %+v", remaining)
	}
}

func TestFanout_AdminNotDeliveredTwice(t *testing.T) {
	messenger := newFakeMessenger()
	subs := memory.NewSubscriberStore()
	ctx := context.Background()

	// Admin also subscribed explicitly.
	subs.Add(ctx, &domain.Subscriber{ChatID: 99})

	fanout := NewFanout(messenger, subs, 99, nil)

	if _, err := fanout.Deliver(ctx, testNotification()); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	if len(messenger.sent[99]) != 1 {
		t.Errorf("admin got %d copies, want 1", len(messenger.sent[99]))
	}
}

func TestFanout_SendAdmin(t *testing.T) {
	messenger := newFakeMessenger()
	fanout := NewFanout(messenger, memory.NewSubscriberStore(), 99, nil)

	if err := fanout.SendAdmin(context.Background(), "match"); err != nil {
		t.Fatalf("SendAdmin failed: %v", err)
	}
	if len(messenger.sent[99]) != 1 || messenger.sent[99][0] != "match" {
		t.Errorf("admin messages mismatch: %+v", messenger.sent[99])
	}
}
