package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gemwatch/internal/engine"
	"gemwatch/internal/storage"
	"gemwatch/internal/telegram"
)

// Messenger delivers one rendered message to one recipient.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Result summarizes one fan-out pass.
type Result struct {
	Delivered int
	Failed    int
	Removed   int
}

// Fanout delivers rendered alerts to the admin chat and the current
// subscriber snapshot.
type Fanout struct {
	messenger   Messenger
	subscribers storage.SubscriberStore
	adminChatID int64
	logger      *log.Logger
}

// NewFanout creates a fan-out. adminChatID of zero disables the admin copy.
// If logger is nil, the default logger is used.
func NewFanout(messenger Messenger, subscribers storage.SubscriberStore, adminChatID int64, logger *log.Logger) *Fanout {
	if logger == nil {
		logger = log.Default()
	}
	return &Fanout{
		messenger:   messenger,
		subscribers: subscribers,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// Deliver renders n and sends it to the admin plus every subscriber. One
// recipient's failure never blocks the rest; subscribers the API reports as
// permanently gone are removed from the registry.
func (f *Fanout) Deliver(ctx context.Context, n *engine.Notification) (Result, error) {
	return f.Broadcast(ctx, Render(n))
}

// Broadcast sends already-rendered text to the admin plus every subscriber.
func (f *Fanout) Broadcast(ctx context.Context, text string) (Result, error) {
	var res Result

	if f.adminChatID != 0 {
		if err := f.messenger.SendMessage(ctx, f.adminChatID, text); err != nil {
			res.Failed++
			f.logger.Printf("admin delivery failed: %v", err)
		} else {
			res.Delivered++
		}
	}

	subs, err := f.subscribers.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list subscribers: %w", err)
	}

	for _, sub := range subs {
		if sub.ChatID == f.adminChatID {
			continue
		}

		err := f.messenger.SendMessage(ctx, sub.ChatID, text)
		if err == nil {
			res.Delivered++
			continue
		}
		res.Failed++

		if errors.Is(err, telegram.ErrRecipientGone) {
			if remErr := f.subscribers.Remove(ctx, sub.ChatID); remErr != nil {
				f.logger.Printf("remove gone subscriber %d: %v", sub.ChatID, remErr)
			} else {
				res.Removed++
				f.logger.Printf("subscriber %d unreachable, removed: %v", sub.ChatID, err)
			}
			continue
		}
		f.logger.Printf("delivery to %d failed: %v", sub.ChatID, err)
	}

	return res, nil
}

// SendAdmin delivers text to the admin chat only.
func (f *Fanout) SendAdmin(ctx context.Context, text string) error {
	if f.adminChatID == 0 {
		return nil
	}
	return f.messenger.SendMessage(ctx, f.adminChatID, text)
}
