// Package commands handles subscriber management messages sent to the bot:
// /subscribe registers the sender for alerts, /unsubscribe removes them.
// Both are idempotent, so repeating a command is always safe.
package commands

import (
	"context"
	"log"
	"strings"
	"time"

	"gemwatch/internal/domain"
	"gemwatch/internal/notify"
	"gemwatch/internal/observability"
	"gemwatch/internal/storage"
	"gemwatch/internal/telegram"
)

// Ack texts sent back for each command.
const (
	subscribedText   = "✅ Subscribed! You will receive token alerts."
	unsubscribedText = "👋 Unsubscribed. You will no longer receive alerts."
	startText        = "🤖 Token watcher at your service. Send /subscribe to receive alerts, /unsubscribe to stop."
)

// Listener reacts to bot commands from private messages.
type Listener struct {
	subscribers storage.SubscriberStore
	messenger   notify.Messenger
	logger      *log.Logger
	now         func() time.Time
}

// NewListener creates a command listener. If logger is nil, the default
// logger is used.
func NewListener(subscribers storage.SubscriberStore, messenger notify.Messenger, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{
		subscribers: subscribers,
		messenger:   messenger,
		logger:      logger,
		now:         time.Now,
	}
}

// Handle processes one incoming message. Non-command messages are ignored.
// Register it as the poller's message handler.
func (l *Listener) Handle(msg telegram.Message) {
	cmd := command(msg.Text)
	if cmd == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cmd {
	case "/start":
		l.reply(ctx, msg.Chat.ID, startText)
	case "/subscribe":
		l.subscribe(ctx, msg)
	case "/unsubscribe":
		l.unsubscribe(ctx, msg)
	}
}

func (l *Listener) subscribe(ctx context.Context, msg telegram.Message) {
	handle := ""
	if msg.From != nil {
		handle = msg.From.Username
	}

	sub := &domain.Subscriber{
		ChatID:       msg.Chat.ID,
		Handle:       handle,
		SubscribedAt: l.now().UnixMilli(),
	}
	if err := l.subscribers.Add(ctx, sub); err != nil {
		l.logger.Printf("subscribe %d: %v", msg.Chat.ID, err)
		return
	}

	l.updateGauge(ctx)
	l.reply(ctx, msg.Chat.ID, subscribedText)
}

func (l *Listener) unsubscribe(ctx context.Context, msg telegram.Message) {
	if err := l.subscribers.Remove(ctx, msg.Chat.ID); err != nil {
		l.logger.Printf("unsubscribe %d: %v", msg.Chat.ID, err)
		return
	}

	l.updateGauge(ctx)
	l.reply(ctx, msg.Chat.ID, unsubscribedText)
}

func (l *Listener) reply(ctx context.Context, chatID int64, text string) {
	if err := l.messenger.SendMessage(ctx, chatID, text); err != nil {
		l.logger.Printf("reply to %d: %v", chatID, err)
	}
}

func (l *Listener) updateGauge(ctx context.Context) {
	subs, err := l.subscribers.List(ctx)
	if err != nil {
		return
	}
	observability.UpdateActiveSubscribers(len(subs))
}

// command extracts the leading bot command from text, stripping any
// @botname suffix. Returns "" for non-command messages.
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	cmd := text
	if i := strings.IndexAny(cmd, " \n"); i >= 0 {
		cmd = cmd[:i]
	}
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}
