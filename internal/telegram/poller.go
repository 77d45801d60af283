package telegram

import (
	"context"
	"log"
	"time"
)

// Poller drives the getUpdates long-poll loop and dispatches each update to
// the registered handlers. Handlers must be registered before Run.
type Poller struct {
	client *Client
	logger *log.Logger

	pollTimeout int
	errorDelay  time.Duration

	onMessage     func(Message)
	onChannelPost func(Message)
}

// NewPoller creates a poller over client. If logger is nil, the default
// logger is used.
func NewPoller(client *Client, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		client:      client,
		logger:      logger,
		pollTimeout: 30,
		errorDelay:  5 * time.Second,
	}
}

// OnMessage registers the handler for direct messages.
func (p *Poller) OnMessage(fn func(Message)) { p.onMessage = fn }

// OnChannelPost registers the handler for channel posts.
func (p *Poller) OnChannelPost(fn func(Message)) { p.onChannelPost = fn }

// Run polls until ctx is cancelled. Poll errors are logged and retried
// after a short delay; the loop itself never fails.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Printf("telegram poll failed: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.errorDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.dispatch(u)
		}
	}
}

func (p *Poller) dispatch(u Update) {
	switch {
	case u.Message != nil && p.onMessage != nil:
		p.onMessage(*u.Message)
	case u.ChannelPost != nil && p.onChannelPost != nil:
		p.onChannelPost(*u.ChannelPost)
	}
}
