package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gemwatch/internal/domain"
)

// StreamSource reads text frames from a websocket endpoint and buffers them
// as posts for one feed. Run maintains the connection with reconnect and
// backoff; Fetch drains whatever arrived since the previous cycle.
type StreamSource struct {
	url    string
	feed   domain.Feed
	logger *log.Logger

	dialTimeout    time.Duration
	reconnectDelay time.Duration
	maxDelay       time.Duration

	mu  sync.Mutex
	buf []Post
}

var _ PostSource = (*StreamSource)(nil)

// NewStreamSource creates a stream source for url, tagging frames with feed.
// If logger is nil, the default logger is used.
func NewStreamSource(url string, feed domain.Feed, logger *log.Logger) *StreamSource {
	if logger == nil {
		logger = log.Default()
	}
	return &StreamSource{
		url:            url,
		feed:           feed,
		logger:         logger,
		dialTimeout:    10 * time.Second,
		reconnectDelay: 1 * time.Second,
		maxDelay:       30 * time.Second,
	}
}

// Run keeps the connection alive until ctx is cancelled, reconnecting with
// exponential backoff after failures.
func (s *StreamSource) Run(ctx context.Context) error {
	delay := s.reconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.readLoop(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Printf("stream %s disconnected: %v, reconnecting in %s", s.feed, err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

func (s *StreamSource) readLoop(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadMessage when ctx is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage || len(data) == 0 {
			continue
		}
		s.push(string(data))
	}
}

func (s *StreamSource) push(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) >= defaultBufferCap {
		s.buf = s.buf[1:]
	}
	s.buf = append(s.buf, Post{Feed: s.feed, Text: text})
}

// Fetch drains and returns all buffered posts in arrival order.
func (s *StreamSource) Fetch(_ context.Context) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		return nil, nil
	}
	out := s.buf
	s.buf = nil
	return out, nil
}
