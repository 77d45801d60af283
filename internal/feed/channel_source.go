package feed

import (
	"context"
	"strings"
	"sync"

	"gemwatch/internal/domain"
	"gemwatch/internal/telegram"
)

// defaultBufferCap bounds how many posts a channel source holds between
// Fetch calls. Older posts are dropped first when the buffer is full.
const defaultBufferCap = 256

// ChannelRouter fans channel posts out to per-channel sources by channel
// username. Register it as the poller's channel-post handler.
type ChannelRouter struct {
	mu      sync.RWMutex
	sources map[string]*ChannelSource
}

// NewChannelRouter creates an empty router.
func NewChannelRouter() *ChannelRouter {
	return &ChannelRouter{sources: make(map[string]*ChannelSource)}
}

// Watch registers a source for posts from the given channel username and
// tags its posts with feed. Usernames are matched case-insensitively.
func (r *ChannelRouter) Watch(username string, feed domain.Feed) *ChannelSource {
	src := &ChannelSource{feed: feed, cap: defaultBufferCap}

	r.mu.Lock()
	r.sources[strings.ToLower(username)] = src
	r.mu.Unlock()

	return src
}

// HandlePost routes one channel post to its source, if any is watching.
func (r *ChannelRouter) HandlePost(msg telegram.Message) {
	if msg.Chat.Username == "" || msg.Text == "" {
		return
	}

	r.mu.RLock()
	src := r.sources[strings.ToLower(msg.Chat.Username)]
	r.mu.RUnlock()

	if src != nil {
		src.push(msg.Text)
	}
}

// ChannelSource buffers posts from one watched channel. It implements
// PostSource.
type ChannelSource struct {
	feed domain.Feed
	cap  int

	mu  sync.Mutex
	buf []Post
}

var _ PostSource = (*ChannelSource)(nil)

func (s *ChannelSource) push(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) >= s.cap {
		s.buf = s.buf[1:]
	}
	s.buf = append(s.buf, Post{Feed: s.feed, Text: text})
}

// Fetch drains and returns all buffered posts in arrival order.
func (s *ChannelSource) Fetch(_ context.Context) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buf) == 0 {
		return nil, nil
	}
	out := s.buf
	s.buf = nil
	return out, nil
}
