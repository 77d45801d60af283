package feedparse

import (
	"errors"

	"gemwatch/internal/domain"
)

// ErrNoMatch is returned when a post does not conform to any known layout
// of the feed. Callers skip the post and continue with the batch.
var ErrNoMatch = errors.New("no known layout matched")

// Parser extracts a TokenUpdate from one raw post text.
//
// Parsers are pure: they never touch storage and never panic on malformed
// input. Missing numeric fields default to zero and a missing name defaults
// to domain.UnknownName; a missing token identifier is the only hard
// failure and yields ErrNoMatch.
type Parser interface {
	Parse(text string) (*domain.TokenUpdate, error)
}

// Registry maps feeds to their parsers.
type Registry struct {
	parsers map[domain.Feed]Parser
}

// NewRegistry creates a Registry with the default per-feed parsers registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[domain.Feed]Parser)}
	r.Register(domain.FeedEarlyGems, NewGemsParser())
	r.Register(domain.FeedBullishCalls, NewBullishParser())
	r.Register(domain.FeedTrending, NewTrendingParser())
	return r
}

// Register sets the parser for a feed, replacing any existing one.
func (r *Registry) Register(feed domain.Feed, p Parser) {
	r.parsers[feed] = p
}

// ForFeed returns the parser registered for a feed.
func (r *Registry) ForFeed(feed domain.Feed) (Parser, bool) {
	p, ok := r.parsers[feed]
	return p, ok
}
