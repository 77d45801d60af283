// Package feed supplies raw material for ingestion cycles: free-text posts
// from channel feeds and pre-structured updates from API feeds.
package feed

import (
	"context"

	"gemwatch/internal/domain"
)

// Post is one raw text post attributed to a feed.
type Post struct {
	Feed domain.Feed
	Text string
}

// PostSource provides raw posts for one feed. Fetch returns whatever
// arrived since the previous call; an empty slice is a normal quiet cycle.
type PostSource interface {
	Fetch(ctx context.Context) ([]Post, error)
}

// UpdateSource provides already-structured token updates, for feeds that
// speak JSON instead of free text.
type UpdateSource interface {
	Fetch(ctx context.Context) ([]*domain.TokenUpdate, error)
}
