package domain

// Feed identifies an external source of token posts.
type Feed string

const (
	// FeedEarlyGems is the labeled-field gems channel.
	FeedEarlyGems Feed = "early100xgems"
	// FeedBullishCalls is the bullish calls channel.
	FeedBullishCalls Feed = "BullishCallsPremium"
	// FeedTrending is the trending channel with the richest (and most
	// unstable) set of post layouts.
	FeedTrending Feed = "solearlytrending"
	// FeedProfileAPI is the token-profile HTTP API source.
	FeedProfileAPI Feed = "profile_api"
)
