package domain

// Subscriber is one notification recipient.
// Corresponds to the subscribers table. Created on a subscribe command,
// removed on unsubscribe or on confirmed permanent delivery failure.
type Subscriber struct {
	ChatID       int64  // PRIMARY KEY, Telegram chat identifier
	Handle       string // display handle, may be empty
	SubscribedAt int64  // Unix timestamp in milliseconds
}
