package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrRecipientGone marks a recipient as permanently unreachable: the bot
// was blocked, the chat was deleted, or the user deactivated. Callers
// should drop the recipient rather than retry.
var ErrRecipientGone = errors.New("recipient permanently unreachable")

// TransientError wraps failures worth retrying: network errors, rate
// limits, and server-side errors.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyAPIError maps a Bot API error envelope to the error taxonomy.
func classifyAPIError(code int, description string) error {
	switch {
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrRecipientGone, description)
	case code == http.StatusBadRequest && strings.Contains(strings.ToLower(description), "chat not found"):
		return fmt.Errorf("%w: %s", ErrRecipientGone, description)
	case code == http.StatusTooManyRequests || code >= 500:
		return &TransientError{Err: fmt.Errorf("api error %d: %s", code, description)}
	default:
		return fmt.Errorf("api error %d: %s", code, description)
	}
}
