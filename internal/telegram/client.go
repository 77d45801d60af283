// Package telegram is a minimal Telegram Bot API client covering what the
// watcher needs: sending messages and long-polling updates. Delivery errors
// are split into transient failures, which callers may retry or ignore, and
// permanently gone recipients, which callers are expected to drop.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	defaultBaseURL = "https://api.telegram.org"
)

// Client talks to the Telegram Bot API over HTTPS.
type Client struct {
	baseURL     string
	token       string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.client.Timeout = d }
}

// WithMaxRetries sets maximum retry attempts for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.retryDelay = d }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.client = client }
}

// NewClient creates a new Bot API client for the given bot token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		token:       token,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// SendMessage delivers Markdown-formatted text to a chat. A permanently
// unreachable recipient (blocked bot, deleted chat) yields ErrRecipientGone;
// transient failures are retried with backoff before surfacing.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// GetUpdates long-polls for updates after offset. timeout is the server-side
// poll duration in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message", "channel_post"},
	}
	raw, err := c.call(ctx, "getUpdates", payload)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// call POSTs one Bot API method, retrying transient failures.
func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	delay := c.retryDelay
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		raw, err := c.doOnce(ctx, url, body)
		if err == nil {
			return raw, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%s: retries exhausted: %w", method, lastErr)
}

func (c *Client) doOnce(ctx context.Context, url string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		if resp.StatusCode >= 500 {
			return nil, &TransientError{Err: fmt.Errorf("server error %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.OK {
		return nil, classifyAPIError(envelope.ErrorCode, envelope.Description)
	}
	return envelope.Result, nil
}
