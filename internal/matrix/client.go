// Package matrix is a minimal client for the Matrix client-server API: the
// long-poll /sync endpoint and plain-text message sends. Only the slices of
// the protocol the bot needs are implemented.
package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// ErrProtocol marks a non-2xx status or a malformed response body.
var ErrProtocol = errors.New("matrix protocol error")

// The server holds a long poll for up to syncTimeout; the HTTP client allows
// a margin on top of that.
const (
	syncTimeout       = 60 * time.Second
	httpClientTimeout = 90 * time.Second
)

// Client talks to a single homeserver with a fixed access token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      zerolog.Logger
}

// NewClient creates a client for the homeserver at host (scheme+authority).
func NewClient(host, accessToken string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: httpClientTimeout},
		baseURL:     host,
		accessToken: accessToken,
		logger:      logger.With().Str("component", "matrix").Logger(),
	}
}

// sync issues one long-poll sync request. An empty since token requests the
// initial catch-up sync without a server-side timeout.
func (c *Client) sync(ctx context.Context, since string) (*SyncResponse, error) {
	u := c.baseURL + "/_matrix/client/r0/sync"
	if since != "" {
		q := url.Values{}
		q.Set("since", since)
		q.Set("timeout", fmt.Sprintf("%d", syncTimeout.Milliseconds()))
		u += "?" + q.Encode()
	}

	c.logger.Trace().Str("url", u).Msg("making sync request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: sync returned %s", ErrProtocol, resp.Status)
	}

	var sr SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: parse sync response: %v", ErrProtocol, err)
	}
	return &sr, nil
}

// SendText posts a plain-text m.room.message to a room.
func (c *Client) SendText(ctx context.Context, roomID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"body":    text,
		"msgtype": "m.text",
	})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/_matrix/client/r0/rooms/%s/send/m.room.message",
		c.baseURL, url.PathEscape(roomID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: send returned %s", ErrProtocol, resp.Status)
	}

	c.logger.Info().Str("room", roomID).Msg("sent message")
	return nil
}
