// Package push subscribes to the remote ledger's change notifications over a WebSocket.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/gorilla/websocket"
)

// Client keeps a WebSocket subscription open and hands every event to a handler.
type Client struct {
	dialer  *websocket.Dialer
	header  http.Header
	url     string
	retry   service.RetryOptions
	backoff time.Duration
}

// NewClient creates a subscriber for the given ws:// or wss:// URL.
func NewClient(rawURL string, retry service.RetryOptions) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, fmt.Errorf("%w: push url %q", common.ErrInvalidConfig, rawURL)
	}

	return &Client{
		url: rawURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		header:  http.Header{},
		retry:   retry,
		backoff: time.Second,
	}, nil
}

// WithReconnectDelay sets the pause between a lost connection and the next dial.
func (c *Client) WithReconnectDelay(d time.Duration) *Client {
	c.backoff = d
	return c
}

// DeriveURL turns an http(s) service URL into the push endpoint on the same host.
func DeriveURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("%w: server url %q", common.ErrInvalidConfig, serverURL)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: server url %q", common.ErrInvalidConfig, serverURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Run reads events until ctx is done, reconnecting after connection loss.
// Handler errors are logged and never end the subscription.
func (c *Client) Run(ctx context.Context, handle service.EventHandler) error {
	for {
		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = c.read(ctx, conn, handle)
		if ctx.Err() != nil {
			return nil
		}
		common.LogWarn("Push channel disconnected, reconnecting", common.Fields{"error": err})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.backoff):
		}
	}
}

func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	err := common.WithRetry(ctx, func() error {
		var dialErr error
		conn, _, dialErr = c.dialer.DialContext(ctx, c.url, c.header)
		if dialErr != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to dial %s: %w", c.url, dialErr), Retryable: true}
		}
		return nil
	}, c.retry)
	if err != nil {
		return nil, err
	}
	slog.Debug("Push channel connected", "url", c.url)
	return conn, nil
}

func (c *Client) read(ctx context.Context, conn *websocket.Conn, handle service.EventHandler) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return fmt.Errorf("server closed the channel: %w", err)
			}
			return err
		}

		var ev service.Event
		if err := json.Unmarshal(frame, &ev); err != nil || ev.Name == "" {
			slog.Debug("Ignoring malformed push frame", "size", len(frame))
			continue
		}

		slog.Debug("Push event", "event", ev.Name)
		if err := handle(ctx, ev); err != nil {
			common.LogError(err, "Push event handler failed", common.Fields{"event": ev.Name})
		}
	}
}

var _ service.PushChannel = (*Client)(nil)
