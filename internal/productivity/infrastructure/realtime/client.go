package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/observer"
	"github.com/gorilla/websocket"
)

// Client receives frames from a hub.
type Client struct {
	ws *websocket.Conn
}

// Dial connects to a hub. rawURL may use the http, https, ws or wss scheme.
func Dial(ctx context.Context, rawURL string, header http.Header) (*Client, error) {
	wsURL, err := WebSocketURL(rawURL)
	if err != nil {
		return nil, err
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", wsURL, err)
	}
	return &Client{ws: ws}, nil
}

// Next blocks until the next frame arrives.
func (c *Client) Next() (observer.Frame, error) {
	var frame observer.Frame
	if err := c.ws.ReadJSON(&frame); err != nil {
		return observer.Frame{}, err
	}
	if err := frame.Validate(); err != nil {
		return observer.Frame{}, err
	}
	return frame, nil
}

// Close says goodbye to the hub and closes the connection.
func (c *Client) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// IsNormalClose reports whether err is the hub closing the stream normally.
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// WebSocketURL turns a server base URL into the observer endpoint URL. A URL
// that already has a path other than "/" is kept as is.
func WebSocketURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	u.Path = "/" + strings.TrimPrefix(u.Path, "/")
	return u.String(), nil
}
