package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"nhooyr.io/websocket"
)

// Conn is the transport surface the machine drives. The real implementation
// wraps a websocket connection; tests substitute a scripted fake.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close(reason string) error
}

// Dialer opens a connection to a match endpoint.
type Dialer func(ctx context.Context, url string, header http.Header) (Conn, error)

// DialWebsocket is the production dialer.
func DialWebsocket(ctx context.Context, url string, header http.Header) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.c.Read(ctx)
	return data, err
}

func (w *wsConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Ping(ctx context.Context) error {
	return w.c.Ping(ctx)
}

func (w *wsConn) Close(reason string) error {
	return w.c.Close(websocket.StatusNormalClosure, reason)
}

func isNormalClose(err error) bool {
	return websocket.CloseStatus(err) == websocket.StatusNormalClosure
}

// TokenProvider yields the current bearer token, or "" when unauthenticated.
type TokenProvider interface {
	Token() string
}

// Endpoints resolves a match id into a connection endpoint.
type Endpoints interface {
	SocketURL(matchID string) string
}

// Identity names the authenticated local account. The machine derives the
// local seat by matching this name against the participant list.
type Identity interface {
	Username() string
}

func randID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
