// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: dial.go — connect-sequence contract and gorilla/websocket dialer
//
// Purpose:
//   - Dialer/Conn are the only surface sessions depend on, so tests can swap
//     in a fake transport without opening a socket. defaultDialer performs
//     the §4.3 connect sequence against a real endpoint.
// ─────────────────────────────────────────────────────────────────────────────

package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codewanderer/wsingest/wsurl"
)

// Conn is the minimal read-side contract a session needs from a live
// WebSocket connection.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer performs the §4.3 connect sequence: resolve → TCP connect → SNI →
// TCP_NODELAY → TLS handshake → WS configure → WS handshake. Each step fails
// individually and is surfaced as a single ConnectError.
type Dialer interface {
	Dial(ctx context.Context, ep wsurl.Endpoint) (Conn, error)
}

// defaultDialer is the production Dialer, backed by gorilla/websocket.
type defaultDialer struct{}

// NewDialer returns the production Dialer used outside of tests.
func NewDialer() Dialer {
	return defaultDialer{}
}

func (defaultDialer) Dial(ctx context.Context, ep wsurl.Endpoint) (Conn, error) {
	netDialer := &net.Dialer{Timeout: 10 * time.Second}

	d := websocket.Dialer{
		// TCP_NODELAY is set on the raw TCP connection, before TLS wraps it.
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := netDialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tcp, ok := conn.(*net.TCPConn); ok {
				if err := tcp.SetNoDelay(true); err != nil {
					conn.Close()
					return nil, err
				}
			}
			return conn, nil
		},
		TLSClientConfig:   &tls.Config{ServerName: ep.Host},
		HandshakeTimeout:  10 * time.Second,
		EnableCompression: false, // disable per-message-deflate (§4.3)
	}

	header := http.Header{}
	header.Set("User-Agent", "wsingest/1.0")

	url := "wss://" + ep.DialAddr() + ep.Path

	c, _, err := d.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("session: connect %s: %w", url, err)
	}

	return &gorillaConn{c}, nil
}

// gorillaConn adapts *websocket.Conn to the Conn contract.
type gorillaConn struct {
	c *websocket.Conn
}

func (g *gorillaConn) ReadMessage() (int, []byte, error) {
	return g.c.ReadMessage()
}

func (g *gorillaConn) SetReadDeadline(t time.Time) error {
	return g.c.SetReadDeadline(t)
}

func (g *gorillaConn) Close() error {
	return g.c.Close()
}
