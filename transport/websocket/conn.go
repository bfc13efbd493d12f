package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/trivia-rooms/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// PingPeriod is how often the server pings a peer. Must be less than pongWait.
	PingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = protocol.MaxFrameSize
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Clients are trusted by identifier only; any origin may connect
		return true
	},
}

// Conn carries one payload per WebSocket text message. It implements
// protocol.Conn.
type Conn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Upgrade upgrades an HTTP request to a server-side payload connection. The
// read deadline is extended by every pong, so callers must Ping at least
// every PingPeriod.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	return &Conn{conn: conn}, nil
}

// Dial opens a client-side payload connection to a ws:// URL.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)
	return &Conn{conn: conn}, nil
}

// ReadPayload reads the next message. Unknown or malformed payloads are
// returned with a protocol error; the connection stays usable.
func (c *Conn) ReadPayload() (protocol.Payload, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return protocol.Payload{}, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		return protocol.Unmarshal(data)
	}
}

// WritePayload writes one payload as a text message.
func (c *Conn) WritePayload(p protocol.Payload) error {
	data, err := protocol.Marshal(p)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Ping sends a ping control frame.
func (c *Conn) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close sends a close frame and closes the underlying connection.
func (c *Conn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// IsClosed reports whether err is the peer closing the connection.
func IsClosed(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce)
}
