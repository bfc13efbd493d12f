package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/wricardo/trivia-rooms/protocol"
)

// Time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

// Conn carries length-prefixed payload frames over a TCP stream. It
// implements protocol.Conn.
type Conn struct {
	conn    net.Conn
	r       *bufio.Reader
	writeMu sync.Mutex
}

// NewConn wraps an accepted or dialed connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, r: bufio.NewReader(conn)}
}

// Dial connects to a game server.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp dial %s: %w", addr, err)
	}
	return NewConn(conn), nil
}

// ReadPayload reads the next frame. A frame holding an unknown or malformed
// payload is returned with a protocol error and the stream stays aligned.
func (c *Conn) ReadPayload() (protocol.Payload, error) {
	return protocol.ReadFrame(c.r)
}

// WritePayload writes one frame. Concurrent calls are serialized.
func (c *Conn) WritePayload(p protocol.Payload) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return protocol.WriteFrame(c.conn, p)
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
