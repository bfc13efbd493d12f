package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/wricardo/trivia-rooms/protocol"
	"github.com/wricardo/trivia-rooms/transport/tcp"
	"github.com/wricardo/trivia-rooms/transport/websocket"
)

var ErrClosed = errors.New("client closed")

const eventBuffer = 256

// Client is one player's connection to a session server.
type Client struct {
	id     string
	conn   protocol.Conn
	logger *slog.Logger

	events    chan protocol.Payload
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// New starts a client over an established connection. Nothing is sent until
// Connect is called.
func New(conn protocol.Conn, clientID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		id:     clientID,
		conn:   conn,
		logger: logger.With("client_id", clientID),
		events: make(chan protocol.Payload, eventBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// DialTCP connects to the game port of a server.
func DialTCP(ctx context.Context, addr, clientID string, logger *slog.Logger) (*Client, error) {
	conn, err := tcp.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return New(conn, clientID, logger), nil
}

// DialWebSocket connects to the WebSocket endpoint of a server.
func DialWebSocket(ctx context.Context, url, clientID string, logger *slog.Logger) (*Client, error) {
	conn, err := websocket.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return New(conn, clientID, logger), nil
}

// Dial picks the transport from the address: ws:// and wss:// URLs use
// WebSocket, anything else is a TCP host:port.
func Dial(ctx context.Context, addr, clientID string, logger *slog.Logger) (*Client, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return DialWebSocket(ctx, addr, clientID, logger)
	}
	return DialTCP(ctx, addr, clientID, logger)
}

// ID returns the identifier the client connects with.
func (c *Client) ID() string {
	return c.id
}

// Events delivers every payload received from the server. The channel is
// closed when the connection ends.
func (c *Client) Events() <-chan protocol.Payload {
	return c.events
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Connect() error {
	return c.send(protocol.NewConnect(c.id))
}

func (c *Client) CreateRoom(name string) error {
	return c.send(protocol.NewRoomRequest(protocol.CreateRoom, c.id, name))
}

func (c *Client) JoinRoom(name string) error {
	return c.send(protocol.NewRoomRequest(protocol.JoinRoom, c.id, name))
}

func (c *Client) JoinRoomAsSpectator(name string) error {
	return c.send(protocol.NewRoomRequest(protocol.JoinRoomAsSpectator, c.id, name))
}

// MarkReady signals readiness, optionally with preferred categories.
func (c *Client) MarkReady(categories ...string) error {
	return c.send(protocol.NewReady(c.id, categories))
}

func (c *Client) SelectCategories(categories ...string) error {
	return c.send(protocol.NewCategorySelection(c.id, categories))
}

// SubmitAnswer answers the current question with an option letter.
func (c *Client) SubmitAnswer(letter string) error {
	return c.send(protocol.NewAnswer(c.id, letter))
}

func (c *Client) SetAwayStatus(away bool) error {
	return c.send(protocol.NewAwayStatus(c.id, away))
}

// Next returns the next payload from the server.
func (c *Client) Next(ctx context.Context) (protocol.Payload, error) {
	select {
	case p, ok := <-c.events:
		if !ok {
			return protocol.Payload{}, c.closedErr()
		}
		return p, nil
	case <-ctx.Done():
		return protocol.Payload{}, ctx.Err()
	}
}

// WaitFor discards payloads until one satisfies match.
func (c *Client) WaitFor(ctx context.Context, match func(protocol.Payload) bool) (protocol.Payload, error) {
	for {
		p, err := c.Next(ctx)
		if err != nil {
			return protocol.Payload{}, err
		}
		if match(p) {
			return p, nil
		}
	}
}

// Close disconnects from the server.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) send(p protocol.Payload) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := c.conn.WritePayload(p); err != nil {
		return fmt.Errorf("send %s: %w", p.Type, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.events)

	for {
		p, err := c.conn.ReadPayload()
		if err != nil {
			if protocol.IsProtocolError(err) {
				c.logger.Warn("dropping invalid payload from server", "error", err)
				continue
			}
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		select {
		case c.events <- p:
		case <-c.done:
			return
		}
	}
}

func (c *Client) closedErr() error {
	if err := c.Err(); err != nil {
		select {
		case <-c.done:
			return ErrClosed
		default:
		}
		return fmt.Errorf("connection lost: %w", err)
	}
	return ErrClosed
}

// Matchers for WaitFor.

// IsType matches payloads of type t.
func IsType(t protocol.PayloadType) func(protocol.Payload) bool {
	return func(p protocol.Payload) bool { return p.Type == t }
}

// HasMessage matches notifications containing substr.
func HasMessage(substr string) func(protocol.Payload) bool {
	return func(p protocol.Payload) bool {
		return p.Type == protocol.Notification && strings.Contains(p.Message, substr)
	}
}
