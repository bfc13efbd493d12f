package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/trivia-rooms/protocol"
)

// echoServer upgrades every request and echoes payloads back. Protocol
// errors are answered with a notification.
func echoServer(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			p, err := conn.ReadPayload()
			if protocol.IsProtocolError(err) {
				conn.WritePayload(protocol.NewNotification("Protocol error: %v", err))
				continue
			}
			if err != nil {
				return
			}
			if err := conn.WritePayload(p); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEcho(t *testing.T) {
	conn := dial(t, echoServer(t))

	require.NoError(t, conn.WritePayload(protocol.NewReady("A", []string{"Science"})))
	p, err := conn.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, protocol.Ready, p.Type)
	assert.Equal(t, []string{"Science"}, p.Categories)

	assert.NoError(t, conn.Ping())
	assert.NotEmpty(t, conn.RemoteAddr())
}

func TestUnknownTypeIsReported(t *testing.T) {
	conn := dial(t, echoServer(t))

	conn.writeMu.Lock()
	err := conn.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"SING"}`))
	conn.writeMu.Unlock()
	require.NoError(t, err)

	p, err := conn.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, protocol.Notification, p.Type)
	assert.Contains(t, p.Message, "unknown payload type")

	// The connection is still usable.
	require.NoError(t, conn.WritePayload(protocol.NewConnect("B")))
	p, err = conn.ReadPayload()
	require.NoError(t, err)
	assert.Equal(t, "B", p.ClientID)
}

func TestCloseIsReportedToPeer(t *testing.T) {
	var closed = make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrade(w, r)
		if err != nil {
			return
		}
		_, err = conn.ReadPayload()
		closed <- err
	}))
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, conn.Close())

	select {
	case err := <-closed:
		assert.True(t, IsClosed(err), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the close")
	}
}
