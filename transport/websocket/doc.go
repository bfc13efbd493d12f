// Package websocket implements protocol.Conn over WebSocket.
//
// Every payload travels as one JSON text message, so no extra framing is
// needed. Server-side connections enforce a read limit and a pong-extended
// read deadline; the session server pings them every PingPeriod. Writes
// have a deadline so a stalled peer cannot block its writer forever.
//
// Usage:
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		conn, err := websocket.Upgrade(w, r)
//		if err != nil {
//			return
//		}
//		srv.ServeConn(conn)
//	})
//
//	conn, err := websocket.Dial(ctx, "ws://localhost:8080/ws")
package websocket
