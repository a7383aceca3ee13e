// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsUpgrader accepts any origin: the RFB handshake carries no credentials
// and the display is the same for everyone.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	Subprotocols:    []string{"binary"},
	CheckOrigin:     func(*http.Request) bool { return true },
}

// websocketHandler serves the RFB byte stream over binary WebSocket frames
// at /websockify, the path noVNC-style clients expect.
func (s *Server) websocketHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/websockify", s.handleWebSocket)
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow(requestIP(r)) {
		s.logger.Warn("websocket rate limited", Field{Key: "remote", Value: r.RemoteAddr})
		http.Error(w, "too many connections", http.StatusTooManyRequests)
		return
	}

	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			Field{Key: "remote", Value: r.RemoteAddr},
			Field{Key: "error", Value: err})
		return
	}

	s.startConn(newWSConn(ws))
}

// wsConn adapts a WebSocket connection to net.Conn so the protocol engine
// treats both transports identically. Reads drain data frames in order;
// each write becomes one binary frame.
type wsConn struct {
	ws *websocket.Conn

	// frame is the remainder of the data frame currently being read.
	frame io.Reader
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// Read returns bytes from the current data frame, pulling the next frame
// when the current one is exhausted.
func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.frame == nil {
			t, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if t != websocket.BinaryMessage && t != websocket.TextMessage {
				continue
			}
			c.frame = r
		}

		n, err := c.frame.Read(p)
		if err == io.EOF {
			c.frame = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write sends p as a single binary frame.
func (c *wsConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
