// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"net"

	"github.com/google/uuid"
)

// phase is a client connection's position in the RFB conversation. Phases
// only ever advance; a connection that cannot advance is dropped.
type phase uint8

const (
	phaseVersion phase = iota
	phaseSecurity
	phaseInit
	phaseMessage
	phaseSetPixelFormat
	phaseSetEncodingsHeader
	phaseSetEncodingsEntry
	phaseUpdateRequest
	phaseKeyEvent
	phasePointerEvent
	phaseCutTextHeader
	phaseCutTextBody
)

// clientBufSize bounds the body buffer. No fixed message part is longer,
// and variable-length bodies are consumed in chunks of at most this size.
const clientBufSize = 20

// snapshot holds the game indicator values a client last received. The
// update scheduler compares it against the live game to pick the rectangles
// worth re-encoding.
type snapshot struct {
	coinY        int
	handleY      int
	reelPosition [3]int
	plays        int
	profit       int
}

// Client is the per-connection state: the socket, the protocol reader
// position, the negotiated pixel format and encodings, input latches, and
// the last-sent game snapshot.
//
// A Client is owned by the server's event loop; nothing else touches it.
type Client struct {
	id     string
	conn   net.Conn
	logger Logger

	phase phase

	// buf accumulates the current message part; read counts the bytes
	// already in buf, needed the bytes that complete the part, and extra
	// the remaining repetitions for multi-part messages (SetEncodings
	// entries, ClientCutText body bytes).
	//
	// When a message type byte dispatches to a body phase, read is not
	// reset, so needed counts include the type byte.
	buf    [clientBufSize]byte
	read   int
	needed int
	extra  int

	format    PixelFormat
	encodings EncodingSet

	// keyDown latches play-key state so key repeat does not retrigger.
	keyDown bool
	// mouseDown is 0 (no press), 1 (pressed on the handle hotspot), or
	// 2 (pressed on the COPY hotspot).
	mouseDown uint8

	// ready means an incremental update request is outstanding; it is
	// cleared once a tick sends the client something.
	ready bool

	sentPalette bool
	sentCursor  bool

	snap snapshot

	bytesSent uint64
	closed    bool
}

// newClient allocates state for a freshly accepted connection. The protocol
// version banner has already been written by the acceptor; the client owes
// us its 12-byte version reply.
func newClient(conn net.Conn, logger Logger) *Client {
	c := &Client{
		id:     uuid.NewString(),
		conn:   conn,
		phase:  phaseVersion,
		needed: 12,
		format: defaultPixelFormat(),
	}
	c.logger = logger.With(
		Field{Key: "client", Value: c.id},
		Field{Key: "remote", Value: conn.RemoteAddr().String()})
	return c
}

// send writes a complete message to the client, accounting it.
func (c *Client) send(p []byte) error {
	c.bytesSent += uint64(len(p))
	if _, err := c.conn.Write(p); err != nil {
		return networkError("Client.send", "failed to write to client", err)
	}
	return nil
}
