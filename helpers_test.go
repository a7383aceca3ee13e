// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"bytes"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"
)

// testAssets builds a synthetic asset set: every image the game needs, each
// painted a distinct color so blit mistakes show up in comparisons.
func testAssets() *Assets {
	solid := func(w, h int, color byte) *Image {
		img := NewImage(w, h)
		img.Fill(0, 0, w, h, color)
		return img
	}

	// Digit bands: glyph d is an 8x11 band of 0x10+d, the minus glyph a
	// band of 0x1B.
	digits := NewImage(8, 121)
	for d := 0; d < 10; d++ {
		digits.Fill(0, 11*d, 8, 11, byte(0x10+d))
	}
	digits.Fill(0, 110, 8, 11, 0x1B)

	// Fruit sheet: symbol f is a 32x32 band of 0x40+f.
	fruitSheet := NewImage(fruitSize, fruitSize*5)
	for f := 0; f < 5; f++ {
		fruitSheet.Fill(0, fruitSize*f, fruitSize, fruitSize, byte(0x40+f))
	}

	return &Assets{
		Background: solid(fbWidth, fbHeight, 0x03),
		Digits:     digits,
		Ball:       solid(8, 8, 0x07),
		Handle:     solid(8, 120, 0x0A),
		Coin:       solid(29, 36, 0x30),
		CoinSlot:   solid(29, 8, 0x31),
		Fruit:      fruitSheet,
	}
}

// newTestServer builds a server with synthetic assets and no listeners
// bound, for driving the protocol engine directly.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &Config{
		ListenAddr: "127.0.0.1:0",
		AssetDir:   ".",
		StatsPath:  filepath.Join(t.TempDir(), "stats.ini"),
		Logger:     &NoOpLogger{},
	}
	s, err := NewServer(cfg, testAssets())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return s
}

// fakeAddr satisfies net.Addr for fakeConn.
type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake:0" }

// fakeConn is a net.Conn that records everything written to it. Reads
// report EOF; the protocol tests push bytes straight into the engine.
type fakeConn struct {
	out bytes.Buffer
}

func (c *fakeConn) Read(p []byte) (int, error)       { return 0, io.EOF }
func (c *fakeConn) Write(p []byte) (int, error)      { return c.out.Write(p) }
func (c *fakeConn) Close() error                     { return nil }
func (c *fakeConn) LocalAddr() net.Addr              { return fakeAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr             { return fakeAddr{} }
func (c *fakeConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

// newTestClient attaches a fresh client to the server, the way an accept
// would, and returns its capture buffer.
func newTestClient(t *testing.T, s *Server) (*Client, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	c := newClient(conn, &NoOpLogger{})
	s.clients = append(s.clients, c)
	return c, conn
}

// handshake drives a test client through the RFB handshake so it sits in
// the message-dispatch phase, and discards the handshake replies.
func handshake(t *testing.T, s *Server, c *Client, conn *fakeConn) {
	t.Helper()
	if err := s.clientData(c, make([]byte, 12)); err != nil {
		t.Fatalf("version handshake failed: %v", err)
	}
	if err := s.clientData(c, []byte{0x01}); err != nil {
		t.Fatalf("security handshake failed: %v", err)
	}
	if err := s.clientData(c, []byte{0x01}); err != nil {
		t.Fatalf("client init failed: %v", err)
	}
	if c.phase != phaseMessage {
		t.Fatalf("phase = %d after handshake, want %d", c.phase, phaseMessage)
	}
	conn.out.Reset()
}

// setEncodings sends a SetEncodings message for the given encoding type
// identifiers.
func setEncodings(t *testing.T, s *Server, c *Client, encs ...int32) {
	t.Helper()
	msg := []byte{msgSetEncodings, 0x00, byte(len(encs) >> 8), byte(len(encs))}
	for _, e := range encs {
		msg = append(msg, byte(e>>24), byte(e>>16), byte(e>>8), byte(e))
	}
	if err := s.clientData(c, msg); err != nil {
		t.Fatalf("SetEncodings failed: %v", err)
	}
}
