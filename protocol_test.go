// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"bytes"
	"testing"
)

func TestHandshake_WireBytes(t *testing.T) {
	s := newTestServer(t)
	conn := &fakeConn{}
	c := newClient(conn, &NoOpLogger{})
	s.clients = append(s.clients, c)

	// The client answers the banner with its own 12-byte version.
	if err := s.clientData(c, []byte("RFB 003.008\n")); err != nil {
		t.Fatalf("version reply failed: %v", err)
	}
	if got := conn.out.Bytes(); !bytes.Equal(got, []byte{0x01, 0x01}) {
		t.Fatalf("security types = % x, want 01 01", got)
	}
	conn.out.Reset()

	// Security type choice, then the always-OK result.
	if err := s.clientData(c, []byte{0x01}); err != nil {
		t.Fatalf("security choice failed: %v", err)
	}
	if got := conn.out.Bytes(); !bytes.Equal(got, []byte{0x00, 0x00, 0x00, 0x00}) {
		t.Fatalf("security result = % x, want 00 00 00 00", got)
	}
	conn.out.Reset()

	// ClientInit, answered by the fixed 32-byte ServerInit.
	if err := s.clientData(c, []byte{0x01}); err != nil {
		t.Fatalf("client init failed: %v", err)
	}
	got := conn.out.Bytes()
	if len(got) != 32 {
		t.Fatalf("ServerInit is %d bytes, want 32", len(got))
	}
	if !bytes.Equal(got[:4], []byte{0x02, 0x00, 0x01, 0x80}) {
		t.Errorf("ServerInit geometry = % x, want 02 00 01 80", got[:4])
	}
	if !bytes.Equal(got[24:], []byte("VNCSlots")) {
		t.Errorf("ServerInit name = %q, want VNCSlots", got[24:])
	}
}

// TestHandshake_FragmentedDelivery feeds the whole handshake one byte at a
// time; the reader must assemble message parts across arbitrarily small
// reads.
func TestHandshake_FragmentedDelivery(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)

	input := append([]byte("RFB 003.008\n"), 0x01, 0x01)
	for _, b := range input {
		if err := s.clientData(c, []byte{b}); err != nil {
			t.Fatalf("byte-at-a-time handshake failed: %v", err)
		}
	}

	if c.phase != phaseMessage {
		t.Fatalf("phase = %d, want %d", c.phase, phaseMessage)
	}
	// Banner replies: 2 + 4 + 32 bytes.
	if conn.out.Len() != 38 {
		t.Errorf("handshake replies totaled %d bytes, want 38", conn.out.Len())
	}
}

func TestSetEncodings_ReplacesPriorSet(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	setEncodings(t, s, c, EncodingTypeHextile)
	if c.encodings != EncHextile {
		t.Fatalf("encodings = %#x after Hextile, want %#x", c.encodings, EncHextile)
	}

	setEncodings(t, s, c, EncodingTypeRRE)
	if c.encodings != EncRRE {
		t.Errorf("encodings = %#x after RRE, want %#x (prior set must be cleared)", c.encodings, EncRRE)
	}
}

func TestSetEncodings_KnownAndUnknownTypes(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	setEncodings(t, s, c,
		EncodingTypeRaw,
		EncodingTypeCopyRect,
		EncodingTypeRRE,
		EncodingTypeHextile,
		EncodingTypeTRLE,
		EncodingTypeZRLE,
		EncodingTypeCursor,
		EncodingTypeDesktopSize,
		7,     // unassigned
		-1000, // unknown pseudo-encoding
	)

	want := EncCopyRect | EncRRE | EncHextile | EncTRLE | EncZRLE | EncCursor
	if c.encodings != want {
		t.Errorf("encodings = %#x, want %#x", c.encodings, want)
	}
	if c.phase != phaseMessage {
		t.Errorf("phase = %d, want %d", c.phase, phaseMessage)
	}
}

func TestSetPixelFormat_UpdatesClient(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	msg := []byte{
		msgSetPixelFormat, 0x00, 0x00, 0x00,
		8, 8, 0x01, 0x01,
		0x00, 0x07,
		0x00, 0x07,
		0x00, 0x03,
		0, 3, 6,
		0x00, 0x00, 0x00,
	}
	if err := s.clientData(c, msg); err != nil {
		t.Fatalf("SetPixelFormat failed: %v", err)
	}

	if !c.format.directBGR233() {
		t.Errorf("format %+v should be the direct BGR-233 layout", c.format)
	}
	if c.phase != phaseMessage {
		t.Errorf("phase = %d, want %d", c.phase, phaseMessage)
	}
}

func TestUnknownMessageType_DropsClient(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	err := s.clientData(c, []byte{0x42})
	if err == nil {
		t.Fatal("unknown message type accepted, want error")
	}
	if !IsServerError(err, ErrProtocol) {
		t.Errorf("error = %v, want a protocol error", err)
	}
}

func TestKeyEvent_StartsPlayOnce(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	keyEvent := func(down byte, key uint32) []byte {
		return []byte{msgKeyEvent, down, 0x00, 0x00,
			byte(key >> 24), byte(key >> 16), byte(key >> 8), byte(key)}
	}

	// Space pressed: the machine starts.
	if err := s.clientData(c, keyEvent(1, keySpace)); err != nil {
		t.Fatalf("key down failed: %v", err)
	}
	if s.game.State() != GameCoin {
		t.Fatalf("game state = %d after space, want %d", s.game.State(), GameCoin)
	}
	if !c.keyDown {
		t.Error("keyDown not latched")
	}

	// Key repeat while held must not retrigger anything, and neither do
	// uninteresting keys.
	if err := s.clientData(c, keyEvent(1, keySpace)); err != nil {
		t.Fatalf("key repeat failed: %v", err)
	}
	if err := s.clientData(c, keyEvent(1, 'x')); err != nil {
		t.Fatalf("other key failed: %v", err)
	}

	// Release clears the latch.
	if err := s.clientData(c, keyEvent(0, keySpace)); err != nil {
		t.Fatalf("key up failed: %v", err)
	}
	if c.keyDown {
		t.Error("keyDown still latched after release")
	}
}

func pointerEvent(mask byte, x, y int) []byte {
	return []byte{msgPointerEvent, mask,
		byte(x >> 8), byte(x), byte(y >> 8), byte(y)}
}

func TestPointerEvent_HandleClick(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	// Press and release on the handle pulls it.
	if err := s.clientData(c, pointerEvent(1, 460, 90)); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	if c.mouseDown != 1 {
		t.Fatalf("mouseDown = %d after handle press, want 1", c.mouseDown)
	}
	if err := s.clientData(c, pointerEvent(0, 460, 90)); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if c.mouseDown != 0 {
		t.Errorf("mouseDown = %d after release, want 0", c.mouseDown)
	}
	if s.game.State() != GameCoin {
		t.Errorf("game state = %d after handle click, want %d", s.game.State(), GameCoin)
	}
}

func TestPointerEvent_DragOffHandleCancels(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	if err := s.clientData(c, pointerEvent(1, 460, 90)); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	// Release far away: no play.
	if err := s.clientData(c, pointerEvent(0, 10, 10)); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if s.game.State() != GameWaiting {
		t.Errorf("game state = %d, want still waiting", s.game.State())
	}
	if c.mouseDown != 0 {
		t.Errorf("mouseDown = %d, want 0", c.mouseDown)
	}
}

func TestPointerEvent_CopyButton(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	if err := s.clientData(c, pointerEvent(1, 480, 370)); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	if c.mouseDown != 2 {
		t.Fatalf("mouseDown = %d after COPY press, want 2", c.mouseDown)
	}
	if err := s.clientData(c, pointerEvent(0, 480, 370)); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	got := conn.out.Bytes()
	if len(got) != 48 {
		t.Fatalf("ServerCutText is %d bytes, want 48", len(got))
	}
	if !bytes.Equal(got[:8], []byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 40}) {
		t.Errorf("header = % x", got[:8])
	}
	if string(got[8:]) != "https://github.com/greg-kennedy/VNCSlots" {
		t.Errorf("cut text = %q", got[8:])
	}
	if s.game.State() != GameWaiting {
		t.Errorf("COPY click started the game")
	}
}

func TestClientCutText_Discarded(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	text := bytes.Repeat([]byte{'a'}, 77)
	msg := []byte{msgClientCutText, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, byte(len(text))}
	msg = append(msg, text...)
	// Trailing message to prove the engine resynchronized.
	msg = append(msg, pointerEvent(1, 480, 370)...)

	if err := s.clientData(c, msg); err != nil {
		t.Fatalf("ClientCutText failed: %v", err)
	}
	if c.mouseDown != 2 {
		t.Errorf("message after cut text not parsed (mouseDown = %d)", c.mouseDown)
	}
}

func TestClientCutText_ZeroLength(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	msg := []byte{msgClientCutText, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if err := s.clientData(c, msg); err != nil {
		t.Fatalf("zero-length ClientCutText failed: %v", err)
	}
	if c.phase != phaseMessage {
		t.Errorf("phase = %d, want %d", c.phase, phaseMessage)
	}
}

func TestFramebufferUpdateRequest_Incremental(t *testing.T) {
	s := newTestServer(t)
	c, conn := newTestClient(t, s)
	handshake(t, s, c, conn)

	msg := []byte{msgFramebufferUpdateRequest, 0x01,
		0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x80}
	if err := s.clientData(c, msg); err != nil {
		t.Fatalf("update request failed: %v", err)
	}
	if !c.ready {
		t.Error("incremental request did not mark the client ready")
	}
	if conn.out.Len() != 0 {
		t.Errorf("incremental request answered immediately with %d bytes", conn.out.Len())
	}
}
