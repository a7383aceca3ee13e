// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"encoding/binary"
	"fmt"
)

// Client-to-server message types as defined in RFC 6143 Section 7.5.
const (
	msgSetPixelFormat           = 0
	msgSetEncodings             = 2
	msgFramebufferUpdateRequest = 3
	msgKeyEvent                 = 4
	msgPointerEvent             = 5
	msgClientCutText            = 6
)

// protocolVersion is the banner sent to every new connection before the
// handshake: "RFB 003.008\n".
var protocolVersion = []byte("RFB 003.008\n")

// securityTypes offers exactly one security type, "None".
var securityTypes = []byte{0x01, 0x01}

// securityResult reports the handshake as OK.
var securityResult = []byte{0x00, 0x00, 0x00, 0x00}

// serverInit announces the 512x384 framebuffer, the BGR-233 pixel format,
// and the desktop name "VNCSlots".
var serverInit = []byte{
	0x02, 0x00, 0x01, 0x80,
	// bpp, depth, big-endian, true-color, r/g/b max, r/g/b shift, padding
	0x08, 0x08, 0x01, 0x01, 0x00, 0x07, 0x00, 0x07, 0x00, 0x03, 0x00, 0x03, 0x06, 0x00, 0x00, 0x00,
	// name length 8, "VNCSlots"
	0x00, 0x00, 0x00, 0x08, 0x56, 0x4e, 0x43, 0x53, 0x6c, 0x6f, 0x74, 0x73,
}

// serverCutTextURL is the fixed ServerCutText reply to a COPY-button click:
// message header plus the 40-byte project URL.
var serverCutTextURL = []byte{
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 40,
	'h', 't', 't', 'p', 's', ':', '/', '/',
	'g', 'i', 't', 'h', 'u', 'b', '.', 'c', 'o', 'm', '/',
	'g', 'r', 'e', 'g', '-', 'k', 'e', 'n', 'n', 'e', 'd', 'y', '/',
	'V', 'N', 'C', 'S', 'l', 'o', 't', 's',
}

// Keysyms that pull the handle: space, enter, down-arrow, keypad-enter.
const (
	keySpace       = 32
	keyReturn      = 65293
	keyDownArrow   = 65364
	keyKeypadEnter = 65421
)

// Pointer hotspots (inclusive pixel bounds).
const (
	handleHotspotX1 = 451
	handleHotspotY1 = 73
	handleHotspotX2 = 487
	handleHotspotY2 = 109

	copyHotspotX1 = 472
	copyHotspotY1 = 365
	copyHotspotX2 = 490
	copyHotspotY2 = 383
)

// clientData feeds freshly received bytes into the client's protocol state
// machine, completing as many message parts as the data covers. A non-nil
// error means the client must be dropped.
func (s *Server) clientData(c *Client, data []byte) error {
	for len(data) > 0 {
		n := c.needed - c.read
		if n > len(data) {
			n = len(data)
		}
		copy(c.buf[c.read:], data[:n])
		c.read += n
		data = data[n:]

		if c.read == c.needed {
			if err := s.processMessage(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// processMessage handles one completed message part and advances the
// client's phase. Dispatching a message type byte leaves it in buf[0], so
// body phases see needed counts that include the type byte.
func (s *Server) processMessage(c *Client) error {
	switch c.phase {
	case phaseVersion:
		// 7.1.1 ProtocolVersion Handshake. Whatever version the client
		// claims is ignored; the reply is our single security type.
		if err := c.send(securityTypes); err != nil {
			return err
		}
		c.phase = phaseSecurity
		c.read = 0
		c.needed = 1

	case phaseSecurity:
		// 7.1.2 Security Handshake: always OK, there is no auth.
		if err := c.send(securityResult); err != nil {
			return err
		}
		c.phase = phaseInit
		c.read = 0
		c.needed = 1

	case phaseInit:
		// 7.3.1 ClientInit. The shared-session flag is ignored.
		if err := c.send(serverInit); err != nil {
			return err
		}
		c.phase = phaseMessage
		c.read = 0
		c.needed = 1

	case phaseMessage:
		switch c.buf[0] {
		case msgSetPixelFormat:
			c.phase = phaseSetPixelFormat
			c.needed = 20
		case msgSetEncodings:
			c.phase = phaseSetEncodingsHeader
			c.needed = 4
		case msgFramebufferUpdateRequest:
			c.phase = phaseUpdateRequest
			c.needed = 10
		case msgKeyEvent:
			c.phase = phaseKeyEvent
			c.needed = 8
		case msgPointerEvent:
			c.phase = phasePointerEvent
			c.needed = 6
		case msgClientCutText:
			c.phase = phaseCutTextHeader
			c.needed = 8
		default:
			return protocolError("Server.processMessage",
				fmt.Sprintf("unknown message type %d", c.buf[0]), nil)
		}

	case phaseSetPixelFormat:
		// 7.5.1 SetPixelFormat.
		c.format = parsePixelFormat(c.buf[:])
		c.phase = phaseMessage
		c.read = 0
		c.needed = 1

	case phaseSetEncodingsHeader:
		// 7.5.2 SetEncodings: the count, then one 4-byte entry at a
		// time. Each negotiation starts from an empty set.
		c.extra = int(binary.BigEndian.Uint16(c.buf[2:4]))
		c.encodings = 0
		c.nextEncodingEntry()

	case phaseSetEncodingsEntry:
		switch int32(binary.BigEndian.Uint32(c.buf[0:4])) {
		case EncodingTypeRaw:
			// Always supported, no bit to set.
		case EncodingTypeCopyRect:
			c.encodings |= EncCopyRect
		case EncodingTypeRRE:
			c.encodings |= EncRRE
		case EncodingTypeHextile:
			c.encodings |= EncHextile
		case EncodingTypeTRLE:
			c.encodings |= EncTRLE
		case EncodingTypeZRLE:
			c.encodings |= EncZRLE
		case EncodingTypeCursor:
			c.encodings |= EncCursor
		case EncodingTypeDesktopSize:
			// Fixed-size display, nothing to report.
		default:
			// Unknown or unused encoding, skip.
		}
		c.extra--
		c.nextEncodingEntry()

	case phaseUpdateRequest:
		// 7.5.3 FramebufferUpdateRequest.
		if c.buf[1] != 0 {
			// Incremental: the client waits for the next tick.
			c.ready = true
		} else {
			if err := s.sendUpdate(c,
				int(binary.BigEndian.Uint16(c.buf[2:4])),
				int(binary.BigEndian.Uint16(c.buf[4:6])),
				int(binary.BigEndian.Uint16(c.buf[6:8])),
				int(binary.BigEndian.Uint16(c.buf[8:10])),
				false); err != nil {
				return err
			}
			c.ready = false
		}
		c.phase = phaseMessage
		c.read = 0
		c.needed = 1

	case phaseKeyEvent:
		// 7.5.4 KeyEvent. Only the play keys matter, edge-triggered so
		// key repeat cannot restart the machine.
		key := binary.BigEndian.Uint32(c.buf[4:8])
		if key == keySpace || key == keyKeypadEnter || key == keyReturn || key == keyDownArrow {
			if c.buf[1] != 0 && !c.keyDown {
				c.keyDown = true
				s.startPlay()
			} else if c.buf[1] == 0 {
				c.keyDown = false
			}
		}
		c.phase = phaseMessage
		c.read = 0
		c.needed = 1

	case phasePointerEvent:
		// 7.5.5 PointerEvent. Only button-1 edges on the hotspots
		// matter; the hotspot is re-checked at release so a drag off
		// the handle cancels the pull.
		if c.mouseDown != 0 && c.buf[1]&1 == 0 {
			x := int(binary.BigEndian.Uint16(c.buf[2:4]))
			y := int(binary.BigEndian.Uint16(c.buf[4:6]))
			if x >= handleHotspotX1 && x <= handleHotspotX2 &&
				y >= handleHotspotY1 && y <= handleHotspotY2 && c.mouseDown == 1 {
				s.startPlay()
			} else if x >= copyHotspotX1 && x <= copyHotspotX2 &&
				y >= copyHotspotY1 && y <= copyHotspotY2 && c.mouseDown == 2 {
				if err := c.send(serverCutTextURL); err != nil {
					return err
				}
			}
			c.mouseDown = 0
		} else if c.mouseDown == 0 && c.buf[1]&1 == 1 {
			x := int(binary.BigEndian.Uint16(c.buf[2:4]))
			y := int(binary.BigEndian.Uint16(c.buf[4:6]))
			if x >= handleHotspotX1 && x <= handleHotspotX2 &&
				y >= handleHotspotY1 && y <= handleHotspotY2 {
				c.mouseDown = 1
			} else if x >= copyHotspotX1 && x <= copyHotspotX2 &&
				y >= copyHotspotY1 && y <= copyHotspotY2 {
				c.mouseDown = 2
			}
		}
		c.phase = phaseMessage
		c.read = 0
		c.needed = 1

	case phaseCutTextHeader:
		// 7.5.6 ClientCutText. The text is discarded without being
		// stored, a buffer's worth at a time.
		c.extra = int(binary.BigEndian.Uint32(c.buf[4:8]))
		c.nextCutTextChunk()

	case phaseCutTextBody:
		c.nextCutTextChunk()

	default:
		return protocolError("Server.processMessage",
			fmt.Sprintf("unhandled phase %d", c.phase), nil)
	}

	return nil
}

// nextEncodingEntry arms the reader for the next SetEncodings entry, or
// returns to message dispatch when the array is exhausted.
func (c *Client) nextEncodingEntry() {
	c.read = 0
	if c.extra == 0 {
		c.phase = phaseMessage
		c.needed = 1
	} else {
		c.phase = phaseSetEncodingsEntry
		c.needed = 4
	}
}

// nextCutTextChunk arms the reader for the next slice of cut text, or
// returns to message dispatch when it has all been discarded.
func (c *Client) nextCutTextChunk() {
	c.read = 0
	if c.extra == 0 {
		c.phase = phaseMessage
		c.needed = 1
	} else {
		c.needed = c.extra
		if c.needed > clientBufSize {
			c.needed = clientBufSize
		}
		c.extra -= c.needed
		c.phase = phaseCutTextBody
	}
}
