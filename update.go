// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

// Screen regions the game animates. Each pairs a predicate on the client's
// snapshot with the fixed rectangle that repaints it.
const (
	coinRectX = 388
	coinRectY = 185
	coinRectW = 29
	coinRectH = 37

	handleRectX = 447
	handleRectY = 73
	handleRectW = 40
	handleRectH = 248

	reelRectX      = 222
	reelRectY      = 67
	reelRectW      = 32
	reelRectH      = 114
	reelRectStride = 50

	scoreRectX = 19
	scoreRectW = 63
	scoreRectH = 11

	playsRectY  = 293
	profitRectY = 323
	netRectY    = 353
)

// chimeMarker is appended after the profit rectangle so clients can ring on
// a win. It rides inside the update packet rather than as its own message.
const chimeMarker = 0x02

// sendUpdate composes and sends one consolidated update to the client.
//
// An incremental update contains only the rectangles whose game indicators
// changed since the client's snapshot; if none changed, nothing at all is
// sent and the client stays ready. A non-incremental update contains exactly
// the requested region, clamped to the framebuffer.
//
// Non-true-color clients are sent the palette first, once per connection,
// as a separate message. Cursor-capable clients get the cursor shape
// appended to their first update.
func (s *Server) sendUpdate(c *Client, x, y, w, h int, incremental bool) error {
	if x > fbWidth-1 {
		x = fbWidth - 1
	}
	if y > fbHeight-1 {
		y = fbHeight - 1
	}
	if x+w > fbWidth {
		w = fbWidth - x
	}
	if y+h > fbHeight {
		h = fbHeight - y
	}

	if !c.format.TrueColor && !c.sentPalette {
		p := s.palette.appendColorMap(s.packet[:0])
		s.packet = p
		if err := c.send(p); err != nil {
			return err
		}
		c.sentPalette = true
	}

	// FramebufferUpdate header: type, padding, rectangle count (patched
	// once the count is known).
	p := append(s.packet[:0], 0x00, 0x00, 0x00, 0x00)
	rects := 0

	g := s.game
	if incremental {
		if c.snap.coinY != g.coinY {
			rects++
			p = s.enc.AppendRect(p, &c.format, c.encodings, coinRectX, coinRectY, coinRectW, coinRectH)
		}

		if c.snap.handleY != g.handleY {
			rects++
			skip := c.snap.handleY
			if g.handleY < skip {
				skip = g.handleY
			}
			p = s.enc.AppendRect(p, &c.format, c.encodings,
				handleRectX, handleRectY+skip, handleRectW, handleRectH-skip)
		}

		for i := 0; i < 3; i++ {
			if c.snap.reelPosition[i] != g.reelPosition[i] {
				rects++
				p = s.enc.AppendRect(p, &c.format, c.encodings,
					reelRectX+reelRectStride*i, reelRectY, reelRectW, reelRectH)
			}
		}

		if c.snap.profit-c.snap.plays != g.profit-g.plays {
			rects++
			p = s.enc.AppendRect(p, &c.format, c.encodings, scoreRectX, netRectY, scoreRectW, scoreRectH)
		}

		if c.snap.plays != g.plays {
			rects++
			p = s.enc.AppendRect(p, &c.format, c.encodings, scoreRectX, playsRectY, scoreRectW, scoreRectH)
		}

		if c.snap.profit != g.profit {
			rects++
			p = s.enc.AppendRect(p, &c.format, c.encodings, scoreRectX, profitRectY, scoreRectW, scoreRectH)
			p = append(p, chimeMarker)
		}

		// Nothing changed, nothing to say.
		if rects == 0 {
			s.packet = p
			return nil
		}
	} else {
		rects++
		p = s.enc.AppendRect(p, &c.format, c.encodings, x, y, w, h)
	}

	withCursor := c.encodings.Has(EncCursor) && !c.sentCursor
	if withCursor {
		rects++
		p = s.enc.appendCursor(p, &c.format)
	}

	p[2] = byte(rects >> 8)
	p[3] = byte(rects)

	s.packet = p
	if err := c.send(p); err != nil {
		return err
	}

	if withCursor {
		c.sentCursor = true
	}
	c.snap = snapshot{
		coinY:        g.coinY,
		handleY:      g.handleY,
		reelPosition: g.reelPosition,
		plays:        g.plays,
		profit:       g.profit,
	}
	c.ready = false

	return nil
}
