// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

// Cursor shape geometry. The pseudo-rectangle's x/y fields carry the
// hotspot instead of a screen position.
const (
	cursorWidth    = 17
	cursorHeight   = 22
	cursorHotspotX = 5
	cursorHotspotY = 1
)

// cursorColormap is the cursor shape, a Windows-style hand, one bit per
// pixel scanned MSB-first. A set bit is palette index 0xFF, a clear bit 0.
var cursorColormap = [47]byte{
	0x00, 0x00, 0x03, 0x00, 0x01, 0x80, 0x00, 0xc0, 0x00, 0x60,
	0x00, 0x30, 0x00, 0x1b, 0x00, 0x0d, 0xb0, 0x06, 0xda, 0x03,
	0x6d, 0x99, 0xfe, 0xce, 0xff, 0xe3, 0x7f, 0xf0, 0xbf, 0xf8,
	0x7f, 0xfc, 0x1f, 0xfe, 0x0f, 0xfe, 0x03, 0xff, 0x01, 0xff,
	0x80, 0x7f, 0x80, 0x3f, 0xc0, 0x00, 0x00,
}

// cursorMask is the AND mask sent after the pixels: one bit per pixel,
// rows padded to whole bytes (3 bytes per 17-pixel row, 22 rows).
var cursorMask = [66]byte{
	0x06, 0x00, 0x00, 0x0f, 0x00, 0x00, 0x0f, 0x00, 0x00, 0x0f,
	0x00, 0x00, 0x0f, 0x00, 0x00, 0x0f, 0xc0, 0x00, 0x0f, 0xf8,
	0x00, 0x0f, 0xfe, 0x00, 0x0f, 0xff, 0x00, 0xef, 0xff, 0x80,
	0xff, 0xff, 0x80, 0xff, 0xff, 0x80, 0x7f, 0xff, 0x80, 0x3f,
	0xff, 0x80, 0x3f, 0xff, 0x80, 0x1f, 0xff, 0x80, 0x1f, 0xff,
	0x00, 0x0f, 0xff, 0x00, 0x0f, 0xff, 0x00, 0x07, 0xfe, 0x00,
	0x07, 0xfe, 0x00, 0x07, 0xfe, 0x00,
}

// appendCursor appends the Cursor pseudo-rectangle: a rectangle header
// carrying the hotspot and cursor size with encoding tag 0xFFFFFF11, the
// shape expanded to pixels under the client's format, then the mask.
func (e *Encoder) appendCursor(p []byte, f *PixelFormat) []byte {
	p = append(p,
		0, cursorHotspotX,
		0, cursorHotspotY,
		0, cursorWidth,
		0, cursorHeight,
		0xFF, 0xFF, 0xFF, 0x11)

	bit := 7
	idx := 0
	for i := 0; i < cursorWidth*cursorHeight; i++ {
		var color byte
		if cursorColormap[idx]>>bit&1 != 0 {
			color = 0xFF
		}
		p = appendPixel(p, f, e.pal, color)
		bit--
		if bit < 0 {
			idx++
			bit = 7
		}
	}

	return append(p, cursorMask[:]...)
}
