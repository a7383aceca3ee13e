// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

// appendRaw appends the region's pixels in row-major order under the
// client's pixel format.
//
// When the client's format is byte-identical to the framebuffer's BGR-233
// indices, rows are copied straight out of the framebuffer.
func (e *Encoder) appendRaw(p []byte, f *PixelFormat, x, y, w, h int) []byte {
	if f.directBGR233() {
		for row := y; row < y+h; row++ {
			off := row*e.fb.Width + x
			p = append(p, e.fb.Data[off:off+w]...)
		}
		return p
	}

	for srcY := y; srcY < y+h; srcY++ {
		off := srcY * e.fb.Width
		for srcX := x; srcX < x+w; srcX++ {
			p = appendPixel(p, f, e.pal, e.fb.Data[off+srcX])
		}
	}
	return p
}
