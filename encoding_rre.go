// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"encoding/binary"
)

// appendRRE appends the region encoded as RRE: a 4-byte big-endian
// sub-rectangle count, one background pixel, then for each sub-rectangle a
// pixel followed by x, y, w, h as big-endian 16-bit values relative to the
// region's top-left corner.
//
// The background is the most frequent palette index in the region.
// Sub-rectangles are found by scanning uncovered non-background cells in
// row-major order, expanding each run as far right as the color holds, then
// down one full row at a time.
func (e *Encoder) appendRRE(p []byte, f *PixelFormat, x, y, w, h int) []byte {
	countPos := len(p)
	p = append(p, 0, 0, 0, 0)

	var subrects uint32

	// 8bpp source means the histogram is a simple pigeonhole count.
	var colors [PaletteSize]uint32
	maxColor := byte(0)
	for srcY := y; srcY < y+h; srcY++ {
		off := srcY * e.fb.Width
		for srcX := x; srcX < x+w; srcX++ {
			color := e.fb.Data[off+srcX]
			colors[color]++
			if colors[color] > colors[maxColor] {
				maxColor = color
			}
		}
	}

	p = appendPixel(p, f, e.pal, maxColor)

	coverage := make([]bool, w*h)

	for srcY := 0; srcY < h; srcY++ {
		fbRow := (y + srcY) * e.fb.Width
		covRow := srcY * w
		for srcX := 0; srcX < w; srcX++ {
			if coverage[covRow+srcX] {
				continue
			}
			coverage[covRow+srcX] = true

			color := e.fb.Data[fbRow+x+srcX]
			if color == maxColor {
				continue
			}

			subrects++

			// Expand right while the run color holds.
			srcX2 := srcX + 1
			for srcX2 < w && e.fb.Data[fbRow+x+srcX2] == color {
				coverage[covRow+srcX2] = true
				srcX2++
			}

			// Expand down one full row at a time.
			srcY2 := srcY + 1
			for srcY2 < h {
				probe := (y + srcY2) * e.fb.Width
				fullRow := true
				for l := srcX; l < srcX2; l++ {
					if e.fb.Data[probe+x+l] != color {
						fullRow = false
						break
					}
				}
				if !fullRow {
					break
				}
				mark := srcY2 * w
				for l := srcX; l < srcX2; l++ {
					coverage[mark+l] = true
				}
				srcY2++
			}

			p = appendPixel(p, f, e.pal, color)
			p = append(p,
				byte(srcX>>8), byte(srcX),
				byte(srcY>>8), byte(srcY),
				byte((srcX2-srcX)>>8), byte(srcX2-srcX),
				byte((srcY2-srcY)>>8), byte(srcY2-srcY))
		}
	}

	binary.BigEndian.PutUint32(p[countPos:], subrects)
	return p
}
