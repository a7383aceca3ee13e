// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"encoding/binary"
)

// PixelFormat describes how pixel color data is encoded for one client.
//
// The wire format of SetPixelFormat carries per-channel maximum values; this
// struct stores the pre-computed divisors 65536/(max+1) instead, which is
// what the encoder divides each 16-bit palette intensity by.
type PixelFormat struct {
	// BPP (bits-per-pixel) is 8, 16, or 32. Any other value is encoded
	// as 32.
	BPP uint8

	// BigEndian determines the byte order for multi-byte pixel values.
	BigEndian bool

	// TrueColor determines whether pixels carry direct RGB values (true)
	// or indices into the server color map (false).
	TrueColor bool

	// RedDiv is the divisor applied to 16-bit red intensities.
	RedDiv uint32

	// GreenDiv is the divisor applied to 16-bit green intensities.
	GreenDiv uint32

	// BlueDiv is the divisor applied to 16-bit blue intensities.
	BlueDiv uint32

	// RedShift positions the red component within the pixel value.
	RedShift uint8

	// GreenShift positions the green component within the pixel value.
	GreenShift uint8

	// BlueShift positions the blue component within the pixel value.
	BlueShift uint8
}

// defaultPixelFormat is the format every client starts with until it sends
// SetPixelFormat.
func defaultPixelFormat() PixelFormat {
	return PixelFormat{
		BPP:        8,
		BigEndian:  true,
		TrueColor:  true,
		RedDiv:     65536 / 8,
		GreenDiv:   65536 / 8,
		BlueDiv:    65536 / 4,
		RedShift:   5,
		GreenShift: 2,
		BlueShift:  0,
	}
}

// bgr233PixelFormat is the 8-bit format ServerInit advertises: red in the low
// three bits, green above it, blue in the top two. Encoding a palette index
// under this format reproduces the index byte exactly.
func bgr233PixelFormat() PixelFormat {
	return PixelFormat{
		BPP:        8,
		BigEndian:  true,
		TrueColor:  true,
		RedDiv:     65536 / 8,
		GreenDiv:   65536 / 8,
		BlueDiv:    65536 / 4,
		RedShift:   0,
		GreenShift: 3,
		BlueShift:  6,
	}
}

// parsePixelFormat decodes a complete SetPixelFormat message (20 bytes
// including the message-type byte and padding) into a PixelFormat.
//
// The divisor is computed in 32 bits, so max+1 cannot wrap: a wire max of 0
// gives 65536 and a wire max of 65535 gives 1, and the encoder never
// divides by zero.
func parsePixelFormat(buf []byte) PixelFormat {
	div := func(max uint16) uint32 {
		return 65536 / (uint32(max) + 1)
	}
	return PixelFormat{
		BPP:        buf[4],
		BigEndian:  buf[6] != 0,
		TrueColor:  buf[7] != 0,
		RedDiv:     div(binary.BigEndian.Uint16(buf[8:10])),
		GreenDiv:   div(binary.BigEndian.Uint16(buf[10:12])),
		BlueDiv:    div(binary.BigEndian.Uint16(buf[12:14])),
		RedShift:   buf[14],
		GreenShift: buf[15],
		BlueShift:  buf[16],
	}
}

// bytesPerPixel returns how many bytes one encoded pixel occupies.
func (f *PixelFormat) bytesPerPixel() int {
	switch f.BPP {
	case 8:
		return 1
	case 16:
		return 2
	default:
		return 4
	}
}

// directBGR233 reports whether encoded pixels are byte-identical to the
// framebuffer's palette indices, which lets Raw encoding copy rows wholesale.
func (f *PixelFormat) directBGR233() bool {
	if f.BPP != 8 {
		return false
	}
	if !f.TrueColor {
		return true
	}
	return f.RedDiv == 65536/8 && f.RedShift == 0 &&
		f.GreenDiv == 65536/8 && f.GreenShift == 3 &&
		f.BlueDiv == 65536/4 && f.BlueShift == 6
}

// appendPixel encodes one palette index under the client's pixel format and
// appends the 1, 2, or 4 resulting bytes to p.
func appendPixel(p []byte, f *PixelFormat, pal *Palette, index uint8) []byte {
	c := pal[index]
	pixel := (uint32(c.R)/f.RedDiv)<<f.RedShift |
		(uint32(c.G)/f.GreenDiv)<<f.GreenShift |
		(uint32(c.B)/f.BlueDiv)<<f.BlueShift

	switch f.BPP {
	case 8:
		p = append(p, byte(pixel))
	case 16:
		if f.BigEndian {
			p = append(p, byte(pixel>>8), byte(pixel))
		} else {
			p = append(p, byte(pixel), byte(pixel>>8))
		}
	default:
		if f.BigEndian {
			p = append(p, byte(pixel>>24), byte(pixel>>16), byte(pixel>>8), byte(pixel))
		} else {
			p = append(p, byte(pixel), byte(pixel>>8), byte(pixel>>16), byte(pixel>>24))
		}
	}
	return p
}
