// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Image is a paletted image: one byte per pixel, each byte an index into the
// server's BGR-233 palette.
type Image struct {
	Width  int
	Height int
	Data   []byte
}

// NewImage allocates a blank image of the given size.
func NewImage(w, h int) *Image {
	return &Image{
		Width:  w,
		Height: h,
		Data:   make([]byte, w*h),
	}
}

// ReadImage loads an image blob: two big-endian 16-bit integers (width,
// height) followed by width*height palette indices.
func ReadImage(r io.Reader) (*Image, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, validationError("ReadImage", "failed to read image header", err)
	}

	w := int(binary.BigEndian.Uint16(hdr[0:2]))
	h := int(binary.BigEndian.Uint16(hdr[2:4]))

	img := NewImage(w, h)
	if _, err := io.ReadFull(r, img.Data); err != nil {
		return nil, validationError("ReadImage",
			fmt.Sprintf("failed to read %dx%d pixel data", w, h), err)
	}
	return img, nil
}

// LoadImage reads an image blob from a file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, storageError("LoadImage", "failed to open image file", err)
	}
	defer f.Close()
	return ReadImage(f)
}

// Fill sets every pixel in the given area to color.
func (dst *Image) Fill(x, y, w, h int, color byte) {
	for dy := y; dy < y+h; dy++ {
		row := dst.Data[dy*dst.Width+x : dy*dst.Width+x+w]
		for i := range row {
			row[i] = color
		}
	}
}

// Blit copies a w x h block from src at (srcX, srcY) to dst at (dstX, dstY).
func (dst *Image) Blit(src *Image, srcX, srcY, dstX, dstY, w, h int) {
	doff := dstY*dst.Width + dstX
	soff := srcY*src.Width + srcX
	for y := 0; y < h; y++ {
		copy(dst.Data[doff:doff+w], src.Data[soff:soff+w])
		doff += dst.Width
		soff += src.Width
	}
}

// BlitKeyed copies a block like Blit but skips source pixels equal to key
// (a key of zero disables transparency) and ORs tint into every written
// pixel. Tinting by 7 saturates the red channel, which is how negative
// numbers are rendered.
func (dst *Image) BlitKeyed(src *Image, srcX, srcY, dstX, dstY, w, h int, key, tint byte) {
	doff := dstY*dst.Width + dstX
	soff := srcY*src.Width + srcX
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if s := src.Data[soff]; key == 0 || s != key {
				dst.Data[doff] = s | tint
			}
			doff++
			soff++
		}
		doff += dst.Width - w
		soff += src.Width - w
	}
}

// BlitScaled copies a w-wide column block, scaling srcH source rows onto
// dstH destination rows by nearest-neighbor row selection, skipping source
// pixels equal to key.
func (dst *Image) BlitScaled(src *Image, srcX, srcY, srcH, dstX, dstY, dstH, w int, key byte) {
	rowSkip := float32(srcH) / float32(dstH)

	doff := dstY*dst.Width + dstX
	for y := 0; y < dstH; y++ {
		soff := (int(float32(y)*rowSkip+0.5)+srcY)*src.Width + srcX
		for x := 0; x < w; x++ {
			if s := src.Data[soff]; s != key {
				dst.Data[doff] = s
			}
			doff++
			soff++
		}
		doff += dst.Width - w
	}
}
