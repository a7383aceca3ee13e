// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"path/filepath"
)

// Assets holds every image the game draws from.
type Assets struct {
	Background *Image
	Digits     *Image
	Ball       *Image
	Handle     *Image
	Coin       *Image
	CoinSlot   *Image
	Fruit      *Image
}

// LoadAssets reads the game's image blobs from their fixed names under dir.
func LoadAssets(dir string) (*Assets, error) {
	a := &Assets{}
	for _, f := range []struct {
		name string
		dst  **Image
	}{
		{"background.bin", &a.Background},
		{"digits.bin", &a.Digits},
		{"ball.bin", &a.Ball},
		{"handle.bin", &a.Handle},
		{"coin.bin", &a.Coin},
		{"coinslot.bin", &a.CoinSlot},
		{"fruit.bin", &a.Fruit},
	} {
		img, err := LoadImage(filepath.Join(dir, f.name))
		if err != nil {
			return nil, err
		}
		*f.dst = img
	}
	return a, nil
}
