// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"crypto/rand"
	"fmt"
	"io"
)

// GameState is what the slot machine is currently doing. Anything other
// than GameWaiting animates, so the server runs its tick timer.
type GameState uint8

const (
	// GameWaiting means the machine is idle until someone plays.
	GameWaiting GameState = iota
	// GameCoin animates the coin dropping into the slot.
	GameCoin
	// GameHandleDown animates the handle being pulled.
	GameHandleDown
	// GameHandleUp animates the handle springing back.
	GameHandleUp
	// GameSpin animates the three reels until each hits its stop.
	GameSpin
	// GamePayout pays the win out one coin per tick.
	GamePayout
)

// fruit identifies a symbol on a reel.
type fruit byte

const (
	cherry fruit = iota
	orange
	plum
	bell
	bar
)

// Reel geometry: 20 stops of 48 pixels each (a 32-pixel fruit plus a
// 16-pixel gap), 960 pixels for a full rotation. The visible window shows
// 114 pixels per reel; the center stop sits 57 pixels down, less 16 for the
// top half of the fruit.
const (
	reelStops      = 20
	fruitSize      = 32
	reelStepPx     = 48
	reelRotationPx = reelStops * reelStepPx

	reelWindowH     = 114
	reelInitialPos  = reelRotationPx - 57 + 16
	reelMaxStepPx   = 21
	handlePulledY   = 100
	coinDropBottomY = 36
)

// reelLayouts is the symbol order on each physical reel.
var reelLayouts = [3][reelStops]fruit{
	{orange, bar, plum, cherry, plum, orange, bell, plum, orange, cherry, orange, bar, orange, plum, orange, plum, cherry, bar, orange, plum},
	{bell, cherry, bell, cherry, bell, cherry, bell, orange, bell, cherry, bell, cherry, bell, bar, bell, cherry, bell, cherry, bell, plum},
	{orange, cherry, orange, plum, orange, bar, orange, plum, orange, bell, orange, cherry, orange, plum, orange, plum, orange, cherry, orange, plum},
}

// Game owns the slot machine: its state, the economy counters, the reel
// positions, and every pixel it paints into the shared framebuffer. All
// methods run on the server's event loop.
type Game struct {
	logger Logger
	fb     *Image
	assets *Assets
	reels  [3]*Image

	// entropy feeds the spin; crypto/rand in production, injectable for
	// deterministic tests.
	entropy io.Reader

	state GameState

	plays  int
	profit int

	// reelStop is which of the 20 stops each reel is headed to;
	// reelPosition the pixel row of the reel image currently at the top
	// of the window; reelLeft the pixel distance still to spin.
	reelStop     [3]int
	reelPosition [3]int
	reelLeft     [3]int

	payoutLeft int
	lastPayout int

	coinY   int
	handleY int

	statsPath string
	history   *History
}

// NewGame builds the machine: loads the persisted counters, assembles the
// three reel strips from the fruit sheet, and paints the initial scene into
// fb. The history store may be nil.
func NewGame(fb *Image, assets *Assets, statsPath string, history *History, logger Logger) *Game {
	g := &Game{
		logger:    logger,
		fb:        fb,
		assets:    assets,
		entropy:   rand.Reader,
		statsPath: statsPath,
		history:   history,
	}

	plays, profit, err := loadStats(statsPath)
	if err != nil {
		g.logger.Warn("ignoring unreadable stats file",
			Field{Key: "path", Value: statsPath},
			Field{Key: "error", Value: err})
	}
	g.plays = plays
	g.profit = profit

	for i := range g.reels {
		strip := NewImage(fruitSize, reelStepPx*reelStops)
		for k := 0; k < reelStops; k++ {
			strip.Blit(assets.Fruit, 0, fruitSize*int(reelLayouts[i][k]), 0, reelStepPx*k, fruitSize, fruitSize)
			strip.Fill(0, reelStepPx*k+fruitSize, fruitSize, reelStepPx-fruitSize, 0xFF)
		}
		g.reels[i] = strip
		g.reelPosition[i] = reelInitialPos
	}

	fb.Blit(assets.Background, 0, 0, 0, 0, assets.Background.Width, assets.Background.Height)
	g.drawHandle(0)
	g.drawNumber(g.plays, scoreRectX, playsRectY)
	g.drawNumber(g.profit, scoreRectX, profitRectY)
	g.drawNumber(g.profit-g.plays, scoreRectX, netRectY)
	for i := range g.reels {
		g.drawReel(i)
	}

	return g
}

// State returns what the machine is currently doing.
func (g *Game) State() GameState {
	return g.state
}

// StartPlay drops a coin if the machine is idle. Returns whether a play
// actually started.
func (g *Game) StartPlay() bool {
	if g.state != GameWaiting {
		return false
	}
	g.state = GameCoin
	g.coinY = 0
	return true
}

// Step advances the machine by one animation tick.
func (g *Game) Step() error {
	switch g.state {
	case GameCoin:
		g.coinY += 2
		g.fb.Blit(g.assets.Background, coinRectX, coinRectY+1, coinRectX, coinRectY+1, coinRectW, coinDropBottomY)
		coinH := 29
		if g.coinY >= 8 {
			coinH = coinDropBottomY - g.coinY
		}
		g.fb.BlitKeyed(g.assets.Coin, 0, 0, coinRectX, coinRectY+g.coinY, coinRectW, coinH, 0xC7, 0)
		g.fb.BlitKeyed(g.assets.CoinSlot, 0, 0, coinRectX, 213, coinRectW, 8, 0xFF, 0)
		if g.coinY >= coinDropBottomY {
			g.plays++
			g.drawNumber(g.plays, scoreRectX, playsRectY)
			g.drawNumber(g.profit-g.plays, scoreRectX, netRectY)
			g.handleY = 0
			g.state = GameHandleDown
		}

	case GameHandleDown:
		g.handleY += 10
		g.drawHandle(g.handleY)
		if g.handleY >= handlePulledY {
			g.handleY = handlePulledY
			g.state = GameHandleUp
		}

	case GameHandleUp:
		g.handleY -= 20
		g.drawHandle(g.handleY)
		if g.handleY <= 0 {
			g.handleY = 0
			if err := g.pickStops(); err != nil {
				return err
			}
			g.state = GameSpin
		}

	case GameSpin:
		for i := range g.reels {
			amt := g.reelLeft[i]
			if amt > reelMaxStepPx {
				amt = reelMaxStepPx
			}
			if amt > 0 {
				g.reelPosition[i] -= amt
				g.reelLeft[i] -= amt
				if g.reelPosition[i] < 0 {
					g.reelPosition[i] += g.reels[i].Height
				}
				g.drawReel(i)
			}
		}

		if g.reelLeft[0] == 0 && g.reelLeft[1] == 0 && g.reelLeft[2] == 0 {
			g.payoutLeft = payoutFor(
				reelLayouts[0][g.reelStop[0]],
				reelLayouts[1][g.reelStop[1]],
				reelLayouts[2][g.reelStop[2]])
			g.lastPayout = g.payoutLeft
			g.state = GamePayout
		}

	case GamePayout:
		if g.payoutLeft <= 0 {
			if err := saveStats(g.statsPath, g.plays, g.profit); err != nil {
				g.logger.Error("failed to save stats",
					Field{Key: "path", Value: g.statsPath},
					Field{Key: "error", Value: err})
			}
			if g.history != nil {
				if err := g.history.Record(g.reelStop, g.lastPayout, g.plays, g.profit); err != nil {
					g.logger.Error("failed to record spin",
						Field{Key: "error", Value: err})
				}
			}
			g.state = GameWaiting
		} else {
			g.payoutLeft--
			g.profit++
			g.drawNumber(g.profit, scoreRectX, profitRectY)
			g.drawNumber(g.profit-g.plays, scoreRectX, netRectY)
		}
	}

	return nil
}

// pickStops draws entropy and computes each reel's new stop and spin
// distance. Every reel spins at least one full rotation and each reel spins
// strictly farther than the one to its left, so they settle left to right.
func (g *Game) pickStops() error {
	v, err := g.randomSpin()
	if err != nil {
		return err
	}

	newRP := v % reelStops
	v /= reelStops
	g.reelLeft[0] = (g.reelStop[0] - newRP) * reelStepPx
	for g.reelLeft[0] < reelRotationPx {
		g.reelLeft[0] += reelRotationPx
	}
	g.reelStop[0] = newRP

	newRP = v % reelStops
	v /= reelStops
	g.reelLeft[1] = (g.reelStop[1] - newRP) * reelStepPx
	for g.reelLeft[1] <= g.reelLeft[0] {
		g.reelLeft[1] += reelRotationPx
	}
	g.reelStop[1] = newRP

	newRP = v % reelStops
	g.reelLeft[2] = (g.reelStop[2] - newRP) * reelStepPx
	for g.reelLeft[2] <= g.reelLeft[1] {
		g.reelLeft[2] += reelRotationPx
	}
	g.reelStop[2] = newRP

	return nil
}

// randomSpin reads two bytes of entropy as a big-endian 16-bit value,
// rejection-sampled below 64000 so taking it modulo 20 three times stays
// uniform over the reel stops.
func (g *Game) randomSpin() (int, error) {
	var b [2]byte
	for {
		if _, err := io.ReadFull(g.entropy, b[:]); err != nil {
			return 0, gameError("Game.randomSpin", "failed to read entropy", err)
		}
		v := int(b[0])<<8 | int(b[1])
		if v < 64000 {
			return v, nil
		}
	}
}

// payoutFor is the payout table, in coins per play.
func payoutFor(r0, r1, r2 fruit) int {
	switch {
	case r0 == bar && r1 == bar && r2 == bar:
		return 100
	case r0 == bell && r1 == bell && (r2 == bell || r2 == bar):
		return 18
	case r0 == plum && r1 == plum && (r2 == plum || r2 == bar):
		return 13
	case r0 == orange && r1 == orange && (r2 == orange || r2 == bar):
		return 11
	case r0 == cherry && r1 == cherry && r2 == cherry:
		return 11
	case r0 == cherry && r1 == cherry:
		return 5
	case r0 == cherry:
		return 3
	}
	return 0
}

// drawNumber renders a number as an 8-character right-aligned field of
// digit glyphs. Blank cells are painted white; negative numbers are tinted
// toward red.
func (g *Game) drawNumber(number, x, y int) {
	num := fmt.Sprintf("%8d", number)
	var tint byte
	if number < 0 {
		tint = 7
	}
	for i := 0; i < 8; i++ {
		switch ch := num[i]; {
		case ch >= '0' && ch <= '9':
			g.fb.BlitKeyed(g.assets.Digits, 0, 11*int(ch-'0'), x, y, g.assets.Digits.Width, 11, 0, tint)
		case ch == '-':
			g.fb.BlitKeyed(g.assets.Digits, 0, 110, x, y, g.assets.Digits.Width, 11, 0, tint)
		default:
			g.fb.Fill(x, y, 6, 11, 0xFF)
		}
		x += 8
	}
}

// darkenRow dims one row of BGR-233 pixels in place, blue by half the
// amount since it only has two bits.
func darkenRow(dst *Image, x, y, w int, amount int) {
	off := y*dst.Width + x
	for ; w > 0; w-- {
		p := dst.Data[off]
		b := int(p>>6&0x3) - (amount >> 1)
		if b < 0 {
			b = 0
		}
		gr := int(p>>3&0x7) - amount
		if gr < 0 {
			gr = 0
		}
		r := int(p&0x7) - amount
		if r < 0 {
			r = 0
		}
		dst.Data[off] = byte(b<<6 | gr<<3 | r)
		off++
	}
}

// drawReel paints reel i's visible window, wrapping around the strip when
// the position runs off the bottom, then shades the top and bottom rows to
// fake the drum's curvature.
func (g *Game) drawReel(i int) {
	src := g.reels[i]
	pos := g.reelPosition[i]
	dstX := reelRectX + reelRectStride*i
	dstY := reelRectY

	if pos+reelWindowH > src.Height {
		h := src.Height - pos
		g.fb.Blit(src, 0, pos, dstX, dstY, src.Width, h)
		g.fb.Blit(src, 0, 0, dstX, dstY+h, src.Width, reelWindowH-h)
	} else {
		g.fb.Blit(src, 0, pos, dstX, dstY, src.Width, reelWindowH)
	}

	for y := 0; y < 14; y++ {
		darkenRow(g.fb, dstX, dstY+y, fruitSize, (14-y)>>1)
		darkenRow(g.fb, dstX, dstY+reelWindowH-y-1, fruitSize, (14-y)>>1)
	}
}

// drawHandle paints the handle column: background restored, the ball knob
// at its pulled offset, and the shaft squashed vertically to match.
func (g *Game) drawHandle(scale int) {
	bg := g.assets.Background
	ball := g.assets.Ball
	handle := g.assets.Handle

	g.fb.Blit(bg, handleRectX, handleRectY, handleRectX, handleRectY, handleRectW, ball.Height+handle.Height)
	g.fb.BlitKeyed(ball, 0, 0, handleHotspotX1, handleRectY+scale, ball.Height, ball.Width, 0xFF, 0)
	g.fb.BlitScaled(handle, 0, 0, handle.Height, handleRectX, ball.Height+handleRectY+scale, handle.Height-scale, handle.Width, 0xFF)
}
