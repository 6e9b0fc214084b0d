// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawPixelCorners(t *testing.T) {
	c := New()
	corners := [][2]int{{0, 0}, {63, 0}, {0, 63}, {63, 63}}
	for _, p := range corners {
		c.DrawPixel(p[0], p[1], Red)
		assert.Equal(t, Red, c.At(p[0], p[1]), "corner %v", p)
	}
}

func TestDrawPixelClipped(t *testing.T) {
	c := New()
	c.DrawPixel(-1, 0, Red)
	c.DrawPixel(64, 0, Red)
	c.DrawPixel(0, -1, Red)
	c.DrawPixel(0, 64, Red)
	for i := range c.pix {
		assert.Equal(t, Color{}, c.pix[i])
	}
}

func TestBlend(t *testing.T) {
	c := New()
	c.DrawPixel(3, 3, White)
	c.DrawPixel(3, 3, Color{R: 0, G: 0, B: 0, A: 128})
	got := c.At(3, 3)
	// 255*(1-128/255) = 127, rounded
	assert.Equal(t, uint8(127), got.R)
	assert.Equal(t, uint8(255), got.A)
}

func TestBlendOpaqueReplaces(t *testing.T) {
	c := New()
	c.DrawPixel(1, 1, White)
	c.DrawPixel(1, 1, Blue)
	assert.Equal(t, Blue, c.At(1, 1))
}

func TestBlendZeroAlphaNoop(t *testing.T) {
	c := New()
	c.DrawPixel(1, 1, Green)
	c.DrawPixel(1, 1, Color{R: 255, A: 0})
	assert.Equal(t, Green, c.At(1, 1))
}

func TestDrawLine(t *testing.T) {
	c := New()
	c.DrawLine(0, 0, 5, 0, White)
	for x := 0; x <= 5; x++ {
		assert.Equal(t, White, c.At(x, 0))
	}

	c.Clear()
	c.DrawLine(0, 0, 5, 5, White)
	for i := 0; i <= 5; i++ {
		assert.Equal(t, White, c.At(i, i))
	}
}

func TestDrawLineClipped(t *testing.T) {
	c := New()
	c.DrawLine(-10, 5, 10, 5, White)
	assert.Equal(t, White, c.At(0, 5))
	assert.Equal(t, White, c.At(10, 5))
	assert.Equal(t, Color{}, c.At(11, 5))
}

func TestDrawRect(t *testing.T) {
	c := New()
	c.DrawRect(2, 3, 4, 2, Green)
	assert.Equal(t, Green, c.At(2, 3))
	assert.Equal(t, Green, c.At(5, 4))
	assert.Equal(t, Color{}, c.At(6, 4))
	assert.Equal(t, Color{}, c.At(2, 5))
}

func TestDrawRectZeroSizeNoop(t *testing.T) {
	c := New()
	c.DrawRect(5, 5, 0, 10, Red)
	c.DrawRect(5, 5, 10, 0, Red)
	c.DrawRect(5, 5, -1, -1, Red)
	for i := range c.pix {
		assert.Equal(t, Color{}, c.pix[i])
	}
}

func TestDrawRectClipped(t *testing.T) {
	c := New()
	c.DrawRect(60, 60, 10, 10, Red)
	assert.Equal(t, Red, c.At(63, 63))
	assert.Equal(t, Red, c.At(60, 60))
}

func TestClear(t *testing.T) {
	c := New()
	c.Fill(White)
	c.Clear()
	for i := range c.pix {
		assert.Equal(t, Color{}, c.pix[i])
	}
}

func TestRGBBytes(t *testing.T) {
	c := New()
	c.DrawPixel(0, 0, Color{R: 10, G: 20, B: 30, A: 255})
	b := c.RGBBytes(nil)
	assert.Equal(t, Width*Height*3, len(b))
	assert.Equal(t, []byte{10, 20, 30}, b[:3])
}

func TestDrawTextWidth(t *testing.T) {
	c := New()
	w := c.DrawText("ABC", 0, 0, White, AlignLeft)
	assert.Equal(t, 11, w)
	assert.Equal(t, 0, c.DrawText("", 0, 0, White, AlignLeft))
}

func TestDrawTextUnknownRune(t *testing.T) {
	a, b := New(), New()
	a.DrawText("~", 0, 0, White, AlignLeft)
	b.DrawText("?", 0, 0, White, AlignLeft)
	assert.Equal(t, a.pix, b.pix)
}

func TestDrawTextAlign(t *testing.T) {
	c := New()
	c.DrawText("I", 10, 0, White, AlignRight)
	// right-aligned 3 px glyph ends at x=10
	assert.Equal(t, White, c.At(8, 0))
	assert.Equal(t, Color{}, c.At(10, 1))
}
