// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package canvas implements the in-memory pixel buffer that scenes
// draw into, with primitive raster operations: pixel, line, rect,
// bitmap-font text, numeric formatting, and alpha blending.
//
// All operations silently clip coordinates outside the canvas; out of
// bounds drawing is defined to be a no-op, never an error.
package canvas

// Width and Height are the fixed dimensions of the display surface.
const (
	Width  = 64
	Height = 64
)

// Canvas is a fixed 64×64 grid of [Color] values in row-major order.
// The zero value is ready to use.
type Canvas struct {
	pix [Width * Height]Color
}

// New returns a new cleared [Canvas].
func New() *Canvas {
	return &Canvas{}
}

// Clear zeroes the entire buffer.
func (c *Canvas) Clear() {
	c.pix = [Width * Height]Color{}
}

// Fill sets every pixel to the given color, without blending.
func (c *Canvas) Fill(col Color) {
	for i := range c.pix {
		c.pix[i] = col
	}
}

// At returns the color at the given coordinates,
// or the zero [Color] if out of bounds.
func (c *Canvas) At(x, y int) Color {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return Color{}
	}
	return c.pix[y*Width+x]
}

// DrawPixel draws a single pixel, clipped and alpha-blended.
func (c *Canvas) DrawPixel(x, y int, col Color) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	i := y*Width + x
	c.pix[i] = blend(c.pix[i], col)
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using integer
// Bresenham stepping, blending each pixel.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.DrawPixel(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawRect draws a filled rectangle with its top-left corner at
// (x, y) and the given width and height in pixels. Zero or negative
// sizes are a no-op.
func (c *Canvas) DrawRect(x, y, w, h int, col Color) {
	if w <= 0 || h <= 0 {
		return
	}
	x0 := max(x, 0)
	y0 := max(y, 0)
	x1 := min(x+w, Width)
	y1 := min(y+h, Height)
	for yy := y0; yy < y1; yy++ {
		row := yy * Width
		for xx := x0; xx < x1; xx++ {
			c.pix[row+xx] = blend(c.pix[row+xx], col)
		}
	}
}

// FillRect is an alias for [Canvas.DrawRect].
func (c *Canvas) FillRect(x, y, w, h int, col Color) {
	c.DrawRect(x, y, w, h, col)
}

// RGBBytes appends the buffer as packed RGB bytes (3 per pixel,
// row-major, top-left origin) to dst, which may be nil. Alpha has
// already been consumed at blend time.
func (c *Canvas) RGBBytes(dst []byte) []byte {
	if dst == nil {
		dst = make([]byte, 0, Width*Height*3)
	}
	for i := range c.pix {
		p := c.pix[i]
		dst = append(dst, p.R, p.G, p.B)
	}
	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
