// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

import "image/color"

// Color is an RGBA quadruple with 8 bits per channel.
// An alpha of 255 is fully opaque.
type Color struct {
	R, G, B, A uint8
}

// RGB returns a fully opaque color with the given channels.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGBA implements the [color.Color] interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// Common colors.
var (
	Black = RGB(0, 0, 0)
	White = RGB(255, 255, 255)
	Red   = RGB(255, 0, 0)
	Green = RGB(0, 255, 0)
	Blue  = RGB(0, 0, 255)
)

// blend composites src over dst using standard source-over blending,
// with each channel rounded to the nearest integer.
func blend(dst, src Color) Color {
	switch src.A {
	case 0:
		return dst
	case 255:
		return Color{R: src.R, G: src.G, B: src.B, A: 255}
	}
	a := uint32(src.A)
	ia := 255 - a
	mix := func(s, d uint8) uint8 {
		// +127 rounds to nearest after the /255 division
		return uint8((uint32(s)*a + uint32(d)*ia + 127) / 255)
	}
	return Color{
		R: mix(src.R, dst.R),
		G: mix(src.G, dst.G),
		B: mix(src.B, dst.B),
		A: 255,
	}
}
