// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

import "unicode"

// Glyph metrics of the built-in bitmap font: 3×5 pixel cells with one
// pixel of spacing between characters.
const (
	GlyphWidth   = 3
	GlyphHeight  = 5
	GlyphSpacing = 1
)

// glyphs maps runes to 5 rows of 3 bits each, bit 2 being the leftmost
// pixel. Lowercase letters are mapped to uppercase before lookup;
// anything else missing renders as '?'.
var glyphs = map[rune][GlyphHeight]uint8{
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
	'0': {0b111, 0b101, 0b101, 0b101, 0b111},
	'1': {0b010, 0b110, 0b010, 0b010, 0b111},
	'2': {0b111, 0b001, 0b111, 0b100, 0b111},
	'3': {0b111, 0b001, 0b111, 0b001, 0b111},
	'4': {0b101, 0b101, 0b111, 0b001, 0b001},
	'5': {0b111, 0b100, 0b111, 0b001, 0b111},
	'6': {0b111, 0b100, 0b111, 0b101, 0b111},
	'7': {0b111, 0b001, 0b001, 0b010, 0b010},
	'8': {0b111, 0b101, 0b111, 0b101, 0b111},
	'9': {0b111, 0b101, 0b111, 0b001, 0b111},
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'J': {0b001, 0b001, 0b001, 0b101, 0b010},
	'K': {0b101, 0b110, 0b100, 0b110, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b111, 0b101, 0b101},
	'N': {0b110, 0b101, 0b101, 0b101, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'Q': {0b010, 0b101, 0b101, 0b110, 0b011},
	'R': {0b110, 0b101, 0b110, 0b110, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'V': {0b101, 0b101, 0b101, 0b101, 0b010},
	'W': {0b101, 0b101, 0b111, 0b111, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'Y': {0b101, 0b101, 0b010, 0b010, 0b010},
	'Z': {0b111, 0b001, 0b010, 0b100, 0b111},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	'+': {0b000, 0b010, 0b111, 0b010, 0b000},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	',': {0b000, 0b000, 0b000, 0b010, 0b100},
	':': {0b000, 0b010, 0b000, 0b010, 0b000},
	'!': {0b010, 0b010, 0b010, 0b000, 0b010},
	'?': {0b111, 0b001, 0b011, 0b000, 0b010},
	'%': {0b101, 0b001, 0b010, 0b100, 0b101},
	'/': {0b001, 0b001, 0b010, 0b100, 0b100},
	'=': {0b000, 0b111, 0b000, 0b111, 0b000},
	'(': {0b001, 0b010, 0b010, 0b010, 0b001},
	')': {0b100, 0b010, 0b010, 0b010, 0b100},
	'°': {0b010, 0b101, 0b010, 0b000, 0b000},
	'\'': {0b010, 0b010, 0b000, 0b000, 0b000},
	'"': {0b101, 0b101, 0b000, 0b000, 0b000},
	'_': {0b000, 0b000, 0b000, 0b000, 0b111},
	'*': {0b101, 0b010, 0b101, 0b000, 0b000},
	'<': {0b001, 0b010, 0b100, 0b010, 0b001},
	'>': {0b100, 0b010, 0b001, 0b010, 0b100},
}

// glyph returns the bitmap rows for the given rune, mapping lowercase
// to uppercase and substituting '?' for unknown characters.
func glyph(r rune) [GlyphHeight]uint8 {
	if g, ok := glyphs[r]; ok {
		return g
	}
	if g, ok := glyphs[unicode.ToUpper(r)]; ok {
		return g
	}
	return glyphs['?']
}

// TextWidth returns the pixel width of the given string when rendered
// with [Canvas.DrawText], without drawing anything.
func TextWidth(s string) int {
	n := 0
	for range s {
		n++
	}
	if n == 0 {
		return 0
	}
	return n*(GlyphWidth+GlyphSpacing) - GlyphSpacing
}
