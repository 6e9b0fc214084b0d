// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

import (
	"math"
	"strconv"
	"strings"
)

// DecimalStyle controls the rendering of the narrow decimal separator
// used by [Canvas.DrawNumeric]: a vertical two-pixel mark with
// configurable padding on either side.
type DecimalStyle struct {
	PadLeft  int
	PadRight int
}

// DefaultDecimalStyle is used by [Canvas.DrawNumeric].
var DefaultDecimalStyle = DecimalStyle{PadLeft: 1, PadRight: 1}

// kernedDigits are digits whose glyphs have an open lower-right
// corner, so the decimal separator moves one pixel closer.
const kernedDigits = "479"

// DrawNumeric renders a number with adaptive decimal precision and
// returns the pixel width drawn. maxDigits bounds the total number of
// digits: if maxDigits is 1, or the integer part already has that many
// digits, the rounded integer is rendered; otherwise the remaining
// digit budget is spent on decimal places. Values that round to zero
// render as "0". Negative numbers are prefixed with a 4 px minus sign.
func (c *Canvas) DrawNumeric(value float64, x, y int, col Color, align Align, maxDigits int) int {
	return c.DrawNumericStyled(value, x, y, col, align, maxDigits, DefaultDecimalStyle)
}

// DrawNumericStyled is [Canvas.DrawNumeric] with an explicit
// [DecimalStyle] for the decimal separator.
func (c *Canvas) DrawNumericStyled(value float64, x, y int, col Color, align Align, maxDigits int, style DecimalStyle) int {
	s := formatNumeric(value, maxDigits)
	w := numericWidth(s, style)
	cx := alignOffset(x, w, align)
	for i, r := range s {
		if r == '.' {
			pad := sepPadLeft(s, i, style)
			cx += pad
			// the separator mark: one column, two pixels at the baseline
			c.DrawPixel(cx, y+GlyphHeight-2, col)
			c.DrawPixel(cx, y+GlyphHeight-1, col)
			cx += 1 + style.PadRight
			continue
		}
		c.drawGlyph(r, cx, y, col)
		cx += glyphAdvance(s, i)
	}
	return w
}

// formatNumeric formats a number under the total-digit budget.
func formatNumeric(value float64, maxDigits int) string {
	if maxDigits < 1 {
		maxDigits = 1
	}
	id := integerDigits(value)
	if maxDigits == 1 || id >= maxDigits {
		return strconv.Itoa(int(math.Round(value)))
	}
	s := strconv.FormatFloat(value, 'f', maxDigits-id, 64)
	if f, _ := strconv.ParseFloat(s, 64); f == 0 {
		return "0"
	}
	return s
}

// integerDigits returns the number of digits in the integer part of
// the given value, at least 1.
func integerDigits(v float64) int {
	n := int(math.Floor(math.Abs(v)))
	d := 1
	for n >= 10 {
		n /= 10
		d++
	}
	return d
}

// glyphAdvance returns the horizontal advance of the glyph at index i:
// glyph width plus spacing, except before the decimal separator
// (which carries its own padding) and at the end of the string.
func glyphAdvance(s string, i int) int {
	if i+1 >= len(s) || s[i+1] == '.' {
		return GlyphWidth
	}
	return GlyphWidth + GlyphSpacing
}

// sepPadLeft returns the left padding of the decimal separator,
// kerned one pixel tighter after digits 4, 7 and 9.
func sepPadLeft(s string, i int, style DecimalStyle) int {
	pad := style.PadLeft
	if i > 0 && strings.IndexByte(kernedDigits, s[i-1]) >= 0 {
		pad--
	}
	return max(pad, 0)
}

// numericWidth returns the pixel width of a formatted number.
func numericWidth(s string, style DecimalStyle) int {
	w := 0
	for i := range s {
		if s[i] == '.' {
			w += sepPadLeft(s, i, style) + 1 + style.PadRight
			continue
		}
		w += glyphAdvance(s, i)
	}
	return w
}
