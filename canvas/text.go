// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

// Align specifies horizontal text alignment relative to the anchor
// point given to [Canvas.DrawText].
type Align int32

const (
	// AlignLeft anchors the left edge of the text at x.
	AlignLeft Align = iota

	// AlignCenter centers the text on x.
	AlignCenter

	// AlignRight anchors the right edge of the text at x.
	AlignRight
)

// String returns the lowercase name of the alignment.
func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return "left"
}

// AlignFromString converts an alignment name to an [Align].
// Unknown names map to [AlignLeft].
func AlignFromString(s string) Align {
	switch s {
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	}
	return AlignLeft
}

// alignOffset shifts the given anchor x for the given drawn width.
func alignOffset(x, width int, align Align) int {
	switch align {
	case AlignCenter:
		return x - width/2
	case AlignRight:
		return x - width
	}
	return x
}

// DrawText renders the given string with the built-in 3×5 bitmap font
// at the given anchor point, and returns the pixel width drawn.
// Unknown characters render as '?'. An empty string is a no-op.
func (c *Canvas) DrawText(s string, x, y int, col Color, align Align) int {
	w := TextWidth(s)
	if w == 0 {
		return 0
	}
	cx := alignOffset(x, w, align)
	for _, r := range s {
		c.drawGlyph(r, cx, y, col)
		cx += GlyphWidth + GlyphSpacing
	}
	return w
}

// drawGlyph draws one glyph cell with its top-left corner at (x, y).
func (c *Canvas) drawGlyph(r rune, x, y int, col Color) {
	g := glyph(r)
	for row := 0; row < GlyphHeight; row++ {
		bits := g[row]
		for bit := 0; bit < GlyphWidth; bit++ {
			if bits&(1<<(GlyphWidth-1-bit)) != 0 {
				c.DrawPixel(x+bit, y+row, col)
			}
		}
	}
}
