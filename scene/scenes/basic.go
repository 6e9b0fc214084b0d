// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenes

import (
	"time"

	"github.com/markus-barta/pidicon/canvas"
	"github.com/markus-barta/pidicon/scene"
)

// emptyScene blanks the panel with a single black frame.
func emptyScene() *scene.Module {
	return &scene.Module{
		Name: "empty",
		Path: "basic.go",
		Render: func(c *scene.Context) (time.Duration, error) {
			c.Device.Clear()
			return scene.Done, c.Push()
		},
	}
}

// fillScene paints the whole panel in the payload color.
// Parameters: r, g, b (0-255, default 0).
func fillScene() *scene.Module {
	return &scene.Module{
		Name: "fill",
		Path: "basic.go",
		Render: func(c *scene.Context) (time.Duration, error) {
			c.Device.FillColor(canvas.Color{
				R: uint8(c.PayloadInt("r", 0)),
				G: uint8(c.PayloadInt("g", 0)),
				B: uint8(c.PayloadInt("b", 0)),
				A: 255,
			})
			return scene.Done, c.Push()
		},
	}
}

// textScene renders a single line of bitmap-font text.
// Parameters: text, x, y, align (left|center|right), r, g, b.
func textScene() *scene.Module {
	return &scene.Module{
		Name: "text",
		Path: "basic.go",
		Render: func(c *scene.Context) (time.Duration, error) {
			align := canvas.AlignFromString(c.PayloadString("align", "left"))
			col := canvas.Color{
				R: uint8(c.PayloadInt("r", 255)),
				G: uint8(c.PayloadInt("g", 255)),
				B: uint8(c.PayloadInt("b", 255)),
				A: 255,
			}
			c.Device.Clear()
			c.Device.DrawText(c.PayloadString("text", ""),
				c.PayloadInt("x", 0), c.PayloadInt("y", 0), col, align)
			return scene.Done, c.Push()
		},
	}
}
