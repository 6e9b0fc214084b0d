// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenes

import (
	"time"

	"github.com/markus-barta/pidicon/canvas"
	"github.com/markus-barta/pidicon/scene"
)

// clockScene shows the current wall-clock time, updated once per
// second. Parameters: seconds (bool, show seconds, default true),
// r, g, b (text color, default white).
func clockScene() *scene.Module {
	return &scene.Module{
		Name:      "clock",
		WantsLoop: true,
		Path:      "clock.go",
		Init: func(c *scene.Context) error {
			c.State.Set("seconds", c.PayloadBool("seconds", true))
			c.State.Set("color", canvas.Color{
				R: uint8(c.PayloadInt("r", 255)),
				G: uint8(c.PayloadInt("g", 255)),
				B: uint8(c.PayloadInt("b", 255)),
				A: 255,
			})
			return nil
		},
		Render: func(c *scene.Context) (time.Duration, error) {
			layout := "15:04:05"
			if v, _ := c.State.Get("seconds", true).(bool); !v {
				layout = "15:04"
			}
			col, _ := c.State.Get("color", canvas.White).(canvas.Color)
			now := time.Now()

			c.Device.Clear()
			c.Device.DrawText(now.Format(layout), c.Env.Width/2, (c.Env.Height-canvas.GlyphHeight)/2, col, canvas.AlignCenter)
			c.Device.DrawText(now.Format("02.01."), c.Env.Width/2, c.Env.Height-canvas.GlyphHeight-2, col, canvas.AlignCenter)
			if err := c.Push(); err != nil {
				return scene.Done, err
			}
			// wake just after the next second boundary
			return time.Second - time.Duration(now.Nanosecond()) + 10*time.Millisecond, nil
		},
	}
}
