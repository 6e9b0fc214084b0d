// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenes

import (
	"time"

	"github.com/markus-barta/pidicon/canvas"
	"github.com/markus-barta/pidicon/scene"
)

// probeScene draws a panel alignment pattern: border, corner markers
// and a center crosshair. Used to verify panel orientation and
// clipping after hardware changes.
func probeScene() *scene.Module {
	return &scene.Module{
		Name: "probe",
		Path: "dev/probe.go",
		Render: func(c *scene.Context) (time.Duration, error) {
			w, h := c.Env.Width, c.Env.Height
			c.Device.Clear()

			c.Device.DrawLine(0, 0, w-1, 0, canvas.White)
			c.Device.DrawLine(0, h-1, w-1, h-1, canvas.White)
			c.Device.DrawLine(0, 0, 0, h-1, canvas.White)
			c.Device.DrawLine(w-1, 0, w-1, h-1, canvas.White)

			c.Device.DrawPixel(1, 1, canvas.Red)      // top-left
			c.Device.DrawPixel(w-2, 1, canvas.Green)  // top-right
			c.Device.DrawPixel(1, h-2, canvas.Blue)   // bottom-left
			c.Device.DrawPixel(w-2, h-2, canvas.White)

			c.Device.DrawLine(w/2-3, h/2, w/2+3, h/2, canvas.Red)
			c.Device.DrawLine(w/2, h/2-3, w/2, h/2+3, canvas.Red)

			return scene.Done, c.Push()
		},
	}
}
