// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenes

import (
	"math"
	"time"

	"github.com/markus-barta/pidicon/canvas"
	"github.com/markus-barta/pidicon/scene"
)

// gradientScene animates a scrolling color gradient with an optional
// frametime overlay. Parameters: intervalMs (tick delay, default 100),
// frametime (bool, overlay last frametime, default false).
func gradientScene() *scene.Module {
	return &scene.Module{
		Name:      "gradient",
		WantsLoop: true,
		Path:      "examples/gradient.go",
		Init: func(c *scene.Context) error {
			c.State.Set("interval", time.Duration(c.PayloadInt("intervalMs", 100))*time.Millisecond)
			c.State.Set("frametime", c.PayloadBool("frametime", false))
			return nil
		},
		Render: func(c *scene.Context) (time.Duration, error) {
			phase, _ := c.State.Get("phase", 0).(int)
			c.State.Set("phase", phase+1)

			for y := 0; y < c.Env.Height; y++ {
				t := float64(y+phase) / 32
				col := canvas.Color{
					R: wave(t),
					G: wave(t + 2*math.Pi/3),
					B: wave(t + 4*math.Pi/3),
					A: 255,
				}
				c.Device.DrawLine(0, y, c.Env.Width-1, y, col)
			}
			if show, _ := c.State.Get("frametime", false).(bool); show {
				ft := c.Device.Metrics().LastFrametime
				c.Device.DrawNumeric(float64(ft.Milliseconds()), c.Env.Width-1, 1, canvas.White, canvas.AlignRight, 4)
			}
			if err := c.Push(); err != nil {
				return scene.Done, err
			}
			interval, _ := c.State.Get("interval", 100*time.Millisecond).(time.Duration)
			return interval, nil
		},
	}
}

// wave maps a phase angle to a 0-255 channel value.
func wave(t float64) uint8 {
	return uint8(127.5 + 127.5*math.Sin(t))
}
