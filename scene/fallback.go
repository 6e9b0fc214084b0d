// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"time"

	"github.com/markus-barta/pidicon/canvas"
)

// fallbackModules returns the minimal always-available scenes that
// keep the daemon renderable when discovery finds nothing.
func fallbackModules() []*Module {
	return []*Module{
		{
			Name: "empty",
			Render: func(c *Context) (time.Duration, error) {
				c.Device.Clear()
				if err := c.Push(); err != nil {
					return Done, err
				}
				return Done, nil
			},
		},
		{
			Name: "fill",
			Render: func(c *Context) (time.Duration, error) {
				col := canvas.Color{
					R: uint8(c.PayloadInt("r", 0)),
					G: uint8(c.PayloadInt("g", 0)),
					B: uint8(c.PayloadInt("b", 0)),
					A: 255,
				}
				c.Device.FillColor(col)
				if err := c.Push(); err != nil {
					return Done, err
				}
				return Done, nil
			},
		},
	}
}
