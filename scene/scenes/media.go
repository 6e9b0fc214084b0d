// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenes

import (
	"time"

	"github.com/markus-barta/pidicon/base/errors"
	"github.com/markus-barta/pidicon/scene"
)

// mediaScene shows an image file scaled onto the panel.
// Parameters: path (required), x, y, w, h (default full panel),
// alpha (0-1, default 1).
func mediaScene() *scene.Module {
	return &scene.Module{
		Name: "media",
		Path: "pixoo64/media.go",
		Render: func(c *scene.Context) (time.Duration, error) {
			path := c.PayloadString("path", "")
			if path == "" {
				return scene.Done, errors.New("media: path parameter is required")
			}
			c.Device.Clear()
			err := c.Device.DrawImage(path,
				c.PayloadInt("x", 0), c.PayloadInt("y", 0),
				c.PayloadInt("w", c.Env.Width), c.PayloadInt("h", c.Env.Height),
				c.PayloadFloat("alpha", 1))
			if err != nil {
				return scene.Done, errors.Wrap(err, "media")
			}
			return scene.Done, c.Push()
		},
	}
}
