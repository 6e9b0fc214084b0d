// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// imageCache caches decoded and scaled images by path and size, so
// loop-driven scenes do not decode from disk on every tick. It is
// invalidated by the media [Watcher] on file changes.
var imageCache = struct {
	sync.Mutex
	m map[imageKey]*image.RGBA
}{m: map[imageKey]*image.RGBA{}}

type imageKey struct {
	path string
	w, h int
}

// InvalidateImage drops any cached decodes of the given path.
// An empty path drops the entire cache.
func InvalidateImage(path string) {
	imageCache.Lock()
	defer imageCache.Unlock()
	if path == "" {
		imageCache.m = map[imageKey]*image.RGBA{}
		return
	}
	for k := range imageCache.m {
		if k.path == path {
			delete(imageCache.m, k)
		}
	}
}

// DrawImage decodes the image at the given path, scales it to the
// given size, and blends it onto the canvas at (x, y) with the given
// opacity in [0, 1]. Decoded images are cached until invalidated.
func (c *Canvas) DrawImage(path string, x, y, w, h int, alpha float64) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	img, err := loadScaled(path, w, h)
	if err != nil {
		return err
	}
	a := math.Max(0, math.Min(1, alpha))
	for yy := 0; yy < h; yy++ {
		for xx := 0; xx < w; xx++ {
			r, g, b, pa := img.At(xx, yy).RGBA()
			if pa == 0 {
				continue
			}
			// un-premultiply to 8-bit channels
			pr := uint8((r * 0xffff / pa) >> 8)
			pg := uint8((g * 0xffff / pa) >> 8)
			pb := uint8((b * 0xffff / pa) >> 8)
			c.DrawPixel(x+xx, y+yy, Color{
				R: pr, G: pg, B: pb,
				A: uint8(math.Round(float64(pa>>8) * a)),
			})
		}
	}
	return nil
}

func loadScaled(path string, w, h int) (*image.RGBA, error) {
	key := imageKey{path: path, w: w, h: h}
	imageCache.Lock()
	cached := imageCache.m[key]
	imageCache.Unlock()
	if cached != nil {
		return cached, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	imageCache.Lock()
	imageCache.m[key] = dst
	imageCache.Unlock()
	return dst, nil
}
