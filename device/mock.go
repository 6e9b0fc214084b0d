// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"log/slog"
	"sync"

	"github.com/markus-barta/pidicon/canvas"
)

// maxMockFrames bounds the frame history kept by the mock driver.
const maxMockFrames = 16

// mockDriver records pushed frames in memory and logs a summary.
// It is always ready and never fails.
type mockDriver struct {
	host   string
	canvas *canvas.Canvas

	mu         sync.Mutex
	pushes     int
	frames     [][]byte
	brightness int
	displayOn  bool
	channel    int
}

func newMockDriver(host string) *mockDriver {
	return &mockDriver{
		host:       host,
		canvas:     canvas.New(),
		brightness: 100,
		displayOn:  true,
	}
}

func (d *mockDriver) Kind() Kind             { return KindMock }
func (d *mockDriver) Canvas() *canvas.Canvas { return d.canvas }

func (d *mockDriver) Push(ctx context.Context) error {
	frame := d.canvas.RGBBytes(nil)
	lit := 0
	for i := 0; i < len(frame); i += 3 {
		if frame[i] != 0 || frame[i+1] != 0 || frame[i+2] != 0 {
			lit++
		}
	}
	d.mu.Lock()
	d.pushes++
	d.frames = append(d.frames, frame)
	if len(d.frames) > maxMockFrames {
		d.frames = d.frames[1:]
	}
	n := d.pushes
	d.mu.Unlock()
	slog.Debug("mock push", "device", d.host, "frame", n, "litPixels", lit)
	return nil
}

func (d *mockDriver) SetBrightness(ctx context.Context, percent int) error {
	d.mu.Lock()
	d.brightness = percent
	d.mu.Unlock()
	slog.Debug("mock brightness", "device", d.host, "percent", percent)
	return nil
}

func (d *mockDriver) SetDisplayOn(ctx context.Context, on bool) error {
	d.mu.Lock()
	d.displayOn = on
	d.mu.Unlock()
	slog.Debug("mock display", "device", d.host, "on", on)
	return nil
}

func (d *mockDriver) SetChannel(ctx context.Context, index int) error {
	d.mu.Lock()
	d.channel = index
	d.mu.Unlock()
	slog.Debug("mock channel", "device", d.host, "index", index)
	return nil
}

// Pushes returns the number of frames pushed so far.
func (d *mockDriver) Pushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pushes
}

// LastFrame returns the most recently pushed RGB frame, or nil.
func (d *mockDriver) LastFrame() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}
