// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markus-barta/pidicon/canvas"
	"github.com/markus-barta/pidicon/store"
)

// resetRestoreDelay is how long the soft reset shows the init channel
// before restoring the custom channel.
const resetRestoreDelay = time.Second

// Device owns one driver instance for one display, forwards the
// drawing API to the driver's canvas, and records per-device metrics
// on every push. The driver can be hot-swapped at runtime.
type Device struct {
	host string
	st   *store.Store

	mu     sync.Mutex
	driver Driver

	pushes        uint64
	skipped       uint64
	errors        uint64
	consecErrors  int
	lastFrametime time.Duration
	lastSeen      time.Time

	ops []string
}

// maxOps bounds the per-frame drawing op log.
const maxOps = 4096

// New returns a device handle for the given host with a fresh driver
// of the given kind. The store receives brightness and display state
// updates; it may be nil in tests.
func New(host string, kind Kind, st *store.Store) *Device {
	return &Device{host: host, st: st, driver: newDriver(kind, host)}
}

// Host returns the device id (in practice its IP address).
func (d *Device) Host() string { return d.host }

// DriverKind returns the kind of the current driver.
func (d *Device) DriverKind() Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.driver.Kind()
}

// Driver returns the current driver instance.
func (d *Device) Driver() Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.driver
}

// SwitchDriver replaces the driver with a fresh instance of the given
// kind. The next push re-runs driver init. It reports whether the
// driver actually changed.
func (d *Device) SwitchDriver(kind Kind) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.driver.Kind() == kind {
		return false
	}
	d.driver = newDriver(kind, d.host)
	return true
}

func (d *Device) record(format string, args ...any) {
	if len(d.ops) < maxOps {
		d.ops = append(d.ops, fmt.Sprintf(format, args...))
	}
}

// Clear zeroes the canvas.
func (d *Device) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("clear")
	d.driver.Canvas().Clear()
}

// FillColor fills the whole canvas with the given color.
func (d *Device) FillColor(col canvas.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("fill(%v)", col)
	d.driver.Canvas().Fill(col)
}

// DrawPixel draws one clipped, blended pixel.
func (d *Device) DrawPixel(x, y int, col canvas.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("pixel(%d,%d,%v)", x, y, col)
	d.driver.Canvas().DrawPixel(x, y, col)
}

// DrawLine draws a Bresenham line.
func (d *Device) DrawLine(x0, y0, x1, y1 int, col canvas.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("line(%d,%d,%d,%d,%v)", x0, y0, x1, y1, col)
	d.driver.Canvas().DrawLine(x0, y0, x1, y1, col)
}

// DrawRect draws a filled rectangle.
func (d *Device) DrawRect(x, y, w, h int, col canvas.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("rect(%d,%d,%d,%d,%v)", x, y, w, h, col)
	d.driver.Canvas().DrawRect(x, y, w, h, col)
}

// FillRect is an alias for [Device.DrawRect].
func (d *Device) FillRect(x, y, w, h int, col canvas.Color) {
	d.DrawRect(x, y, w, h, col)
}

// DrawText renders bitmap-font text and returns the width drawn.
func (d *Device) DrawText(s string, x, y int, col canvas.Color, align canvas.Align) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("text(%q,%d,%d,%v,%v)", s, x, y, col, align)
	return d.driver.Canvas().DrawText(s, x, y, col, align)
}

// DrawNumeric renders a number with adaptive precision and returns
// the width drawn.
func (d *Device) DrawNumeric(value float64, x, y int, col canvas.Color, align canvas.Align, maxDigits int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("numeric(%v,%d,%d,%v,%v,%d)", value, x, y, col, align, maxDigits)
	return d.driver.Canvas().DrawNumeric(value, x, y, col, align, maxDigits)
}

// DrawImage decodes, scales and blends an image file onto the canvas.
func (d *Device) DrawImage(path string, x, y, w, h int, alpha float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("image(%q,%d,%d,%d,%d,%v)", path, x, y, w, h, alpha)
	return d.driver.Canvas().DrawImage(path, x, y, w, h, alpha)
}

// Ops returns the drawing ops recorded since the last push.
func (d *Device) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.ops))
	copy(out, d.ops)
	return out
}

// Push ships the canvas to the driver, measuring wall-clock frametime
// and recording metrics. Driver errors are counted and returned.
func (d *Device) Push(ctx context.Context) error {
	d.mu.Lock()
	drv := d.driver
	d.ops = d.ops[:0]
	d.mu.Unlock()

	start := time.Now()
	err := drv.Push(ctx)
	elapsed := time.Since(start)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastFrametime = elapsed
	d.lastSeen = time.Now()
	if err != nil {
		d.errors++
		d.consecErrors++
		return err
	}
	d.pushes++
	d.consecErrors = 0
	return nil
}

// RecordSkip counts a frame suppressed by the generation fence.
func (d *Device) RecordSkip() {
	d.mu.Lock()
	d.skipped++
	d.mu.Unlock()
}

// ConsecutiveErrors returns the current run of failed pushes.
func (d *Device) ConsecutiveErrors() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.consecErrors
}

// SetBrightness clamps the given percentage to 0–100, applies it to
// the driver and records it in the store.
func (d *Device) SetBrightness(ctx context.Context, percent int) error {
	percent = min(max(percent, 0), 100)
	d.mu.Lock()
	drv := d.driver
	d.mu.Unlock()
	if err := drv.SetBrightness(ctx, percent); err != nil {
		return err
	}
	if d.st != nil {
		d.st.DeviceSet(d.host, store.KeyBrightness, percent)
	}
	return nil
}

// SetDisplayOn switches the panel on or off and records it in the
// store. Frames keep being pushed while the panel is off; the panel
// simply ignores them.
func (d *Device) SetDisplayOn(ctx context.Context, on bool) error {
	d.mu.Lock()
	drv := d.driver
	d.mu.Unlock()
	if err := drv.SetDisplayOn(ctx, on); err != nil {
		return err
	}
	if d.st != nil {
		d.st.DeviceSet(d.host, store.KeyDisplayOn, on)
	}
	return nil
}

// Reset performs the soft reset UX: show the init channel briefly,
// then restore the custom channel. The caller re-renders afterwards.
func (d *Device) Reset(ctx context.Context) error {
	d.mu.Lock()
	drv := d.driver
	d.mu.Unlock()
	if err := drv.SetChannel(ctx, 0); err != nil {
		return err
	}
	select {
	case <-time.After(resetRestoreDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return drv.SetChannel(ctx, 3)
}

// Metrics is a point-in-time copy of the per-device counters.
type Metrics struct {
	Pushes        uint64        `json:"pushes"`
	Skipped       uint64        `json:"skipped"`
	Errors        uint64        `json:"errors"`
	LastFrametime time.Duration `json:"lastFrametimeMs"`
	LastSeen      time.Time     `json:"lastSeenTs"`
}

// Metrics returns a snapshot of the device counters.
func (d *Device) Metrics() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Metrics{
		Pushes:        d.pushes,
		Skipped:       d.skipped,
		Errors:        d.errors,
		LastFrametime: d.lastFrametime,
		LastSeen:      d.lastSeen,
	}
}
