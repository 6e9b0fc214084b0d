// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"context"

	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/store"
)

// Env describes the display surface a scene renders for.
type Env struct {
	Host   string
	Width  int
	Height int
}

// Context is what a scene sees during init, render and cleanup.
// Scenes are pure renderers: they must not spawn their own timers,
// must not publish to MQTT directly, and must not retain the context
// across ticks — cross-tick memory goes through [Context.State].
type Context struct {
	// Device is the drawing surface and push target.
	Device *device.Device

	// State is this scene's state bag on this device.
	State *store.Bag

	// Payload is the command payload that triggered this render or
	// init; it may be empty.
	Payload map[string]any

	// Env describes the display surface.
	Env Env

	// LoopDriven is true inside a loop tick, false for one-shot
	// renders.
	LoopDriven bool

	// Generation is the generation this tick belongs to, for
	// diagnostic logging.
	Generation uint64

	// Ctx carries cancellation for blocking operations in this tick.
	Ctx context.Context

	// valid is the generation fence check injected by the runtime.
	valid func() bool

	// publishOk is the best-effort success signal, injected by the
	// runtime; may be nil.
	publishOk func(frametimeMs float64, diffPixels int, metrics map[string]any)
}

// NewContext assembles a context; used by the runtime and by tests.
func NewContext(dev *device.Device, bag *store.Bag, payload map[string]any) *Context {
	host := ""
	if dev != nil {
		host = dev.Host()
	}
	return &Context{
		Device:  dev,
		State:   bag,
		Payload: payload,
		Env:     Env{Host: host, Width: 64, Height: 64},
		Ctx:     context.Background(),
	}
}

// WithFence sets the generation fence check. Used by the runtime.
func (c *Context) WithFence(valid func() bool) *Context {
	c.valid = valid
	return c
}

// WithPublishOk sets the success signal hook. Used by the runtime.
func (c *Context) WithPublishOk(fn func(frametimeMs float64, diffPixels int, metrics map[string]any)) *Context {
	c.publishOk = fn
	return c
}

// Valid reports whether this tick's generation is still current.
func (c *Context) Valid() bool {
	return c.valid == nil || c.valid()
}

// Push ships the frame to the device driver, unless this tick's
// generation has been superseded, in which case the frame is
// discarded and counted as skipped.
func (c *Context) Push() error {
	if !c.Valid() {
		c.Device.RecordSkip()
		return nil
	}
	return c.Device.Push(c.Ctx)
}

// PublishOk emits a best-effort success event; it never fails.
func (c *Context) PublishOk(frametimeMs float64, diffPixels int, metrics map[string]any) {
	if c.publishOk != nil {
		c.publishOk(frametimeMs, diffPixels, metrics)
	}
}

// PayloadString returns a string payload field, or def.
func (c *Context) PayloadString(key, def string) string {
	if v, ok := c.Payload[key].(string); ok {
		return v
	}
	return def
}

// PayloadFloat returns a numeric payload field, or def.
func (c *Context) PayloadFloat(key string, def float64) float64 {
	switch v := c.Payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// PayloadInt returns an integer payload field, or def.
func (c *Context) PayloadInt(key string, def int) int {
	switch v := c.Payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// PayloadBool returns a boolean payload field, or def.
func (c *Context) PayloadBool(key string, def bool) bool {
	if v, ok := c.Payload[key].(bool); ok {
		return v
	}
	return def
}
