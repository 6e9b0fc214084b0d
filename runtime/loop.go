// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/markus-barta/pidicon/scene"
)

// scheduleLocked arms the loop timer for generation g after delay.
// Caller holds mu. The fired tick re-validates the generation itself,
// so a stale timer that slips past Stop is harmless.
func (ds *deviceState) scheduleLocked(r *Runtime, delay time.Duration, g uint64) {
	ds.timer = time.AfterFunc(delay, func() {
		r.tick(ds, g)
	})
}

// tick runs one loop iteration for generation g. Every decision is
// re-checked against the device's current generation: a tick that
// started before a switch must not push, mutate state, or reschedule
// after it.
func (r *Runtime) tick(ds *deviceState, g uint64) {
	ds.mu.Lock()
	if ds.generation != g || ds.play != PlayPlaying || ds.active == nil {
		ds.mu.Unlock()
		return
	}
	mod := ds.active
	ds.mu.Unlock()

	ds.renderMu.Lock()
	// the generation may have moved while we waited for the render lock
	if !r.genCurrent(ds, g) {
		ds.renderMu.Unlock()
		return
	}
	c := r.newContext(ds, mod, nil, true, g)
	delay, err := r.safeRender(mod, c)
	ds.renderMu.Unlock()

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.generation != g {
		return // superseded mid-render: no reschedule, no state change
	}
	if err != nil {
		ds.timer = nil
		opErr := &OpError{Op: "render", Device: ds.host, Scene: mod.Name, Generation: g, Err: err}
		slog.Error("scene render failed", "device", ds.host, "scene", mod.Name, "err", err)
		r.publishError(ds.host, opErr, map[string]any{"scene": mod.Name})
		return
	}
	if n := ds.dev.ConsecutiveErrors(); n >= r.errorThreshold {
		ds.timer = nil
		slog.Error("suspending loop after repeated push failures",
			"device", ds.host, "scene", mod.Name, "consecutive", n)
		r.publishError(ds.host, fmt.Errorf("device unreachable: %d consecutive push failures", n),
			map[string]any{"scene": mod.Name})
		return
	}
	if delay == scene.Done {
		ds.timer = nil // loop complete; device stays running for resume/update
		return
	}
	if ds.play != PlayPlaying {
		return // paused or stopped while rendering; cancelLoop already ran
	}
	ds.scheduleLocked(r, delay, g)
}

// renderOnce performs a single render outside the loop, for one-shot
// scenes and out-of-band refreshes.
func (r *Runtime) renderOnce(ds *deviceState, mod *scene.Module, payload map[string]any, g uint64) {
	ds.renderMu.Lock()
	defer ds.renderMu.Unlock()
	if !r.genCurrent(ds, g) {
		return
	}
	c := r.newContext(ds, mod, payload, false, g)
	if _, err := r.safeRender(mod, c); err != nil {
		opErr := &OpError{Op: "render", Device: ds.host, Scene: mod.Name, Generation: g, Err: err}
		slog.Error("scene render failed", "device", ds.host, "scene", mod.Name, "err", err)
		r.publishError(ds.host, opErr, map[string]any{"scene": mod.Name})
	}
}

// safeRender calls the scene's Render, converting a panic into an
// error so a buggy scene cannot take the daemon down.
func (r *Runtime) safeRender(mod *scene.Module, c *scene.Context) (delay time.Duration, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			delay, err = scene.Done, fmt.Errorf("scene %q panicked: %v", mod.Name, rec)
		}
	}()
	return mod.Render(c)
}

// runInit calls the scene's Init hook, if any. Caller holds renderMu.
func (r *Runtime) runInit(ds *deviceState, mod *scene.Module, payload map[string]any, g uint64) (err error) {
	if mod.Init == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scene %q init panicked: %v", mod.Name, rec)
		}
	}()
	return mod.Init(r.newContext(ds, mod, payload, false, g))
}

// runCleanup calls the scene's Cleanup hook, if any. Cleanup errors
// are logged and swallowed: teardown must always complete. Caller
// holds renderMu.
func (r *Runtime) runCleanup(ds *deviceState, mod *scene.Module, g uint64) {
	if mod.Cleanup == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("scene cleanup panicked", "device", ds.host, "scene", mod.Name, "panic", rec)
		}
	}()
	if err := mod.Cleanup(r.newContext(ds, mod, nil, false, g)); err != nil {
		slog.Warn("scene cleanup failed", "device", ds.host, "scene", mod.Name, "err", err)
	}
}
