// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtime implements the per-device scene scheduler and state
// machine: it drives init → render* → cleanup lifecycles, owns the
// loop timer, stamps generations, and gates input against the current
// state so stale commands and in-flight frames never corrupt a live
// scene.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/scene"
	"github.com/markus-barta/pidicon/store"
)

// defaultErrorThreshold is the run of consecutive push failures after
// which a device's loop is suspended.
const defaultErrorThreshold = 5

// Runtime multiplexes any number of display devices from one process,
// one cooperative render loop per device.
type Runtime struct {
	reg *scene.Registry
	st  *store.Store
	pub Publisher

	mu      sync.RWMutex
	devices map[string]*deviceState

	baseCtx context.Context
	cancel  context.CancelFunc

	errorThreshold int
}

// New returns a runtime over the given registry and store. The
// publisher may be nil.
func New(reg *scene.Registry, st *store.Store, pub Publisher) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		reg:            reg,
		st:             st,
		pub:            pub,
		devices:        map[string]*deviceState{},
		baseCtx:        ctx,
		cancel:         cancel,
		errorThreshold: defaultErrorThreshold,
	}
}

// AddDevice registers a device handle with the runtime.
func (r *Runtime) AddDevice(dev *device.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[dev.Host()] = &deviceState{
		host: dev.Host(),
		dev:  dev,
		play: PlayStopped,
	}
}

// Device returns the device handle for the given id.
func (r *Runtime) Device(host string) (*device.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.devices[host]
	if !ok {
		return nil, false
	}
	return ds.dev, true
}

// Devices returns all registered device handles.
func (r *Runtime) Devices() []*device.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*device.Device, 0, len(r.devices))
	for _, ds := range r.devices {
		out = append(out, ds.dev)
	}
	return out
}

// Registry returns the scene registry.
func (r *Runtime) Registry() *scene.Registry {
	return r.reg
}

// Store returns the state store.
func (r *Runtime) Store() *store.Store {
	return r.st
}

func (r *Runtime) deviceState(host string) (*deviceState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.devices[host]
	if !ok {
		return nil, &NotFoundError{Device: host}
	}
	return ds, nil
}

// genCurrent reports whether g is still the device's generation.
func (r *Runtime) genCurrent(ds *deviceState, g uint64) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.generation == g
}

// newContext assembles the render context for one lifecycle call of
// the given module at generation g.
func (r *Runtime) newContext(ds *deviceState, mod *scene.Module, payload map[string]any, loopDriven bool, g uint64) *scene.Context {
	c := scene.NewContext(ds.dev, r.st.SceneBag(ds.host, mod.Name), payload)
	c.LoopDriven = loopDriven
	c.Generation = g
	c.Ctx = r.baseCtx
	c.WithFence(func() bool { return r.genCurrent(ds, g) })
	c.WithPublishOk(func(ft float64, diff int, metrics map[string]any) {
		r.publishOk(ds.host, mod.Name, ft, diff, metrics)
	})
	return c
}

// SwitchScene stops any prior scene on the device, initializes the
// named scene, stamps a new generation and starts its loop. An
// unknown scene is rejected up front and leaves the device untouched.
func (r *Runtime) SwitchScene(host, name string, payload map[string]any) error {
	ds, err := r.deviceState(host)
	if err != nil {
		r.publishError(host, err, nil)
		return err
	}
	mod, ok := r.reg.Lookup(name)
	if !ok {
		err := &NotFoundError{Device: host, Scene: name}
		r.publishError(host, err, nil)
		return err
	}

	ds.mu.Lock()
	prevMod := ds.active
	prevGen := ds.generation
	// bump first: an in-flight render of the old scene is stale from
	// this point on and its push will be discarded by the fence
	ds.generation = prevGen + 1
	g := ds.generation
	ds.status = StatusSwitching
	if prevMod != nil {
		ds.status = StatusStopping
		ds.cancelLoopLocked()
	}
	ds.mu.Unlock()

	if prevMod != nil {
		// wait out any in-flight render before tearing down
		ds.renderMu.Lock()
		r.runCleanup(ds, prevMod, prevGen)
		ds.renderMu.Unlock()
		r.st.ClearScene(host, prevMod.Name)
	}

	ds.renderMu.Lock()
	initErr := r.runInit(ds, mod, payload, g)
	ds.renderMu.Unlock()

	ds.mu.Lock()
	if initErr != nil {
		// the old scene is already torn down, so a failed init lands
		// the device back in idle
		ds.active = nil
		ds.status = StatusIdle
		ds.play = PlayStopped
		ds.mu.Unlock()
		r.st.DeviceDelete(host, store.KeyActiveScene)
		r.st.DeviceSet(host, store.KeyPlayState, string(PlayStopped))
		opErr := &OpError{Op: "switchScene", Device: host, Scene: name, Generation: g, Err: initErr}
		r.publishError(host, opErr, nil)
		r.publishSceneState(ds)
		return opErr
	}
	ds.active = mod
	ds.status = StatusRunning
	ds.play = PlayPlaying
	if mod.WantsLoop {
		ds.scheduleLocked(r, 0, g)
	}
	ds.mu.Unlock()

	r.st.DeviceSet(host, store.KeyActiveScene, name)
	r.st.DeviceSet(host, store.KeyPlayState, string(PlayPlaying))
	r.publishSceneState(ds)

	if !mod.WantsLoop {
		r.renderOnce(ds, mod, payload, g)
	}
	return nil
}

// PauseScene cancels the scheduled tick and marks the device paused.
// The scene bag is preserved. Pausing an idle device is a warning,
// not an error.
func (r *Runtime) PauseScene(host string) error {
	ds, err := r.deviceState(host)
	if err != nil {
		return err
	}
	ds.mu.Lock()
	if ds.active == nil {
		ds.mu.Unlock()
		slog.Warn("pause with no active scene", "device", host)
		return nil
	}
	ds.cancelLoopLocked()
	ds.status = StatusPaused
	ds.play = PlayPaused
	ds.mu.Unlock()
	r.st.DeviceSet(host, store.KeyPlayState, string(PlayPaused))
	r.publishSceneState(ds)
	return nil
}

// ResumeScene restarts the loop of a paused or stopped loop scene,
// reusing the existing generation so the scene's state bag and phase
// survive.
func (r *Runtime) ResumeScene(host string) error {
	ds, err := r.deviceState(host)
	if err != nil {
		return err
	}
	ds.mu.Lock()
	if ds.active == nil {
		ds.mu.Unlock()
		slog.Warn("resume with no active scene", "device", host)
		return nil
	}
	if ds.play == PlayPlaying {
		ds.mu.Unlock()
		return nil
	}
	if !ds.active.WantsLoop {
		ds.mu.Unlock()
		slog.Warn("resume on single-shot scene", "device", host, "scene", ds.active.Name)
		return nil
	}
	ds.play = PlayPlaying
	ds.status = StatusRunning
	ds.scheduleLocked(r, 0, ds.generation)
	ds.mu.Unlock()
	r.st.DeviceSet(host, store.KeyPlayState, string(PlayPlaying))
	r.publishSceneState(ds)
	return nil
}

// StopScene cancels the loop and marks the device stopped. The scene
// stays loaded with its bag intact, so a later resume is cheap.
func (r *Runtime) StopScene(host string) error {
	ds, err := r.deviceState(host)
	if err != nil {
		return err
	}
	ds.mu.Lock()
	if ds.active == nil {
		ds.mu.Unlock()
		slog.Warn("stop with no active scene", "device", host)
		return nil
	}
	ds.cancelLoopLocked()
	ds.status = StatusStopped
	ds.play = PlayStopped
	ds.mu.Unlock()
	r.st.DeviceSet(host, store.KeyPlayState, string(PlayStopped))
	r.publishSceneState(ds)
	return nil
}

// UpdateSceneParameters merges new parameters into the active scene's
// bag and re-applies its lifecycle without a generation bump, so the
// running loop continues undisturbed. If the named scene is not the
// active one, this is a switch, not a silent drop.
func (r *Runtime) UpdateSceneParameters(host, name string, payload map[string]any) error {
	ds, err := r.deviceState(host)
	if err != nil {
		r.publishError(host, err, nil)
		return err
	}
	ds.mu.Lock()
	active := ds.active
	g := ds.generation
	ds.mu.Unlock()
	if active == nil || active.Name != name {
		return r.SwitchScene(host, name, payload)
	}

	bag := r.st.SceneBag(host, name)
	merged := make(map[string]any, len(payload))
	for k, v := range payload {
		if k != "scene" {
			merged[k] = v
		}
	}
	bag.Merge(merged)

	ds.renderMu.Lock()
	r.runCleanup(ds, active, g)
	initErr := r.runInit(ds, active, payload, g)
	ds.renderMu.Unlock()
	if initErr != nil {
		opErr := &OpError{Op: "updateParameters", Device: host, Scene: name, Generation: g, Err: initErr}
		r.publishError(host, opErr, nil)
		return opErr
	}

	r.renderOnce(ds, active, payload, g)

	ds.mu.Lock()
	if active.WantsLoop && ds.timer == nil {
		// loop had completed or died: restart under a new generation
		ds.generation++
		ds.play = PlayPlaying
		ds.status = StatusRunning
		ds.scheduleLocked(r, 0, ds.generation)
		r.st.DeviceSet(host, store.KeyPlayState, string(PlayPlaying))
	}
	ds.mu.Unlock()
	r.publishSceneState(ds)
	return nil
}

// RerenderScene performs one out-of-band render of the active scene,
// used after driver swaps and soft resets. No generation change.
func (r *Runtime) RerenderScene(host string) error {
	ds, err := r.deviceState(host)
	if err != nil {
		return err
	}
	ds.mu.Lock()
	active := ds.active
	g := ds.generation
	ds.mu.Unlock()
	if active == nil {
		return nil
	}
	r.renderOnce(ds, active, nil, g)
	return nil
}

// State reports the current machine state of a device.
func (r *Runtime) State(host string) (sceneName string, status Status, play PlayState, generation uint64, err error) {
	ds, derr := r.deviceState(host)
	if derr != nil {
		return "", StatusIdle, PlayStopped, 0, derr
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.active != nil {
		sceneName = ds.active.Name
	}
	return sceneName, ds.status, ds.play, ds.generation, nil
}

// RestoreFromStore re-applies persisted device state after a restart:
// brightness, display power, logging level, and the active scene with
// its persisted play state.
func (r *Runtime) RestoreFromStore(ctx context.Context) {
	r.mu.RLock()
	devices := make([]*deviceState, 0, len(r.devices))
	for _, ds := range r.devices {
		devices = append(devices, ds)
	}
	r.mu.RUnlock()

	for _, ds := range devices {
		host := ds.host
		if v, ok := r.st.DeviceGet(host, store.KeyBrightness); ok {
			if n, ok := v.(int); ok {
				if err := ds.dev.SetBrightness(ctx, n); err != nil {
					slog.Warn("restore brightness failed", "device", host, "err", err)
				}
			}
		}
		if v, ok := r.st.DeviceGet(host, store.KeyDisplayOn); ok {
			if on, ok := v.(bool); ok {
				if err := ds.dev.SetDisplayOn(ctx, on); err != nil {
					slog.Warn("restore display state failed", "device", host, "err", err)
				}
			}
		}
		name, _ := r.st.DeviceGet(host, store.KeyActiveScene)
		sceneName, _ := name.(string)
		if sceneName == "" {
			continue
		}
		if err := r.SwitchScene(host, sceneName, nil); err != nil {
			slog.Warn("restore scene failed", "device", host, "scene", sceneName, "err", err)
			continue
		}
		if v, ok := r.st.DeviceGet(host, store.KeyPlayState); ok {
			switch PlayState(fmt.Sprint(v)) {
			case PlayPaused:
				r.PauseScene(host)
			case PlayStopped:
				r.StopScene(host)
			}
		}
	}
}

// Shutdown cancels all loops, runs cleanup on active scenes, and
// invalidates outstanding render contexts.
func (r *Runtime) Shutdown() {
	r.cancel()
	r.mu.RLock()
	devices := make([]*deviceState, 0, len(r.devices))
	for _, ds := range r.devices {
		devices = append(devices, ds)
	}
	r.mu.RUnlock()

	for _, ds := range devices {
		ds.mu.Lock()
		ds.cancelLoopLocked()
		active := ds.active
		g := ds.generation
		ds.generation++ // fence out any in-flight tick
		ds.active = nil
		ds.status = StatusIdle
		ds.play = PlayStopped
		ds.mu.Unlock()
		if active != nil {
			ds.renderMu.Lock()
			r.runCleanup(ds, active, g)
			ds.renderMu.Unlock()
		}
	}
}
