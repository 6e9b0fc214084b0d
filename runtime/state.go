// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"sync"
	"time"

	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/scene"
)

// Status is the transitional per-device state of the scene machine.
// It is never persisted.
type Status int32

const (
	StatusIdle Status = iota
	StatusSwitching
	StatusRunning
	StatusStopping
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusSwitching:
		return "switching"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	}
	return "idle"
}

// PlayState is the client-visible playback control, distinct from
// [Status]: status is transitional, playState is what clients set.
type PlayState string

const (
	PlayPlaying PlayState = "playing"
	PlayPaused  PlayState = "paused"
	PlayStopped PlayState = "stopped"
)

// deviceState is the runtime state machine for one device.
//
// Two locks: mu guards the state fields and the loop timer; renderMu
// serializes scene code (init, render, cleanup) so an in-flight render
// never overlaps lifecycle calls on the same canvas. mu is never held
// while scene code runs.
type deviceState struct {
	host string
	dev  *device.Device

	mu         sync.Mutex
	active     *scene.Module
	generation uint64
	status     Status
	play       PlayState
	timer      *time.Timer

	renderMu sync.Mutex
}

// cancelLoopLocked stops and clears the scheduled tick, if any.
// Caller holds mu.
func (ds *deviceState) cancelLoopLocked() {
	if ds.timer != nil {
		ds.timer.Stop()
		ds.timer = nil
	}
}
