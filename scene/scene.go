// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene defines the rendering contract that scene modules
// implement, the render context they receive, and the registry that
// maps scene names to modules.
package scene

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Done is returned by a scene's Render to signal that the scene is
// complete and no further ticks should be scheduled.
const Done = time.Duration(-1)

// Module is a scene: a named render function with optional lifecycle
// hooks and metadata. Render is the only required behavior.
type Module struct {
	// Name is the stable identifier used in commands and topics.
	Name string

	// WantsLoop selects loop-driven rendering; single-shot otherwise.
	WantsLoop bool

	// Render draws one frame into the context's device and returns
	// the delay until the next tick, or [Done] when complete.
	Render func(c *Context) (time.Duration, error)

	// Init is called when the scene becomes active on a device.
	Init func(c *Context) error

	// Cleanup is called when the scene is switched away. Errors in
	// cleanup are logged by the runtime, never fatal.
	Cleanup func(c *Context) error

	// Tags are free-form labels, partly derived from Path.
	Tags []string

	// DeviceTypes restricts the scene to given device types.
	// Empty means any device.
	DeviceTypes []string

	// Dev marks development-only scenes.
	Dev bool

	// Path is the scene's relative source path, used to derive
	// metadata and the stable ordering hash.
	Path string

	order uint32
}

// Validate checks the module against the contract. A module without
// Render or without a name is rejected at load time.
func (m *Module) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("scene module has no name (path %q)", m.Path)
	}
	if m.Render == nil {
		return fmt.Errorf("scene %q does not provide render", m.Name)
	}
	return nil
}

// Order returns the stable per-scene ordering value, derived from a
// hash of name|path so listings are reproducible across runs. It is
// computed once at registration; modules are never mutated afterwards.
func (m *Module) Order() uint32 {
	return m.order
}

func (m *Module) hashOrder() {
	h := fnv.New32a()
	h.Write([]byte(m.Name + "|" + m.Path))
	m.order = h.Sum32()
}

// deriveMeta tags the module with metadata from its path: a "dev"
// segment implies dev-only, an "examples" segment adds the examples
// tag, and a leading segment other than those implies device-type
// targeting.
func (m *Module) deriveMeta() {
	if m.Path == "" {
		return
	}
	segs := strings.Split(strings.Trim(m.Path, "/"), "/")
	for _, s := range segs[:len(segs)-1] {
		switch s {
		case "dev":
			m.Dev = true
		case "examples":
			if !hasTag(m.Tags, "examples") {
				m.Tags = append(m.Tags, "examples")
			}
		}
	}
	if len(segs) > 1 {
		if root := segs[0]; root != "dev" && root != "examples" {
			if !hasTag(m.DeviceTypes, root) {
				m.DeviceTypes = append(m.DeviceTypes, root)
			}
		}
	}
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SupportsDevice reports whether the module targets the given device
// type. An empty DeviceTypes list matches everything.
func (m *Module) SupportsDevice(deviceType string) bool {
	if len(m.DeviceTypes) == 0 || deviceType == "" {
		return true
	}
	return hasTag(m.DeviceTypes, deviceType)
}
