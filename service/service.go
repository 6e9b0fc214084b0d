// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package service is the facade over the scene runtime, registry and
// store, plus the read-only HTTP/WebSocket admin surface built on it.
package service

import (
	"time"

	"github.com/markus-barta/pidicon/runtime"
	"github.com/markus-barta/pidicon/store"
)

// DeviceInfo is the externally visible state of one device.
type DeviceInfo struct {
	Host         string  `json:"host"`
	Driver       string  `json:"driver"`
	Scene        string  `json:"scene"`
	Status       string  `json:"status"`
	PlayState    string  `json:"playState"`
	Generation   uint64  `json:"generationId"`
	Pushes       uint64  `json:"pushes"`
	Skipped      uint64  `json:"skipped"`
	Errors       uint64  `json:"errors"`
	FrametimeMs  float64 `json:"lastFrametimeMs"`
	LastSeenMs   int64   `json:"lastSeenTs"`
	Brightness   int     `json:"brightness"`
	DisplayOn    bool    `json:"displayOn"`
	LoggingLevel string  `json:"loggingLevel,omitempty"`
}

// SceneInfo is the externally visible description of one scene.
type SceneInfo struct {
	Name        string   `json:"name"`
	WantsLoop   bool     `json:"wantsLoop"`
	Tags        []string `json:"tags,omitempty"`
	DeviceTypes []string `json:"deviceTypes,omitempty"`
	Dev         bool     `json:"dev,omitempty"`
}

// Service exposes the daemon's read surface to admin clients. All
// mutation still goes through the command router.
type Service struct {
	rt *runtime.Runtime
}

// New returns a service over the given runtime.
func New(rt *runtime.Runtime) *Service {
	return &Service{rt: rt}
}

// Devices returns the current state of every registered device.
func (s *Service) Devices() []DeviceInfo {
	st := s.rt.Store()
	devs := s.rt.Devices()
	out := make([]DeviceInfo, 0, len(devs))
	for _, d := range devs {
		host := d.Host()
		sceneName, status, play, gen, err := s.rt.State(host)
		if err != nil {
			continue
		}
		m := d.Metrics()
		info := DeviceInfo{
			Host:        host,
			Driver:      d.DriverKind().String(),
			Scene:       sceneName,
			Status:      status.String(),
			PlayState:   string(play),
			Generation:  gen,
			Pushes:      m.Pushes,
			Skipped:     m.Skipped,
			Errors:      m.Errors,
			FrametimeMs: float64(m.LastFrametime) / float64(time.Millisecond),
			Brightness:  100,
			DisplayOn:   true,
		}
		if !m.LastSeen.IsZero() {
			info.LastSeenMs = m.LastSeen.UnixMilli()
		}
		if v, ok := st.DeviceGet(host, store.KeyBrightness); ok {
			if n, ok := v.(int); ok {
				info.Brightness = n
			}
		}
		if v, ok := st.DeviceGet(host, store.KeyDisplayOn); ok {
			if on, ok := v.(bool); ok {
				info.DisplayOn = on
			}
		}
		if v, ok := st.DeviceGet(host, store.KeyLoggingLevel); ok {
			info.LoggingLevel, _ = v.(string)
		}
		out = append(out, info)
	}
	return out
}

// Scenes returns the registered scene catalog in stable order.
func (s *Service) Scenes() []SceneInfo {
	mods := s.rt.Registry().List()
	out := make([]SceneInfo, 0, len(mods))
	for _, m := range mods {
		out = append(out, SceneInfo{
			Name:        m.Name,
			WantsLoop:   m.WantsLoop,
			Tags:        m.Tags,
			DeviceTypes: m.DeviceTypes,
			Dev:         m.Dev,
		})
	}
	return out
}

// State returns a deep snapshot of the full state store.
func (s *Service) State() store.Snapshot {
	return s.rt.Store().Snapshot()
}

// Metrics returns the per-device metric counters used by the periodic
// metrics publisher.
func (s *Service) Metrics(host string) (map[string]any, bool) {
	d, ok := s.rt.Device(host)
	if !ok {
		return nil, false
	}
	m := d.Metrics()
	sceneName, status, play, gen, _ := s.rt.State(host)
	return map[string]any{
		"scene":           sceneName,
		"status":          status.String(),
		"playState":       string(play),
		"generationId":    gen,
		"pushes":          m.Pushes,
		"skipped":         m.Skipped,
		"errors":          m.Errors,
		"lastFrametimeMs": float64(m.LastFrametime) / float64(time.Millisecond),
		"ts":              time.Now().UnixMilli(),
	}, true
}
