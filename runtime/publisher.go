// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

// Publisher is the outbound event surface the runtime reports to.
// All methods are best-effort: implementations must not block the
// runtime and must swallow transport failures.
type Publisher interface {
	// PublishOk signals a successful frame for a scene on a device.
	PublishOk(device, scene string, frametimeMs float64, diffPixels int, metrics map[string]any)

	// PublishError reports a structured failure for a device.
	PublishError(device string, err error, fields map[string]any)

	// PublishSceneState reports the current scene machine state.
	PublishSceneState(device string, state map[string]any)
}

// SetPublisher installs the outbound event publisher. Called once
// during wiring, before any device loop starts.
func (r *Runtime) SetPublisher(pub Publisher) {
	r.pub = pub
}

func (r *Runtime) publishOk(device, scene string, frametimeMs float64, diffPixels int, metrics map[string]any) {
	if r.pub != nil {
		r.pub.PublishOk(device, scene, frametimeMs, diffPixels, metrics)
	}
}

func (r *Runtime) publishError(device string, err error, fields map[string]any) {
	if r.pub != nil {
		r.pub.PublishError(device, err, fields)
	}
}

func (r *Runtime) publishSceneState(ds *deviceState) {
	if r.pub == nil {
		return
	}
	ds.mu.Lock()
	state := map[string]any{
		"scene":        "",
		"status":       ds.status.String(),
		"playState":    string(ds.play),
		"generationId": ds.generation,
	}
	if ds.active != nil {
		state["scene"] = ds.active.Name
	}
	host := ds.host
	ds.mu.Unlock()
	r.pub.PublishSceneState(host, state)
}
