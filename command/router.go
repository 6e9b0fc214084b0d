// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package command implements the command router: it parses namespaced
// topics into (device, section, action, payload), dispatches them to
// the scene runtime and device handles, and publishes structured
// errors for anything malformed. Commands for the same device are
// processed strictly in receive order.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/logx"
	"github.com/markus-barta/pidicon/runtime"
	"github.com/markus-barta/pidicon/store"
)

// DefaultNamespace is the leading topic segment all commands share.
const DefaultNamespace = "pixoo"

// queueSize bounds the inbound command queue. A full queue drops the
// newest command with a log entry rather than blocking the transport.
const queueSize = 64

// ValidationError reports a malformed payload or an out-of-range
// value. It is published to the device's error topic, never fatal.
type ValidationError struct {
	Device string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("device %s: %s", e.Device, e.Reason)
}

// Message is one raw inbound command.
type Message struct {
	Topic   string
	Payload []byte
}

// Router dispatches parsed commands to the runtime. A single worker
// goroutine drains the queue so same-device ordering is guaranteed.
type Router struct {
	ns    string
	rt    *runtime.Runtime
	pub   runtime.Publisher
	queue chan Message
}

// NewRouter returns a router for the given namespace. An empty
// namespace selects [DefaultNamespace]. The publisher may be nil.
func NewRouter(ns string, rt *runtime.Runtime, pub runtime.Publisher) *Router {
	if ns == "" {
		ns = DefaultNamespace
	}
	return &Router{
		ns:    ns,
		rt:    rt,
		pub:   pub,
		queue: make(chan Message, queueSize),
	}
}

// Namespace returns the router's topic namespace.
func (r *Router) Namespace() string { return r.ns }

// SetPublisher installs the error publisher. Called once during
// wiring, before the router starts dispatching.
func (r *Router) SetPublisher(pub runtime.Publisher) {
	r.pub = pub
}

// SubscriptionFilters returns the MQTT filters covering all command
// topics in this namespace. MQTT wildcards match exactly one segment,
// so sectioned commands and action-less ones like <ns>/<device>/reset
// need separate filters.
func (r *Router) SubscriptionFilters() []string {
	return []string{r.ns + "/+/+/+", r.ns + "/+/+"}
}

// Enqueue queues one raw message for ordered dispatch. When the queue
// is full the message is dropped with a log entry; the transport is
// never blocked.
func (r *Router) Enqueue(topic string, payload []byte) {
	select {
	case r.queue <- Message{Topic: topic, Payload: payload}:
	default:
		slog.Warn("command queue full, dropping message", "topic", topic)
	}
}

// Run drains the queue until the context is canceled.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			r.Dispatch(ctx, msg.Topic, msg.Payload)
		}
	}
}

// parseTopic splits <ns>/<device>/<section>[/<action>]. An omitted
// action defaults to "set", so <ns>/<device>/reset and
// <ns>/<device>/reset/set are the same command.
func (r *Router) parseTopic(topic string) (dev, section, action string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0] != r.ns || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed topic %q", topic)
	}
	dev, section, action = parts[1], parts[2], "set"
	if len(parts) > 3 {
		action = parts[3]
	}
	return dev, section, action, nil
}

// Dispatch parses and executes one command synchronously. Errors are
// logged and published; Dispatch itself never fails hard.
func (r *Router) Dispatch(ctx context.Context, topic string, raw []byte) {
	dev, section, action, err := r.parseTopic(topic)
	if err != nil {
		slog.Warn("dropping malformed topic", "topic", topic)
		return
	}
	log := logx.Device(dev)

	payload := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			r.fail(dev, &ValidationError{Device: dev, Reason: fmt.Sprintf("malformed payload: %v", err)}, topic)
			return
		}
	}
	log.Debug("command", "section", section, "action", action, "payload", payload)

	switch section + "/" + action {
	case "scene/set":
		r.handleSceneSet(dev, payload, topic)
	case "state/upd":
		r.handleStateUpdate(dev, payload, topic)
	case "driver/set":
		r.handleDriverSet(dev, payload, topic)
	case "reset/set":
		r.handleReset(ctx, dev, topic)
	case "brightness/set":
		r.handleBrightness(ctx, dev, payload, topic)
	case "display/set":
		r.handleDisplay(ctx, dev, payload, topic)
	case "logging/set":
		r.handleLogging(dev, payload, topic)
	case "playback/play", "playback/pause", "playback/stop":
		r.handlePlayback(dev, action, topic)
	case "playback/set":
		r.handlePlayback(dev, stringField(payload, "playState"), topic)
	default:
		r.fail(dev, &ValidationError{Device: dev, Reason: fmt.Sprintf("unknown command %s/%s", section, action)}, topic)
	}
}

func (r *Router) handleSceneSet(dev string, payload map[string]any, topic string) {
	name := stringField(payload, "scene")
	if name == "" {
		r.fail(dev, &ValidationError{Device: dev, Reason: "scene/set requires a scene field"}, topic)
		return
	}
	active, _, _, _, err := r.rt.State(dev)
	if err != nil {
		r.fail(dev, err, topic)
		return
	}
	if name == active {
		// runtime errors are published by the runtime itself
		r.rt.UpdateSceneParameters(dev, name, payload)
		return
	}
	r.rt.SwitchScene(dev, name, payload)
}

func (r *Router) handleStateUpdate(dev string, payload map[string]any, topic string) {
	active, _, _, _, err := r.rt.State(dev)
	if err != nil {
		r.fail(dev, err, topic)
		return
	}
	if active == "" {
		r.fail(dev, &ValidationError{Device: dev, Reason: "state/upd with no active scene"}, topic)
		return
	}
	r.rt.UpdateSceneParameters(dev, active, payload)
}

func (r *Router) handleDriverSet(dev string, payload map[string]any, topic string) {
	kind, err := device.KindFromString(stringField(payload, "driver"))
	if err != nil {
		r.fail(dev, &ValidationError{Device: dev, Reason: err.Error()}, topic)
		return
	}
	handle, ok := r.rt.Device(dev)
	if !ok {
		r.fail(dev, &runtime.NotFoundError{Device: dev}, topic)
		return
	}
	if !handle.SwitchDriver(kind) {
		return
	}
	slog.Info("driver switched", "device", dev, "driver", kind)
	r.rt.RerenderScene(dev)
}

func (r *Router) handleReset(ctx context.Context, dev string, topic string) {
	handle, ok := r.rt.Device(dev)
	if !ok {
		r.fail(dev, &runtime.NotFoundError{Device: dev}, topic)
		return
	}
	if err := handle.Reset(ctx); err != nil {
		r.fail(dev, err, topic)
		return
	}
	r.rt.RerenderScene(dev)
}

func (r *Router) handleBrightness(ctx context.Context, dev string, payload map[string]any, topic string) {
	v, ok := intField(payload, "brightness")
	if !ok {
		r.fail(dev, &ValidationError{Device: dev, Reason: "brightness/set requires a brightness field"}, topic)
		return
	}
	handle, ok := r.rt.Device(dev)
	if !ok {
		r.fail(dev, &runtime.NotFoundError{Device: dev}, topic)
		return
	}
	if err := handle.SetBrightness(ctx, v); err != nil {
		r.fail(dev, err, topic)
	}
}

func (r *Router) handleDisplay(ctx context.Context, dev string, payload map[string]any, topic string) {
	on, ok := payload["on"].(bool)
	if !ok {
		r.fail(dev, &ValidationError{Device: dev, Reason: "display/set requires a boolean on field"}, topic)
		return
	}
	handle, ok := r.rt.Device(dev)
	if !ok {
		r.fail(dev, &runtime.NotFoundError{Device: dev}, topic)
		return
	}
	if err := handle.SetDisplayOn(ctx, on); err != nil {
		r.fail(dev, err, topic)
	}
}

func (r *Router) handleLogging(dev string, payload map[string]any, topic string) {
	name := stringField(payload, "level")
	logx.SetDeviceLevel(dev, name)
	if st := r.storeOf(); st != nil {
		st.DeviceSet(dev, store.KeyLoggingLevel, name)
	}
}

func (r *Router) handlePlayback(dev, action string, topic string) {
	var err error
	switch action {
	case "play":
		err = r.rt.ResumeScene(dev)
	case "pause":
		err = r.rt.PauseScene(dev)
	case "stop":
		err = r.rt.StopScene(dev)
	default:
		err = &ValidationError{Device: dev, Reason: fmt.Sprintf("unknown playback action %q", action)}
	}
	if err != nil {
		r.fail(dev, err, topic)
	}
}

func (r *Router) storeOf() *store.Store {
	if r.rt == nil {
		return nil
	}
	return r.rt.Store()
}

// fail logs and publishes a structured command failure.
func (r *Router) fail(dev string, err error, topic string) {
	slog.Warn("command failed", "device", dev, "topic", topic, "err", err)
	if r.pub != nil {
		r.pub.PublishError(dev, err, map[string]any{"topic": topic})
	}
}

func stringField(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

func intField(payload map[string]any, key string) (int, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
