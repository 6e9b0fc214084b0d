// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store implements the single source of truth for runtime
// state: global values, per-device runtime state, and per-device
// per-scene state bags, with debounced write-through persistence of a
// whitelisted subset to a JSON file.
package store

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"
)

// Per-device keys. Only the keys listed in [persistedKeys] survive a
// daemon restart; everything else is transient.
const (
	KeyActiveScene  = "activeScene"
	KeyPlayState    = "playState"
	KeyBrightness   = "brightness"
	KeyDisplayOn    = "displayOn"
	KeyLoggingLevel = "loggingLevel"
)

// Scope identifies which tier of the store a [Change] belongs to.
type Scope int32

const (
	ScopeGlobal Scope = iota
	ScopeDevice
	ScopeScene
)

// Change describes one mutation, delivered to subscribers.
type Change struct {
	Scope  Scope
	Device string
	Scene  string
	Key    string
	Value  any
}

// Store is the three-tier state store. All methods are safe for
// concurrent use; writers are serialized by the internal lock.
type Store struct {
	mu      sync.RWMutex
	global  map[string]any
	devices map[string]map[string]any
	bags    map[string]map[string]*Bag
	subs    []func(Change)

	startTime     time.Time
	lastHeartbeat time.Time

	persist persister
}

// New returns a store persisting to the given file path with the
// default 10 s debounce. The path may be empty to disable persistence.
func New(path string) *Store {
	st := &Store{
		global:    map[string]any{},
		devices:   map[string]map[string]any{},
		bags:      map[string]map[string]*Bag{},
		startTime: time.Now(),
	}
	st.persist.init(st, path, defaultDebounce)
	return st
}

// SetDebounce changes the persistence debounce interval.
func (st *Store) SetDebounce(d time.Duration) {
	st.persist.setDebounce(d)
}

// Path returns the resolved persistence file path, or "" if disabled.
func (st *Store) Path() string {
	return st.persist.path
}

// Get returns the global value for the given key.
func (st *Store) Get(key string) (any, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	v, ok := st.global[key]
	return v, ok
}

// Set sets the global value for the given key.
func (st *Store) Set(key string, value any) {
	st.mu.Lock()
	st.global[key] = value
	st.mu.Unlock()
	st.notify(Change{Scope: ScopeGlobal, Key: key, Value: value})
}

// Has reports whether the global key is present.
func (st *Store) Has(key string) bool {
	_, ok := st.Get(key)
	return ok
}

// Delete removes the global key.
func (st *Store) Delete(key string) {
	st.mu.Lock()
	delete(st.global, key)
	st.mu.Unlock()
	st.notify(Change{Scope: ScopeGlobal, Key: key})
}

// DeviceGet returns the per-device value for the given key.
func (st *Store) DeviceGet(device, key string) (any, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	dm, ok := st.devices[device]
	if !ok {
		return nil, false
	}
	v, ok := dm[key]
	return v, ok
}

// DeviceSet sets the per-device value for the given key, scheduling a
// debounced persistence write if the key is persisted.
func (st *Store) DeviceSet(device, key string, value any) {
	st.mu.Lock()
	dm, ok := st.devices[device]
	if !ok {
		dm = map[string]any{}
		st.devices[device] = dm
	}
	dm[key] = value
	st.mu.Unlock()
	st.notify(Change{Scope: ScopeDevice, Device: device, Key: key, Value: value})
	if isPersistedKey(key) {
		st.persist.markDirty()
	}
}

// DeviceHas reports whether the per-device key is present.
func (st *Store) DeviceHas(device, key string) bool {
	_, ok := st.DeviceGet(device, key)
	return ok
}

// DeviceDelete removes the per-device key.
func (st *Store) DeviceDelete(device, key string) {
	st.mu.Lock()
	if dm, ok := st.devices[device]; ok {
		delete(dm, key)
	}
	st.mu.Unlock()
	st.notify(Change{Scope: ScopeDevice, Device: device, Key: key})
	if isPersistedKey(key) {
		st.persist.markDirty()
	}
}

// Devices returns the ids of all devices with any stored state.
func (st *Store) Devices() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.devices))
	for id := range st.devices {
		ids = append(ids, id)
	}
	return ids
}

// SceneBag returns the state bag for the given device and scene,
// creating it if needed. The returned pointer is stable: the same bag
// is returned for the lifetime of the store, so scenes can rely on
// reference identity across ticks.
func (st *Store) SceneBag(device, scene string) *Bag {
	st.mu.Lock()
	defer st.mu.Unlock()
	dm, ok := st.bags[device]
	if !ok {
		dm = map[string]*Bag{}
		st.bags[device] = dm
	}
	b, ok := dm[scene]
	if !ok {
		b = newBag(st, device, scene)
		dm[scene] = b
	}
	return b
}

// ClearScene drops all values from the given scene's bag. The bag
// itself survives so outstanding references stay valid.
func (st *Store) ClearScene(device, scene string) {
	st.mu.RLock()
	b := st.bags[device][scene]
	st.mu.RUnlock()
	if b != nil {
		b.Clear()
	}
	st.notify(Change{Scope: ScopeScene, Device: device, Scene: scene})
}

// Subscribe registers a callback invoked on every change.
// Callbacks run synchronously on the mutating goroutine and must not
// call back into the store.
func (st *Store) Subscribe(fn func(Change)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.subs = append(st.subs, fn)
}

func (st *Store) notify(ch Change) {
	st.mu.RLock()
	subs := st.subs
	st.mu.RUnlock()
	for _, fn := range subs {
		fn(ch)
	}
}

// Snapshot is a deep read-only copy of the full store contents.
type Snapshot struct {
	Global  map[string]any
	Devices map[string]map[string]any
	Scenes  map[string]map[string]map[string]any
}

// Snapshot returns a deep copy of the store, safe to read without
// further locking.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sn := Snapshot{
		Scenes: map[string]map[string]map[string]any{},
	}
	copier.CopyWithOption(&sn.Global, st.global, copier.Option{DeepCopy: true})
	copier.CopyWithOption(&sn.Devices, st.devices, copier.Option{DeepCopy: true})
	for dev, scenes := range st.bags {
		sn.Scenes[dev] = map[string]map[string]any{}
		for name, bag := range scenes {
			sn.Scenes[dev][name] = bag.Map()
		}
	}
	return sn
}

// Heartbeat records daemon liveness and schedules a debounced write.
func (st *Store) Heartbeat() {
	st.mu.Lock()
	st.lastHeartbeat = time.Now()
	st.mu.Unlock()
	st.persist.markDirty()
}

// StartTime returns the daemon start time recorded at store creation.
func (st *Store) StartTime() time.Time {
	return st.startTime
}

// Flush forces an immediate persistence write of any dirty state.
func (st *Store) Flush() error {
	return st.persist.flush()
}

// Close flushes and stops the persistence timer.
func (st *Store) Close() error {
	return st.persist.close()
}
