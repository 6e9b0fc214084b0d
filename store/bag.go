// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import "sync"

// Bag is the per-device per-scene key-value store that scene code
// uses for cross-tick memory. Values are opaque to the runtime.
// All methods are safe for concurrent use.
type Bag struct {
	mu     sync.RWMutex
	m      map[string]any
	st     *Store
	device string
	scene  string
}

func newBag(st *Store, device, scene string) *Bag {
	return &Bag{m: map[string]any{}, st: st, device: device, scene: scene}
}

// Get returns the value for the given key, or def if not present.
func (b *Bag) Get(key string, def any) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.m[key]; ok {
		return v
	}
	return def
}

// Has reports whether the key is present.
func (b *Bag) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.m[key]
	return ok
}

// Set sets the value for the given key.
func (b *Bag) Set(key string, value any) {
	b.mu.Lock()
	b.m[key] = value
	b.mu.Unlock()
}

// Delete removes the given key.
func (b *Bag) Delete(key string) {
	b.mu.Lock()
	delete(b.m, key)
	b.mu.Unlock()
}

// Merge sets all entries from the given map.
func (b *Bag) Merge(values map[string]any) {
	b.mu.Lock()
	for k, v := range values {
		b.m[k] = v
	}
	b.mu.Unlock()
}

// Clear removes all entries, keeping the bag itself valid.
func (b *Bag) Clear() {
	b.mu.Lock()
	clear(b.m)
	b.mu.Unlock()
}

// Len returns the number of entries.
func (b *Bag) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.m)
}

// Map returns a shallow copy of the contents.
func (b *Bag) Map() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.m))
	for k, v := range b.m {
		out[k] = v
	}
	return out
}
