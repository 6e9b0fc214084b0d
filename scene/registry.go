// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry maps scene names to modules. It is populated by a
// discovery pass at startup and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Module
	modules []*Module
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Module{}}
}

// Add validates and registers a module, deriving its path metadata.
// Duplicate names are rejected.
func (r *Registry) Add(m *Module) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.deriveMeta()
	m.hashOrder()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[m.Name]; exists {
		return fmt.Errorf("scene %q already registered", m.Name)
	}
	r.byName[m.Name] = m
	r.modules = append(r.modules, m)
	return nil
}

// Discover registers the given modules, logging and skipping any that
// fail validation rather than aborting startup. If the registry ends
// up empty, the fallback scenes are installed so the daemon is always
// in a renderable state.
func (r *Registry) Discover(mods ...*Module) {
	for _, m := range mods {
		if err := r.Add(m); err != nil {
			slog.Warn("rejecting scene module", "scene", m.Name, "path", m.Path, "err", err)
		}
	}
	if r.Len() == 0 {
		slog.Warn("no scenes discovered, installing fallback registry")
		for _, m := range fallbackModules() {
			if err := r.Add(m); err != nil {
				slog.Error("fallback scene failed to register", "scene", m.Name, "err", err)
			}
		}
	}
}

// Lookup returns the module with the given name.
func (r *Registry) Lookup(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	return m, ok
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modules)
}

// List returns all modules sorted by their stable order hash, with
// name as tie-breaker, so listings are reproducible across runs.
func (r *Registry) List() []*Module {
	r.mu.RLock()
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order() != out[j].Order() {
			return out[i].Order() < out[j].Order()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns the sorted scene names.
func (r *Registry) Names() []string {
	mods := r.List()
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.Name
	}
	return names
}
