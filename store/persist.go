// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/markus-barta/pidicon/base/fsx"
	"github.com/markus-barta/pidicon/base/iox/jsonx"
)

const (
	defaultDebounce = 10 * time.Second
	stateVersion    = 1
)

// persistedKeys is the whitelist of per-device keys that survive a
// restart. Transient fields (status, generations, metrics, loop
// handles) are never written.
var persistedKeys = map[string]bool{
	KeyActiveScene:  true,
	KeyPlayState:    true,
	KeyBrightness:   true,
	KeyDisplayOn:    true,
	KeyLoggingLevel: true,
}

func isPersistedKey(key string) bool {
	return persistedKeys[key]
}

// stateFile is the on-disk document, format version 1.
type stateFile struct {
	Version   int                    `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Daemon    daemonInfo             `json:"daemon"`
	Devices   map[string]deviceState `json:"devices"`
}

type daemonInfo struct {
	StartTime     int64 `json:"startTime"`
	LastHeartbeat int64 `json:"lastHeartbeat"`
}

type deviceState struct {
	ActiveScene  *string `json:"activeScene"`
	PlayState    string  `json:"playState"`
	Brightness   int     `json:"brightness"`
	DisplayOn    bool    `json:"displayOn"`
	LoggingLevel *string `json:"loggingLevel"`
}

// ResolveStatePath probes the given candidate paths in order and
// returns the first whose directory is writable, falling back to the
// user-home .pidicon directory and finally the OS temp dir. It
// returns "" if nothing is writable, which disables persistence.
func ResolveStatePath(preferred ...string) string {
	candidates := make([]string, 0, len(preferred)+2)
	candidates = append(candidates, preferred...)
	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".pidicon", "runtime-state.json"))
	}
	candidates = append(candidates, filepath.Join(os.TempDir(), "pidicon-runtime-state.json"))

	first := true
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if fsx.DirWritable(filepath.Dir(cand)) {
			if !first {
				slog.Warn("state file falling back", "path", cand)
			}
			return cand
		}
		slog.Warn("state path not writable", "path", cand)
		first = false
	}
	return ""
}

type persister struct {
	st       *Store
	path     string
	mu       sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	dirty    bool
	closed   bool
}

func (p *persister) init(st *Store, path string, debounce time.Duration) {
	p.st = st
	p.path = path
	p.debounce = debounce
}

func (p *persister) setDebounce(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.debounce = d
}

// markDirty schedules a write after the debounce interval of
// quiescence, restarting the countdown on every call.
func (p *persister) markDirty() {
	if p.path == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.dirty = true
	if p.timer == nil {
		p.timer = time.AfterFunc(p.debounce, p.debounced)
	} else {
		p.timer.Reset(p.debounce)
	}
}

func (p *persister) debounced() {
	if err := p.flush(); err != nil {
		// stays dirty; retried on the next debounce cycle
		slog.Warn("state write failed", "path", p.path, "err", err)
	}
}

// flush writes the persisted subset immediately and atomically.
func (p *persister) flush() error {
	if p.path == "" {
		return nil
	}
	doc := p.st.buildStateFile()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := jsonx.SaveAtomic(doc, p.path); err != nil {
		return err
	}
	p.dirty = false
	return nil
}

func (p *persister) close() error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.closed = true
	p.mu.Unlock()
	return p.flush()
}

func (st *Store) buildStateFile() *stateFile {
	st.mu.RLock()
	defer st.mu.RUnlock()
	doc := &stateFile{
		Version:   stateVersion,
		Timestamp: time.Now().Format(time.RFC3339),
		Daemon: daemonInfo{
			StartTime:     st.startTime.UnixMilli(),
			LastHeartbeat: st.lastHeartbeat.UnixMilli(),
		},
		Devices: map[string]deviceState{},
	}
	for id, dm := range st.devices {
		ds := deviceState{PlayState: "stopped", Brightness: 100, DisplayOn: true}
		if v, ok := dm[KeyActiveScene].(string); ok && v != "" {
			s := v
			ds.ActiveScene = &s
		}
		if v, ok := dm[KeyPlayState].(string); ok {
			ds.PlayState = v
		}
		if v, ok := asInt(dm[KeyBrightness]); ok {
			ds.Brightness = v
		}
		if v, ok := dm[KeyDisplayOn].(bool); ok {
			ds.DisplayOn = v
		}
		if v, ok := dm[KeyLoggingLevel].(string); ok && v != "" {
			s := v
			ds.LoggingLevel = &s
		}
		doc.Devices[id] = ds
	}
	return doc
}

// Restore loads the persisted subset from the state file. A missing
// file is normal and not an error.
func (st *Store) Restore() error {
	if st.persist.path == "" {
		return nil
	}
	if ok, err := fsx.FileExists(st.persist.path); err != nil || !ok {
		return err
	}
	var doc stateFile
	if err := jsonx.Open(&doc, st.persist.path); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, ds := range doc.Devices {
		dm, ok := st.devices[id]
		if !ok {
			dm = map[string]any{}
			st.devices[id] = dm
		}
		if ds.ActiveScene != nil {
			dm[KeyActiveScene] = *ds.ActiveScene
		}
		if ds.PlayState != "" {
			dm[KeyPlayState] = ds.PlayState
		}
		dm[KeyBrightness] = ds.Brightness
		dm[KeyDisplayOn] = ds.DisplayOn
		if ds.LoggingLevel != nil {
			dm[KeyLoggingLevel] = *ds.LoggingLevel
		}
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
