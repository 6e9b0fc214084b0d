// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package service

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/markus-barta/pidicon/store"
)

// wsSendBuffer bounds the per-connection event queue; a slow client
// loses events rather than stalling the store.
const wsSendBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the admin surface is bound to localhost or a trusted network
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateEvent is one store change delivered over the WebSocket stream.
type stateEvent struct {
	Scope  string `json:"scope"`
	Device string `json:"device,omitempty"`
	Scene  string `json:"scene,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  any    `json:"value,omitempty"`
}

// hub fans store changes out to connected WebSocket clients.
type hub struct {
	mu    sync.Mutex
	conns map[chan stateEvent]struct{}
}

func newHub() *hub {
	return &hub{conns: map[chan stateEvent]struct{}{}}
}

func (h *hub) add() chan stateEvent {
	ch := make(chan stateEvent, wsSendBuffer)
	h.mu.Lock()
	h.conns[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) remove(ch chan stateEvent) {
	h.mu.Lock()
	delete(h.conns, ch)
	h.mu.Unlock()
}

// broadcast delivers without blocking; full client queues drop.
func (h *hub) broadcast(ev stateEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.conns {
		select {
		case ch <- ev:
		default:
		}
	}
}

func scopeName(sc store.Scope) string {
	switch sc {
	case store.ScopeDevice:
		return "device"
	case store.ScopeScene:
		return "scene"
	}
	return "global"
}

// Handler returns the admin HTTP handler: read-only JSON endpoints
// plus a WebSocket stream of store changes at /api/ws.
func (s *Service) Handler() http.Handler {
	h := newHub()
	s.rt.Store().Subscribe(func(ch store.Change) {
		h.broadcast(stateEvent{
			Scope:  scopeName(ch.Scope),
			Device: ch.Device,
			Scene:  ch.Scene,
			Key:    ch.Key,
			Value:  ch.Value,
		})
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/devices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Devices())
	})
	mux.HandleFunc("GET /api/scenes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.Scenes())
	})
	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.State())
	})
	mux.HandleFunc("GET /api/ws", func(w http.ResponseWriter, r *http.Request) {
		s.serveWS(h, w, r)
	})
	return mux
}

func (s *Service) serveWS(h *hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	ch := h.add()
	defer func() {
		h.remove(ch)
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		// drain client frames so pings and close frames are handled
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev := <-ch:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("admin response encode failed", "err", err)
	}
}
