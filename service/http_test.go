// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/runtime"
	"github.com/markus-barta/pidicon/scene"
	"github.com/markus-barta/pidicon/store"
)

const testHost = "192.168.1.50"

func newTestService(t *testing.T) (*Service, *runtime.Runtime, *store.Store) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "state.json"))
	t.Cleanup(func() { st.Close() })
	reg := scene.NewRegistry()
	reg.Discover()
	rt := runtime.New(reg, st, nil)
	t.Cleanup(rt.Shutdown)
	rt.AddDevice(device.New(testHost, device.KindMock, st))
	return New(rt), rt, st
}

func TestDevicesEndpoint(t *testing.T) {
	s, rt, _ := newTestService(t)
	require.NoError(t, rt.SwitchScene(testHost, "fill", map[string]any{"r": 9}))

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/devices")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var devices []DeviceInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&devices))
	require.Len(t, devices, 1)
	assert.Equal(t, testHost, devices[0].Host)
	assert.Equal(t, "mock", devices[0].Driver)
	assert.Equal(t, "fill", devices[0].Scene)
	assert.Equal(t, "running", devices[0].Status)
}

func TestScenesEndpoint(t *testing.T) {
	s, _, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/scenes")
	require.NoError(t, err)
	defer resp.Body.Close()

	var scenes []SceneInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scenes))
	names := make([]string, 0, len(scenes))
	for _, sc := range scenes {
		names = append(names, sc.Name)
	}
	assert.Contains(t, names, "empty")
	assert.Contains(t, names, "fill")
}

func TestStateEndpoint(t *testing.T) {
	s, _, st := newTestService(t)
	st.DeviceSet(testHost, store.KeyBrightness, 55)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var snap struct {
		Devices map[string]map[string]any `json:"Devices"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.EqualValues(t, 55, snap.Devices[testHost]["brightness"])
}

func TestWebSocketStreamsChanges(t *testing.T) {
	s, _, st := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// the server goroutine registers with the hub right after the
	// handshake; give it a moment before mutating the store
	time.Sleep(100 * time.Millisecond)
	st.DeviceSet(testHost, store.KeyBrightness, 80)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev stateEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "device", ev.Scope)
	assert.Equal(t, testHost, ev.Device)
	assert.Equal(t, store.KeyBrightness, ev.Key)
	assert.EqualValues(t, 80, ev.Value)
}

func TestMetricsSnapshot(t *testing.T) {
	s, rt, _ := newTestService(t)
	require.NoError(t, rt.SwitchScene(testHost, "fill", nil))

	m, ok := s.Metrics(testHost)
	require.True(t, ok)
	assert.Equal(t, "fill", m["scene"])
	assert.EqualValues(t, 1, m["pushes"])

	_, ok = s.Metrics("10.0.0.1")
	assert.False(t, ok)
}
