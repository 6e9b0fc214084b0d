// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalTier(t *testing.T) {
	st := New("")
	st.Set("k", 1)
	v, ok := st.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, st.Has("k"))
	st.Delete("k")
	assert.False(t, st.Has("k"))
}

func TestDeviceTier(t *testing.T) {
	st := New("")
	st.DeviceSet("10.0.0.1", KeyBrightness, 50)
	v, ok := st.DeviceGet("10.0.0.1", KeyBrightness)
	assert.True(t, ok)
	assert.Equal(t, 50, v)
	_, ok = st.DeviceGet("10.0.0.2", KeyBrightness)
	assert.False(t, ok)
	st.DeviceDelete("10.0.0.1", KeyBrightness)
	assert.False(t, st.DeviceHas("10.0.0.1", KeyBrightness))
}

func TestSceneBagLastWriteWins(t *testing.T) {
	st := New("")
	b := st.SceneBag("d", "clock")
	assert.Equal(t, "def", b.Get("k", "def"))
	b.Set("k", 1)
	b.Set("k", 2)
	assert.Equal(t, 2, b.Get("k", nil))
	b.Delete("k")
	assert.Equal(t, "def", b.Get("k", "def"))
}

func TestSceneBagStableReference(t *testing.T) {
	st := New("")
	b1 := st.SceneBag("d", "clock")
	b1.Set("phase", 3)
	b2 := st.SceneBag("d", "clock")
	assert.Same(t, b1, b2)

	// clearing empties the bag but keeps existing references valid
	st.ClearScene("d", "clock")
	assert.Equal(t, 0, b1.Len())
	b1.Set("phase", 4)
	assert.Equal(t, 4, st.SceneBag("d", "clock").Get("phase", nil))
}

func TestSubscribe(t *testing.T) {
	st := New("")
	var got []Change
	st.Subscribe(func(ch Change) { got = append(got, ch) })
	st.DeviceSet("d", KeyPlayState, "playing")
	require.Len(t, got, 1)
	assert.Equal(t, ScopeDevice, got[0].Scope)
	assert.Equal(t, "d", got[0].Device)
	assert.Equal(t, KeyPlayState, got[0].Key)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	st := New("")
	st.Set("g", "v")
	st.DeviceSet("d", KeyBrightness, 10)
	st.SceneBag("d", "s").Set("k", "x")
	sn := st.Snapshot()

	st.Set("g", "changed")
	st.DeviceSet("d", KeyBrightness, 99)
	st.SceneBag("d", "s").Set("k", "changed")

	assert.Equal(t, "v", sn.Global["g"])
	assert.Equal(t, 10, sn.Devices["d"][KeyBrightness])
	assert.Equal(t, "x", sn.Scenes["d"]["s"]["k"])
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime-state.json")
	st := New(path)
	st.DeviceSet("10.0.0.1", KeyActiveScene, "clock")
	st.DeviceSet("10.0.0.1", KeyPlayState, "playing")
	st.DeviceSet("10.0.0.1", KeyBrightness, 50)
	st.DeviceSet("10.0.0.1", KeyDisplayOn, true)
	require.NoError(t, st.Flush())

	// simulate restart
	st2 := New(path)
	require.NoError(t, st2.Restore())
	v, _ := st2.DeviceGet("10.0.0.1", KeyActiveScene)
	assert.Equal(t, "clock", v)
	v, _ = st2.DeviceGet("10.0.0.1", KeyPlayState)
	assert.Equal(t, "playing", v)
	v, _ = st2.DeviceGet("10.0.0.1", KeyBrightness)
	assert.Equal(t, 50, v)
	v, _ = st2.DeviceGet("10.0.0.1", KeyDisplayOn)
	assert.Equal(t, true, v)
}

func TestPersistOnlyWhitelistedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime-state.json")
	st := New(path)
	st.DeviceSet("d", KeyActiveScene, "fill")
	st.DeviceSet("d", "generationId", 42)
	st.DeviceSet("d", "status", "running")
	require.NoError(t, st.Flush())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "generationId")
	assert.NotContains(t, string(b), "status")
	assert.Contains(t, string(b), `"version": 1`)
}

func TestDebouncedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime-state.json")
	st := New(path)
	st.SetDebounce(20 * time.Millisecond)
	st.DeviceSet("d", KeyBrightness, 33)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "write should be debounced")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestRestoreMissingFileIsNotAnError(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope.json"))
	assert.NoError(t, st.Restore())
}

func TestResolveStatePathFallsBack(t *testing.T) {
	// unwritable preferred path falls back to a writable candidate
	got := ResolveStatePath("/proc/definitely/not/writable/state.json")
	assert.NotEmpty(t, got)
	assert.NotContains(t, got, "/proc/")
}

func TestPauseIdempotentShape(t *testing.T) {
	st := New("")
	st.DeviceSet("d", KeyPlayState, "paused")
	st.DeviceSet("d", KeyPlayState, "paused")
	v, _ := st.DeviceGet("d", KeyPlayState)
	assert.Equal(t, "paused", v)
}
