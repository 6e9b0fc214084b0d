// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenes

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/scene"
	"github.com/markus-barta/pidicon/store"
)

func newTestContext(t *testing.T, name string, payload map[string]any) (*scene.Context, *device.Device) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "state.json"))
	t.Cleanup(func() { st.Close() })
	dev := device.New("192.168.1.50", device.KindMock, st)
	return scene.NewContext(dev, st.SceneBag("192.168.1.50", name), payload), dev
}

func TestCatalogRegisters(t *testing.T) {
	reg := scene.NewRegistry()
	reg.Discover(All()...)

	for _, name := range []string{"empty", "fill", "text", "clock", "gradient", "media", "probe"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}

	probe, _ := reg.Lookup("probe")
	assert.True(t, probe.Dev, "probe is a development scene")
	gradient, _ := reg.Lookup("gradient")
	assert.Contains(t, gradient.Tags, "examples")
	media, _ := reg.Lookup("media")
	assert.Equal(t, []string{"pixoo64"}, media.DeviceTypes)
}

func TestFillScene(t *testing.T) {
	c, dev := newTestContext(t, "fill", map[string]any{"r": 255, "g": 0, "b": 64})
	mod := fillScene()

	delay, err := mod.Render(c)
	require.NoError(t, err)
	assert.Equal(t, scene.Done, delay)
	assert.False(t, mod.WantsLoop)

	frame := dev.Driver().(interface{ LastFrame() []byte }).LastFrame()
	require.NotNil(t, frame)
	assert.Equal(t, byte(255), frame[0])
	assert.Equal(t, byte(0), frame[1])
	assert.Equal(t, byte(64), frame[2])
}

func TestClockSceneLoops(t *testing.T) {
	c, dev := newTestContext(t, "clock", map[string]any{"seconds": false})
	mod := clockScene()
	require.True(t, mod.WantsLoop)
	require.NoError(t, mod.Init(c))

	delay, err := mod.Render(c)
	require.NoError(t, err)
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, time.Second+10*time.Millisecond)
	assert.Equal(t, uint64(1), dev.Metrics().Pushes)
}

func TestGradientSceneAdvancesPhase(t *testing.T) {
	c, dev := newTestContext(t, "gradient", map[string]any{"intervalMs": 25})
	mod := gradientScene()
	require.NoError(t, mod.Init(c))

	delay, err := mod.Render(c)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, delay)
	first := dev.Driver().(interface{ LastFrame() []byte }).LastFrame()

	_, err = mod.Render(c)
	require.NoError(t, err)
	second := dev.Driver().(interface{ LastFrame() []byte }).LastFrame()

	assert.Equal(t, 2, c.State.Get("phase", 0))
	assert.NotEqual(t, first, second, "the gradient must scroll between ticks")
}

func TestMediaSceneRequiresPath(t *testing.T) {
	c, _ := newTestContext(t, "media", nil)
	_, err := mediaScene().Render(c)
	assert.ErrorContains(t, err, "path")
}

func TestTextSceneRendersPayload(t *testing.T) {
	c, dev := newTestContext(t, "text", map[string]any{
		"text": "HI", "x": 32, "y": 30, "align": "center",
	})
	_, err := textScene().Render(c)
	require.NoError(t, err)

	frame := dev.Driver().(interface{ LastFrame() []byte }).LastFrame()
	require.NotNil(t, frame)
	lit := 0
	for i := 0; i < len(frame); i += 3 {
		if frame[i] != 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 0)
}

func TestProbeSceneDrawsBorder(t *testing.T) {
	c, dev := newTestContext(t, "probe", nil)
	_, err := probeScene().Render(c)
	require.NoError(t, err)

	frame := dev.Driver().(interface{ LastFrame() []byte }).LastFrame()
	require.NotNil(t, frame)
	// all four corners of the border are lit white
	for _, idx := range []int{0, 63, 63 * 64, 64*64 - 1} {
		assert.Equal(t, byte(255), frame[idx*3], "corner %d", idx)
	}
}
