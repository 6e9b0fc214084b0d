// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/store"
)

func nopRender(c *Context) (time.Duration, error) { return Done, nil }

func TestModuleValidate(t *testing.T) {
	assert.Error(t, (&Module{Render: nopRender}).Validate(), "name is required")
	assert.Error(t, (&Module{Name: "x"}).Validate(), "render is required")
	assert.NoError(t, (&Module{Name: "x", Render: nopRender}).Validate())
}

func TestDeriveMeta(t *testing.T) {
	tests := []struct {
		path  string
		dev   bool
		tags  []string
		types []string
	}{
		{path: "clock.go"},
		{path: "dev/probe.go", dev: true},
		{path: "examples/gradient.go", tags: []string{"examples"}},
		{path: "pixoo64/media.go", types: []string{"pixoo64"}},
		{path: "pixoo64/dev/raw.go", dev: true, types: []string{"pixoo64"}},
	}
	for _, tt := range tests {
		m := &Module{Name: "x", Render: nopRender, Path: tt.path}
		m.deriveMeta()
		assert.Equal(t, tt.dev, m.Dev, tt.path)
		assert.Equal(t, tt.tags, m.Tags, tt.path)
		assert.Equal(t, tt.types, m.DeviceTypes, tt.path)
	}
}

func TestSupportsDevice(t *testing.T) {
	open := &Module{Name: "a", Render: nopRender}
	assert.True(t, open.SupportsDevice("pixoo64"))
	assert.True(t, open.SupportsDevice(""))

	scoped := &Module{Name: "b", Render: nopRender, DeviceTypes: []string{"pixoo64"}}
	assert.True(t, scoped.SupportsDevice("pixoo64"))
	assert.False(t, scoped.SupportsDevice("pixoo16"))
}

func TestRegistryAddRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(&Module{Name: "clock", Render: nopRender}))
	assert.Error(t, reg.Add(&Module{Name: "clock", Render: nopRender}))
	assert.Equal(t, 1, reg.Len())
}

func TestDiscoverSkipsInvalidAndKeepsRest(t *testing.T) {
	reg := NewRegistry()
	reg.Discover(
		&Module{Name: "", Render: nopRender, Path: "broken.go"},
		&Module{Name: "good", Render: nopRender},
	)
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Lookup("good")
	assert.True(t, ok)
}

func TestDiscoverInstallsFallbacksWhenEmpty(t *testing.T) {
	reg := NewRegistry()
	reg.Discover(&Module{Name: "", Render: nopRender})

	require.GreaterOrEqual(t, reg.Len(), 2)
	for _, name := range []string{"empty", "fill"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestListOrderIsStable(t *testing.T) {
	mods := []*Module{
		{Name: "clock", Render: nopRender, Path: "clock.go"},
		{Name: "gradient", Render: nopRender, Path: "examples/gradient.go"},
		{Name: "media", Render: nopRender, Path: "pixoo64/media.go"},
	}
	a := NewRegistry()
	a.Discover(mods[0], mods[1], mods[2])
	b := NewRegistry()
	b.Discover(mods[2], mods[0], mods[1])

	assert.Equal(t, a.Names(), b.Names(), "listing order must not depend on registration order")
}

func TestListIsSafeForConcurrentReaders(t *testing.T) {
	reg := NewRegistry()
	reg.Discover(
		&Module{Name: "clock", Render: nopRender, Path: "clock.go"},
		&Module{Name: "fill", Render: nopRender, Path: "fill.go"},
		&Module{Name: "gradient", Render: nopRender, Path: "examples/gradient.go"},
	)

	want := reg.Names()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, want, reg.Names())
			}
		}()
	}
	wg.Wait()
}

func TestContextPushHonorsFence(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "state.json"))
	t.Cleanup(func() { st.Close() })
	dev := device.New("192.168.1.50", device.KindMock, st)

	c := NewContext(dev, st.SceneBag("192.168.1.50", "x"), nil)
	require.NoError(t, c.Push())
	assert.Equal(t, uint64(1), dev.Metrics().Pushes)

	c.WithFence(func() bool { return false })
	require.NoError(t, c.Push())
	m := dev.Metrics()
	assert.Equal(t, uint64(1), m.Pushes, "fenced push must not reach the driver")
	assert.Equal(t, uint64(1), m.Skipped)
}

func TestPayloadAccessors(t *testing.T) {
	c := NewContext(nil, nil, map[string]any{
		"s": "text",
		"f": 2.5,
		"i": float64(7), // JSON numbers arrive as float64
		"n": 3,
		"b": true,
	})
	assert.Equal(t, "text", c.PayloadString("s", ""))
	assert.Equal(t, "dflt", c.PayloadString("missing", "dflt"))
	assert.Equal(t, 2.5, c.PayloadFloat("f", 0))
	assert.Equal(t, 7, c.PayloadInt("i", 0))
	assert.Equal(t, 3, c.PayloadInt("n", 0))
	assert.True(t, c.PayloadBool("b", false))
	assert.False(t, c.PayloadBool("missing", false))
}
