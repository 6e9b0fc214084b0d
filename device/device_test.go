// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markus-barta/pidicon/canvas"
	"github.com/markus-barta/pidicon/store"
)

func TestMockDriverRecordsFrames(t *testing.T) {
	d := New("10.0.0.1", KindMock, nil)
	d.DrawPixel(1, 2, canvas.Green)
	require.NoError(t, d.Push(context.Background()))

	mock := d.Driver().(*mockDriver)
	assert.Equal(t, 1, mock.Pushes())
	frame := mock.LastFrame()
	i := (2*canvas.Width + 1) * 3
	assert.Equal(t, []byte{0, 255, 0}, frame[i:i+3])
}

func TestPushRecordsMetrics(t *testing.T) {
	d := New("10.0.0.1", KindMock, nil)
	require.NoError(t, d.Push(context.Background()))
	require.NoError(t, d.Push(context.Background()))
	d.RecordSkip()

	m := d.Metrics()
	assert.Equal(t, uint64(2), m.Pushes)
	assert.Equal(t, uint64(1), m.Skipped)
	assert.Equal(t, uint64(0), m.Errors)
	assert.False(t, m.LastSeen.IsZero())
}

func TestOpsRecordedAndResetOnPush(t *testing.T) {
	d := New("d", KindMock, nil)
	d.Clear()
	d.DrawPixel(3, 4, canvas.Red)
	d.DrawText("HI", 0, 0, canvas.White, canvas.AlignLeft)
	ops := d.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, "clear", ops[0])

	require.NoError(t, d.Push(context.Background()))
	assert.Empty(t, d.Ops())
}

func TestSwitchDriverPreservesNothingButRebuilds(t *testing.T) {
	d := New("d", KindMock, nil)
	first := d.Driver()
	assert.False(t, d.SwitchDriver(KindMock), "same kind is a no-op")
	assert.Same(t, first, d.Driver())

	assert.True(t, d.SwitchDriver(KindReal))
	assert.Equal(t, KindReal, d.DriverKind())
	assert.True(t, d.SwitchDriver(KindMock))
	assert.NotSame(t, first, d.Driver(), "fresh instance after swap")
}

func TestBrightnessClampedAndStored(t *testing.T) {
	st := store.New("")
	d := New("d", KindMock, st)
	require.NoError(t, d.SetBrightness(context.Background(), 150))
	v, ok := st.DeviceGet("d", store.KeyBrightness)
	require.True(t, ok)
	assert.Equal(t, 100, v)

	require.NoError(t, d.SetDisplayOn(context.Background(), false))
	v, _ = st.DeviceGet("d", store.KeyDisplayOn)
	assert.Equal(t, false, v)
}

func TestKindFromString(t *testing.T) {
	k, err := KindFromString("real")
	require.NoError(t, err)
	assert.Equal(t, KindReal, k)
	k, err = KindFromString("mock")
	require.NoError(t, err)
	assert.Equal(t, KindMock, k)
	_, err = KindFromString("bogus")
	assert.Error(t, err)
}
