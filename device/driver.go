// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device implements the display device layer: the swappable
// driver backends that turn a finished pixel buffer into a side
// effect, and the [Device] handle that owns one driver plus the
// per-device metrics.
package device

import (
	"context"
	"fmt"

	"github.com/markus-barta/pidicon/canvas"
)

// Kind selects a driver backend.
type Kind int32

const (
	// KindMock records frames in memory and logs a summary on push.
	KindMock Kind = iota

	// KindReal pushes frames to the physical device over HTTP.
	KindReal
)

// String returns the lowercase name of the driver kind.
func (k Kind) String() string {
	if k == KindReal {
		return "real"
	}
	return "mock"
}

// KindFromString converts a driver kind name to a [Kind].
func KindFromString(s string) (Kind, error) {
	switch s {
	case "real":
		return KindReal, nil
	case "mock", "":
		return KindMock, nil
	}
	return KindMock, fmt.Errorf("unknown driver kind %q", s)
}

// Driver is the polymorphic sink for finished frames, plus the
// out-of-band device commands. Implementations own their canvas.
type Driver interface {
	// Kind identifies the backend variant.
	Kind() Kind

	// Canvas returns the pixel buffer this driver pushes from.
	Canvas() *canvas.Canvas

	// Push ships the current canvas contents to the device.
	Push(ctx context.Context) error

	// SetBrightness sets panel brightness, 0–100.
	SetBrightness(ctx context.Context, percent int) error

	// SetDisplayOn switches the panel on or off.
	SetDisplayOn(ctx context.Context, on bool) error

	// SetChannel selects a device UI channel (used by soft reset).
	SetChannel(ctx context.Context, index int) error
}

// newDriver constructs a fresh driver of the given kind for the host.
func newDriver(kind Kind, host string) Driver {
	if kind == KindReal {
		return newRealDriver(host)
	}
	return newMockDriver(host)
}
