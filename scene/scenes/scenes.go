// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scenes is the built-in scene catalog. Every module here is
// registered at startup; the registry falls back to a minimal set only
// if this catalog is empty.
package scenes

import "github.com/markus-barta/pidicon/scene"

// All returns the built-in scene modules for registry discovery.
func All() []*scene.Module {
	return []*scene.Module{
		emptyScene(),
		fillScene(),
		textScene(),
		clockScene(),
		gradientScene(),
		mediaScene(),
		probeScene(),
	}
}
