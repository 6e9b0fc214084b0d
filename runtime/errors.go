// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import "fmt"

// NotFoundError reports a scene name missing from the registry or a
// device id that is not configured. It rolls back any in-progress
// transition on the caller side.
type NotFoundError struct {
	Device string
	Scene  string
}

func (e *NotFoundError) Error() string {
	if e.Scene != "" {
		return fmt.Sprintf("device %s: scene %q not found", e.Device, e.Scene)
	}
	return fmt.Sprintf("device %s not configured", e.Device)
}

// OpError carries the structured context attached to every error that
// crosses the runtime boundary.
type OpError struct {
	Op         string
	Device     string
	Scene      string
	Generation uint64
	Err        error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s/%s gen %d: %v", e.Op, e.Device, e.Scene, e.Generation, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
