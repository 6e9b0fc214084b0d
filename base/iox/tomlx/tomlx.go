// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tomlx provides TOML open and save helpers.
package tomlx

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Open reads the given object from the given TOML file.
func Open(v any, filename string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, v)
}

// Save writes the given object to the given TOML file.
func Save(v any, filename string) error {
	b, err := toml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}
