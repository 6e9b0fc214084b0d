// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonx provides JSON open and save helpers.
package jsonx

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Open reads the given object from the given JSON file.
func Open(v any, filename string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Save writes the given object to the given filename as indented JSON.
func Save(v any, filename string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, append(b, '\n'), 0o644)
}

// SaveAtomic writes the given object as indented JSON to a temporary
// file in the target directory and renames it over the destination,
// so readers never observe a partial file.
func SaveAtomic(v any, filename string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filename)
}
