// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx provides leveled structured logging for the daemon,
// built on [log/slog] with colored terminal output.
package logx

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// UserLevel is the current user-facing logging level. Records below
// this level are not emitted. The default depends on build tags
// (see level_default.go).
var UserLevel = defaultUserLevel

// LevelSilent suppresses all logging output.
const LevelSilent = slog.Level(100)

var (
	initOnce sync.Once

	// per-device advisory level overrides, keyed by device id.
	deviceLevels   = map[string]slog.Level{}
	deviceLevelsMu sync.RWMutex
)

// Init installs the colored handler as the slog default.
// It is called automatically by [SetLevel] and may be called directly.
func Init() {
	initOnce.Do(func() {
		slog.SetDefault(slog.New(newHandler(os.Stderr)))
	})
}

// SetLevel sets [UserLevel] and ensures the handler is installed.
func SetLevel(level slog.Level) {
	Init()
	UserLevel = level
}

// LevelFromString converts a level name (debug, info, warning, error,
// silent) to a [slog.Level]. Unknown names map to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "silent":
		return LevelSilent
	}
	return slog.LevelInfo
}

// LevelString returns the canonical lowercase name for the given level.
func LevelString(level slog.Level) string {
	switch {
	case level >= LevelSilent:
		return "silent"
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	}
	return "debug"
}

// SetDeviceLevel sets an advisory per-device logging level.
// An empty level name removes the override.
func SetDeviceLevel(device, level string) {
	deviceLevelsMu.Lock()
	defer deviceLevelsMu.Unlock()
	if level == "" {
		delete(deviceLevels, device)
		return
	}
	deviceLevels[device] = LevelFromString(level)
}

// DeviceEnabled reports whether records at the given level should be
// emitted for the given device, honoring any per-device override and
// falling back to [UserLevel].
func DeviceEnabled(device string, level slog.Level) bool {
	deviceLevelsMu.RLock()
	dl, ok := deviceLevels[device]
	deviceLevelsMu.RUnlock()
	if ok {
		return level >= dl
	}
	return level >= UserLevel
}

// Device returns a logger with the device attribute pre-set.
// Filtering is advisory: the handler consults [DeviceEnabled].
func Device(device string) *slog.Logger {
	Init()
	return slog.Default().With("device", device)
}
