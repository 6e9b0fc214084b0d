// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
)

// handler is a [slog.Handler] that writes human-readable lines with
// the level label colored via termenv when the output is a terminal.
type handler struct {
	mu    sync.Mutex
	w     io.Writer
	out   *termenv.Output
	attrs []slog.Attr
	group string
}

func newHandler(w io.Writer) *handler {
	return &handler{w: w, out: termenv.NewOutput(w)}
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= UserLevel
}

func (h *handler) levelLabel(level slog.Level) string {
	p := h.out.ColorProfile()
	switch {
	case level >= slog.LevelError:
		return termenv.String("ERR").Foreground(p.Color("#d6565f")).Bold().String()
	case level >= slog.LevelWarn:
		return termenv.String("WRN").Foreground(p.Color("#b59a00")).String()
	case level >= slog.LevelInfo:
		return termenv.String("INF").Foreground(p.Color("#4a9bd0")).String()
	}
	return termenv.String("DBG").Foreground(p.Color("#7b7f85")).String()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	// advisory per-device filtering: a device attribute can lower or
	// raise the effective level for records scoped to that device.
	device := ""
	for _, a := range h.attrs {
		if a.Key == "device" {
			device = a.Value.String()
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "device" {
			device = a.Value.String()
		}
		return true
	})
	if device != "" && !DeviceEnabled(device, r.Level) {
		return nil
	}

	var b strings.Builder
	b.WriteString(r.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(h.levelLabel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", h.attrKey(a.Key), a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", h.attrKey(a.Key), a.Value)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *handler) attrKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := &handler{w: h.w, out: h.out, group: h.group}
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return nh
}

func (h *handler) WithGroup(name string) slog.Handler {
	nh := &handler{w: h.w, out: h.out, attrs: h.attrs}
	if h.group == "" {
		nh.group = name
	} else {
		nh.group = h.group + "." + name
	}
	return nh
}
