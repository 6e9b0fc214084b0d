// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/markus-barta/pidicon/canvas"
)

// Pixoo HTTP command names.
const (
	cmdDraw          = "Draw/SendHttpGif"
	cmdResetGifID    = "Draw/ResetHttpGifId"
	cmdSetChannel    = "Channel/SetCurrentChannel"
	cmdSetBrightness = "Channel/SetBrightness"
	cmdOnOffScreen   = "Channel/OnOffScreen"
	cmdSetIndex      = "Channel/SetIndex"
)

// customChannel is the device channel that displays pushed frames.
const customChannel = 4

// realDriver pushes frames to a Pixoo device as JSON over HTTP.
type realDriver struct {
	host   string
	client *http.Client
	canvas *canvas.Canvas
	picID  int
	inited bool
	buf    []byte
}

func newRealDriver(host string) *realDriver {
	return &realDriver{
		host:   host,
		client: &http.Client{Timeout: 5 * time.Second},
		canvas: canvas.New(),
	}
}

func (d *realDriver) Kind() Kind             { return KindReal }
func (d *realDriver) Canvas() *canvas.Canvas { return d.canvas }

// drawFrame is the wire envelope for a frame push. Field names follow
// the device protocol exactly.
type drawFrame struct {
	Command   string `json:"Command"`
	PicNum    int    `json:"PicNum"`
	PicWidth  int    `json:"PicWidth"`
	PicHeight int    `json:"PicHeight"`
	PicOffset int    `json:"PicOffset"`
	PicID     int    `json:"PicID"`
	PicSpeed  int    `json:"PicSpeed"`
	PicData   string `json:"PicData"`
}

// Push encodes the framebuffer as base64 RGB and posts it. On the
// first push after construction it issues best-effort init commands
// and ignores their errors.
func (d *realDriver) Push(ctx context.Context) error {
	if !d.inited {
		if err := d.post(ctx, map[string]any{"Command": cmdResetGifID}); err != nil {
			slog.Debug("device init command failed", "device", d.host, "cmd", cmdResetGifID, "err", err)
		}
		if err := d.post(ctx, map[string]any{"Command": cmdSetChannel, "Channel": customChannel}); err != nil {
			slog.Debug("device init command failed", "device", d.host, "cmd", cmdSetChannel, "err", err)
		}
		d.inited = true
	}
	d.buf = d.canvas.RGBBytes(d.buf[:0])
	d.picID++
	frame := drawFrame{
		Command:   cmdDraw,
		PicNum:    1,
		PicWidth:  canvas.Width,
		PicHeight: canvas.Height,
		PicOffset: 0,
		PicID:     d.picID,
		PicSpeed:  1000,
		PicData:   base64.StdEncoding.EncodeToString(d.buf),
	}
	return d.post(ctx, frame)
}

func (d *realDriver) SetBrightness(ctx context.Context, percent int) error {
	return d.post(ctx, map[string]any{"Command": cmdSetBrightness, "Brightness": percent})
}

func (d *realDriver) SetDisplayOn(ctx context.Context, on bool) error {
	v := 0
	if on {
		v = 1
	}
	return d.post(ctx, map[string]any{"Command": cmdOnOffScreen, "OnOff": v})
}

func (d *realDriver) SetChannel(ctx context.Context, index int) error {
	return d.post(ctx, map[string]any{"Command": cmdSetIndex, "SelectIndex": index})
}

// post sends one JSON command to the device and checks both the HTTP
// status and the error_code field of the response body.
func (d *realDriver) post(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://%s/post", d.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("device %s: http status %d", d.host, resp.StatusCode)
	}
	var dr struct {
		ErrorCode int `json:"error_code"`
	}
	rb, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return err
	}
	// some firmware replies with an empty body on success
	if len(rb) > 0 {
		if err := json.Unmarshal(rb, &dr); err == nil && dr.ErrorCode != 0 {
			return fmt.Errorf("device %s: error_code %d", d.host, dr.ErrorCode)
		}
	}
	return nil
}
