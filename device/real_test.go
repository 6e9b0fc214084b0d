// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markus-barta/pidicon/canvas"
)

// testServer records every command body posted to /post.
func testServer(t *testing.T, status int, errorCode int) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var cmds []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/post", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		cmds = append(cmds, m)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]int{"error_code": errorCode})
	}))
	t.Cleanup(srv.Close)
	return srv, &cmds
}

func host(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestRealDriverFirstPushRunsInit(t *testing.T) {
	srv, cmds := testServer(t, http.StatusOK, 0)
	d := newRealDriver(host(srv))
	d.Canvas().DrawPixel(0, 0, canvas.Red)
	require.NoError(t, d.Push(context.Background()))

	require.Len(t, *cmds, 3)
	assert.Equal(t, cmdResetGifID, (*cmds)[0]["Command"])
	assert.Equal(t, cmdSetChannel, (*cmds)[1]["Command"])
	assert.Equal(t, float64(customChannel), (*cmds)[1]["Channel"])

	frame := (*cmds)[2]
	assert.Equal(t, cmdDraw, frame["Command"])
	assert.Equal(t, float64(1), frame["PicNum"])
	assert.Equal(t, float64(64), frame["PicWidth"])
	assert.Equal(t, float64(64), frame["PicHeight"])
	assert.Equal(t, float64(1000), frame["PicSpeed"])

	data, err := base64.StdEncoding.DecodeString(frame["PicData"].(string))
	require.NoError(t, err)
	assert.Equal(t, canvas.Width*canvas.Height*3, len(data))
	assert.Equal(t, []byte{255, 0, 0}, data[:3])

	// second push: no init commands, rolling PicID
	require.NoError(t, d.Push(context.Background()))
	require.Len(t, *cmds, 4)
	assert.Equal(t, cmdDraw, (*cmds)[3]["Command"])
	assert.Greater(t, (*cmds)[3]["PicID"], frame["PicID"])
}

func TestRealDriverDeviceErrorCode(t *testing.T) {
	srv, _ := testServer(t, http.StatusOK, 5)
	d := newRealDriver(host(srv))
	d.inited = true // skip init commands
	err := d.Push(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error_code 5")
}

func TestRealDriverHTTPError(t *testing.T) {
	srv, _ := testServer(t, http.StatusInternalServerError, 0)
	d := newRealDriver(host(srv))
	d.inited = true
	err := d.Push(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 500")
}

func TestRealDriverCommands(t *testing.T) {
	srv, cmds := testServer(t, http.StatusOK, 0)
	d := newRealDriver(host(srv))
	ctx := context.Background()

	require.NoError(t, d.SetBrightness(ctx, 70))
	require.NoError(t, d.SetDisplayOn(ctx, false))
	require.NoError(t, d.SetChannel(ctx, 3))

	require.Len(t, *cmds, 3)
	assert.Equal(t, cmdSetBrightness, (*cmds)[0]["Command"])
	assert.Equal(t, float64(70), (*cmds)[0]["Brightness"])
	assert.Equal(t, cmdOnOffScreen, (*cmds)[1]["Command"])
	assert.Equal(t, float64(0), (*cmds)[1]["OnOff"])
	assert.Equal(t, cmdSetIndex, (*cmds)[2]["Command"])
	assert.Equal(t, float64(3), (*cmds)[2]["SelectIndex"])
}
