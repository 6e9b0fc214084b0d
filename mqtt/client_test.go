// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/markus-barta/pidicon/command"
)

func TestReconnectDelaySchedule(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, time.Second, ReconnectDelay(i), "attempt %d", i)
	}
	for i := 5; i < 10; i++ {
		assert.Equal(t, 5*time.Second, ReconnectDelay(i), "attempt %d", i)
	}
	for i := 10; i < 15; i++ {
		assert.Equal(t, 60*time.Second, ReconnectDelay(i), "attempt %d", i)
	}
	for _, i := range []int{15, 40, 1000} {
		assert.Equal(t, 300*time.Second, ReconnectDelay(i), "attempt %d", i)
	}
}

func TestDeviceTopics(t *testing.T) {
	router := command.NewRouter("pixoo", nil, nil)
	c := NewClient(Config{BrokerURL: "tcp://127.0.0.1:1883"}, router)

	assert.Equal(t, "pixoo/192.168.1.50/ok", c.deviceTopic("192.168.1.50", "ok"))
	assert.Equal(t, "pixoo/192.168.1.50/scene/state", c.deviceTopic("192.168.1.50", "scene/state"))
	assert.Equal(t, []string{"pixoo/+/+/+", "pixoo/+/+"}, router.SubscriptionFilters(),
		"action-less topics need their own filter, wildcards match one segment")
}

func TestPublishWhileDisconnectedDoesNotRaise(t *testing.T) {
	router := command.NewRouter("pixoo", nil, nil)
	c := NewClient(Config{BrokerURL: "tcp://127.0.0.1:1883"}, router)

	assert.False(t, c.IsConnected())
	assert.NotPanics(t, func() {
		c.PublishOk("192.168.1.50", "clock", 12.5, 100, nil)
		c.PublishError("192.168.1.50", assert.AnError, map[string]any{"topic": "x"})
		c.PublishSceneState("192.168.1.50", map[string]any{"scene": "clock"})
		c.PublishMetrics("192.168.1.50", map[string]any{"pushes": 1})
	})
}
