// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mqtt implements the broker transport: connection handling
// with a bounded-exponential reconnect schedule, inbound command
// delivery to the router, and the outbound event surface (ok, error,
// metrics, scene state). Publishes while disconnected are dropped
// silently with rate-limited logs.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/markus-barta/pidicon/command"
)

// connectTimeout bounds one broker connection attempt.
const connectTimeout = 10 * time.Second

// publishTimeout bounds one outbound publish.
const publishTimeout = 5 * time.Second

// dropLogInterval rate-limits "not sent" logging while disconnected.
const dropLogInterval = 10 * time.Second

// ReconnectDelay returns the wait before reconnect attempt n
// (0-based): 1 s for the first five, 5 s for the next five, 60 s for
// the five after, then 300 s forever.
func ReconnectDelay(attempt int) time.Duration {
	switch {
	case attempt < 5:
		return time.Second
	case attempt < 10:
		return 5 * time.Second
	case attempt < 15:
		return 60 * time.Second
	}
	return 300 * time.Second
}

// Config holds the broker connection settings.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// Reconnect enables the automatic reconnect loop.
	Reconnect bool
}

// Client is the shared broker connection. It feeds inbound commands
// to the router and implements the runtime's Publisher interface for
// outbound events.
type Client struct {
	cfg    Config
	router *command.Router

	mu          sync.Mutex
	conn        paho.Client
	closed      bool
	attempts    int
	lastDropLog time.Time
}

// NewClient returns an unconnected client that will dispatch inbound
// messages to the given router.
func NewClient(cfg Config, router *command.Router) *Client {
	if cfg.ClientID == "" {
		cfg.ClientID = "pidicon"
	}
	c := &Client{cfg: cfg, router: router}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(false). // the schedule below replaces paho's
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)
	c.conn = paho.NewClient(opts)
	return c
}

// Connect performs the initial broker connection. With reconnect
// enabled a failed first attempt starts the retry loop instead of
// failing hard.
func (c *Client) Connect() error {
	err := c.connectOnce()
	if err != nil && c.cfg.Reconnect {
		slog.Warn("initial broker connection failed, retrying", "broker", c.cfg.BrokerURL, "err", err)
		go c.reconnectLoop()
		return nil
	}
	return err
}

func (c *Client) connectOnce() error {
	tok := c.conn.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return fmt.Errorf("broker %s: connect timeout", c.cfg.BrokerURL)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("broker %s: %w", c.cfg.BrokerURL, err)
	}
	return nil
}

func (c *Client) onConnect(_ paho.Client) {
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
	slog.Info("broker connected", "broker", c.cfg.BrokerURL)

	for _, filter := range c.router.SubscriptionFilters() {
		tok := c.conn.Subscribe(filter, 0, func(_ paho.Client, msg paho.Message) {
			c.router.Enqueue(msg.Topic(), msg.Payload())
		})
		if tok.WaitTimeout(connectTimeout) && tok.Error() != nil {
			slog.Error("broker subscribe failed", "filter", filter, "err", tok.Error())
		}
	}
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	slog.Warn("broker connection lost", "broker", c.cfg.BrokerURL, "err", err)
	if c.cfg.Reconnect {
		go c.reconnectLoop()
	}
}

// reconnectLoop retries the connection on the documented schedule
// until it succeeds or the client is closed.
func (c *Client) reconnectLoop() {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		attempt := c.attempts
		c.attempts++
		c.mu.Unlock()

		delay := ReconnectDelay(attempt)
		slog.Info("broker reconnect scheduled", "attempt", attempt+1, "delay", delay)
		time.Sleep(delay)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		err := c.connectOnce()
		if err == nil {
			return
		}
		slog.Warn("broker reconnect failed", "attempt", attempt+1, "err", err)
	}
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close disconnects from the broker and stops the reconnect loop.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if c.conn.IsConnected() {
		c.conn.Disconnect(250)
	}
}

// Publish sends a JSON payload to the given topic. While disconnected
// the message is not sent and no error is raised; drops are logged at
// most once per [dropLogInterval].
func (c *Client) Publish(topic string, payload any) {
	if !c.IsConnected() {
		c.mu.Lock()
		if time.Since(c.lastDropLog) >= dropLogInterval {
			c.lastDropLog = time.Now()
			slog.Debug("broker disconnected, message not sent", "topic", topic)
		}
		c.mu.Unlock()
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("publish payload marshal failed", "topic", topic, "err", err)
		return
	}
	tok := c.conn.Publish(topic, 0, false, data)
	if tok.WaitTimeout(publishTimeout) && tok.Error() != nil {
		slog.Warn("publish failed", "topic", topic, "err", tok.Error())
	}
}

func (c *Client) deviceTopic(device, suffix string) string {
	return c.router.Namespace() + "/" + device + "/" + suffix
}

// PublishOk emits a per-frame success event.
func (c *Client) PublishOk(device, scene string, frametimeMs float64, diffPixels int, metrics map[string]any) {
	msg := map[string]any{
		"scene":       scene,
		"frametimeMs": frametimeMs,
		"diffPixels":  diffPixels,
		"ts":          time.Now().UnixMilli(),
	}
	for k, v := range metrics {
		msg[k] = v
	}
	c.Publish(c.deviceTopic(device, "ok"), msg)
}

// PublishError emits a structured failure event.
func (c *Client) PublishError(device string, err error, fields map[string]any) {
	msg := map[string]any{
		"error": err.Error(),
		"ts":    time.Now().UnixMilli(),
	}
	for k, v := range fields {
		msg[k] = v
	}
	c.Publish(c.deviceTopic(device, "error"), msg)
}

// PublishSceneState emits the current scene machine state.
func (c *Client) PublishSceneState(device string, state map[string]any) {
	c.Publish(c.deviceTopic(device, "scene/state"), state)
}

// PublishMetrics emits the periodic per-device metrics snapshot.
func (c *Client) PublishMetrics(device string, metrics map[string]any) {
	c.Publish(c.deviceTopic(device, "metrics"), metrics)
}
