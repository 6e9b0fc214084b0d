// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config defines the daemon configuration schema and loads it
// from a TOML or YAML file, applying struct-tag defaults first and
// environment overrides last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/markus-barta/pidicon/base/errors"
	"github.com/markus-barta/pidicon/base/iox/tomlx"
	"github.com/markus-barta/pidicon/base/iox/yamlx"
)

// EnvPrefix is the prefix shared by all recognized environment knobs.
const EnvPrefix = "PIDICON_"

// DeviceConfig configures one display device.
type DeviceConfig struct {
	// Host is the device address, used as its id everywhere.
	Host string `toml:"host" yaml:"host"`

	// Driver selects the driver kind (real, mock). Empty inherits
	// [Config.DefaultDriver].
	Driver string `toml:"driver" yaml:"driver"`
}

// MQTTConfig configures the broker transport.
type MQTTConfig struct {
	Broker    string `toml:"broker" yaml:"broker" default:"tcp://localhost:1883"`
	ClientID  string `toml:"clientId" yaml:"clientId" default:"pidicon"`
	Username  string `toml:"username" yaml:"username"`
	Password  string `toml:"password" yaml:"password"`
	Namespace string `toml:"namespace" yaml:"namespace" default:"pixoo"`
	Reconnect bool   `toml:"reconnect" yaml:"reconnect" default:"true"`
}

// Config is the full daemon configuration.
type Config struct {
	Devices []DeviceConfig `toml:"devices" yaml:"devices"`

	// DefaultDriver is the driver kind for devices without an explicit
	// one.
	DefaultDriver string `toml:"defaultDriver" yaml:"defaultDriver" default:"real"`

	// DriverOverrides maps hosts to driver kinds, parsed from the
	// "host=kind;host=kind" environment knob. It wins over both the
	// per-device setting and the default.
	DriverOverrides map[string]string `toml:"-" yaml:"-"`

	MQTT MQTTConfig `toml:"mqtt" yaml:"mqtt"`

	// StatePath is the full persistence file path. Empty derives the
	// path from StateDir and the documented fallback chain.
	StatePath string `toml:"statePath" yaml:"statePath"`
	StateDir  string `toml:"stateDir" yaml:"stateDir"`

	// MediaDir holds image assets for scenes; watched for changes.
	MediaDir string `toml:"mediaDir" yaml:"mediaDir"`

	// SceneDir is an optional extra scene source directory.
	SceneDir string `toml:"sceneDir" yaml:"sceneDir"`

	// SecretsDir and SecretsKey locate a file-based secret used as the
	// MQTT password when none is configured directly.
	SecretsDir string `toml:"secretsDir" yaml:"secretsDir"`
	SecretsKey string `toml:"secretsKey" yaml:"secretsKey" default:"mqtt-password"`

	// AdminAddr enables the read-only HTTP admin surface when set,
	// e.g. "localhost:8686".
	AdminAddr string `toml:"adminAddr" yaml:"adminAddr"`

	// MetricsInterval is the period of the metrics publisher in
	// seconds; 0 disables it.
	MetricsInterval int `toml:"metricsIntervalSec" yaml:"metricsIntervalSec" default:"30"`

	// HeartbeatInterval is the heartbeat period in seconds.
	HeartbeatInterval int `toml:"heartbeatIntervalSec" yaml:"heartbeatIntervalSec" default:"60"`

	// LogLevel is the startup logging level (debug, info, warning,
	// error, silent).
	LogLevel string `toml:"logLevel" yaml:"logLevel" default:"info"`
}

// New returns a config with all struct-tag defaults applied.
func New() *Config {
	cfg := &Config{DriverOverrides: map[string]string{}}
	setDefaults(cfg)
	return cfg
}

// Load reads the config file at the given path (TOML or YAML by
// extension), applies defaults underneath and environment knobs on
// top. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := New()
	if path != "" {
		var err error
		switch filepath.Ext(path) {
		case ".toml":
			err = tomlx.Open(cfg, path)
		case ".yaml", ".yml":
			err = yamlx.Open(cfg, path)
		default:
			err = fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
		}
		if err != nil {
			return nil, errors.Wrap(err, "config")
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides config fields from PIDICON_* environment knobs.
func (c *Config) ApplyEnv() {
	env := func(key string) (string, bool) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		return v, ok
	}
	if v, ok := env("DRIVER"); ok {
		c.DefaultDriver = v
	}
	if v, ok := env("DEVICE_DRIVERS"); ok {
		c.DriverOverrides = ParseDriverOverrides(v)
	}
	if v, ok := env("MQTT_BROKER"); ok {
		c.MQTT.Broker = v
	}
	if v, ok := env("MQTT_USERNAME"); ok {
		c.MQTT.Username = v
	}
	if v, ok := env("MQTT_PASSWORD"); ok {
		c.MQTT.Password = v
	}
	if v, ok := env("MQTT_RECONNECT"); ok {
		c.MQTT.Reconnect = v != "false" && v != "0"
	}
	if v, ok := env("STATE_PATH"); ok {
		c.StatePath = v
	}
	if v, ok := env("STATE_DIR"); ok {
		c.StateDir = v
	}
	if v, ok := env("MEDIA_DIR"); ok {
		c.MediaDir = v
	}
	if v, ok := env("SCENE_DIR"); ok {
		c.SceneDir = v
	}
	if v, ok := env("SECRETS_DIR"); ok {
		c.SecretsDir = v
	}
	if v, ok := env("SECRETS_KEY"); ok {
		c.SecretsKey = v
	}
	if v, ok := env("ADMIN_ADDR"); ok {
		c.AdminAddr = v
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
}

// ParseDriverOverrides parses the "host=kind;host=kind" form.
// Malformed segments are skipped.
func ParseDriverOverrides(s string) map[string]string {
	out := map[string]string{}
	for _, seg := range strings.Split(s, ";") {
		host, kind, ok := strings.Cut(strings.TrimSpace(seg), "=")
		if !ok || host == "" || kind == "" {
			continue
		}
		out[host] = kind
	}
	return out
}

// DriverFor resolves the driver kind name for the given host:
// environment override, then per-device config, then the default.
func (c *Config) DriverFor(host string) string {
	if kind, ok := c.DriverOverrides[host]; ok {
		return kind
	}
	for _, d := range c.Devices {
		if d.Host == host && d.Driver != "" {
			return d.Driver
		}
	}
	return c.DefaultDriver
}

// MQTTPassword returns the configured password, falling back to the
// file-based secret at <SecretsDir>/<SecretsKey>.
func (c *Config) MQTTPassword() string {
	if c.MQTT.Password != "" || c.SecretsDir == "" {
		return c.MQTT.Password
	}
	b, err := os.ReadFile(filepath.Join(c.SecretsDir, c.SecretsKey))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// Validate checks the schema constraints that would make startup
// unrecoverable.
func (c *Config) Validate() error {
	valid := map[string]bool{"": true, "real": true, "mock": true}
	if !valid[c.DefaultDriver] {
		return fmt.Errorf("config: unknown default driver %q", c.DefaultDriver)
	}
	for _, d := range c.Devices {
		if d.Host == "" {
			return errors.New("config: device with empty host")
		}
		if !valid[d.Driver] {
			return fmt.Errorf("config: device %s: unknown driver %q", d.Host, d.Driver)
		}
	}
	return nil
}
