// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command pidicon is the headless daemon that drives Pixoo 64×64 LED
// matrix devices over HTTP, controlled through MQTT scene commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markus-barta/pidicon/canvas"
	"github.com/markus-barta/pidicon/command"
	"github.com/markus-barta/pidicon/config"
	"github.com/markus-barta/pidicon/device"
	"github.com/markus-barta/pidicon/logx"
	"github.com/markus-barta/pidicon/mqtt"
	"github.com/markus-barta/pidicon/runtime"
	"github.com/markus-barta/pidicon/scene"
	"github.com/markus-barta/pidicon/scene/scenes"
	"github.com/markus-barta/pidicon/service"
	"github.com/markus-barta/pidicon/store"
)

// stateFileName is the persistence file name inside a state dir.
const stateFileName = "runtime-state.json"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pidicon:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML or YAML config file")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logx.SetLevel(logx.LevelFromString(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// state store with the documented path fallback chain
	var preferred []string
	if cfg.StatePath != "" {
		preferred = append(preferred, cfg.StatePath)
	}
	if cfg.StateDir != "" {
		preferred = append(preferred, filepath.Join(cfg.StateDir, stateFileName))
	}
	st := store.New(store.ResolveStatePath(preferred...))
	if err := st.Restore(); err != nil {
		slog.Warn("state restore failed, starting fresh", "err", err)
	}

	reg := scene.NewRegistry()
	reg.Discover(scenes.All()...)
	slog.Info("scenes registered", "count", reg.Len())
	if cfg.SceneDir != "" {
		slog.Warn("external scene directories are not supported, scenes are compiled in", "dir", cfg.SceneDir)
	}

	rt := runtime.New(reg, st, nil)
	for _, dc := range cfg.Devices {
		kind, err := device.KindFromString(cfg.DriverFor(dc.Host))
		if err != nil {
			return err
		}
		rt.AddDevice(device.New(dc.Host, kind, st))
		slog.Info("device registered", "device", dc.Host, "driver", kind)
	}

	router := command.NewRouter(cfg.MQTT.Namespace, rt, nil)
	client := mqtt.NewClient(mqtt.Config{
		BrokerURL: cfg.MQTT.Broker,
		ClientID:  cfg.MQTT.ClientID,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTTPassword(),
		Reconnect: cfg.MQTT.Reconnect,
	}, router)
	rt.SetPublisher(client)
	router.SetPublisher(client)

	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	watcher, err := canvas.WatchMedia(cfg.MediaDir)
	if err != nil {
		slog.Warn("media watcher unavailable", "dir", cfg.MediaDir, "err", err)
	}
	defer watcher.Close()

	rt.RestoreFromStore(ctx)

	svc := service.New(rt)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		router.Run(gctx)
		return nil
	})

	if cfg.HeartbeatInterval > 0 {
		g.Go(func() error {
			return runTicker(gctx, time.Duration(cfg.HeartbeatInterval)*time.Second, func() {
				st.Heartbeat()
			})
		})
	}

	if cfg.MetricsInterval > 0 {
		g.Go(func() error {
			return runTicker(gctx, time.Duration(cfg.MetricsInterval)*time.Second, func() {
				for _, d := range rt.Devices() {
					if m, ok := svc.Metrics(d.Host()); ok {
						client.PublishMetrics(d.Host(), m)
					}
				}
			})
		})
	}

	if cfg.AdminAddr != "" {
		srv := &http.Server{Addr: cfg.AdminAddr, Handler: svc.Handler()}
		g.Go(func() error {
			slog.Info("admin surface listening", "addr", cfg.AdminAddr)
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	slog.Info("pidicon running", "devices", len(cfg.Devices), "broker", cfg.MQTT.Broker)
	err = g.Wait()

	rt.Shutdown()
	if ferr := st.Close(); ferr != nil {
		slog.Warn("final state flush failed", "err", ferr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("pidicon stopped")
	return nil
}

// runTicker runs fn on the given period until the context ends.
func runTicker(ctx context.Context, period time.Duration, fn func()) error {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			fn()
		}
	}
}
