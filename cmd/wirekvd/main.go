// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"golang.org/x/sync/errgroup"

	"github.com/wirekv/wirekv/internal/adminserver"
	"github.com/wirekv/wirekv/internal/config"
	"github.com/wirekv/wirekv/internal/kvlog"
	"github.com/wirekv/wirekv/internal/metrics"
	"github.com/wirekv/wirekv/internal/runtimeEnv"
	"github.com/wirekv/wirekv/internal/store"
	"github.com/wirekv/wirekv/internal/tcpserver"
)

func main() {
	var flagGops bool
	var flagConfigFile, flagEnvFile string
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.StringVar(&flagConfigFile, "config", "", "Overwrite the default config options by those specified in `config.json`")
	flag.StringVar(&flagEnvFile, "env", "./.env", "Load environment overrides from `file` before reading the config")
	flag.Parse()

	// See https://github.com/google/gops (Runtime overhead is almost zero)
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			kvlog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := runtimeEnv.LoadEnv(flagEnvFile); err != nil && !os.IsNotExist(err) {
		kvlog.Fatalf("parsing %q failed: %s", flagEnvFile, err.Error())
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		kvlog.Fatalf("loading config: %s", err.Error())
	}
	kvlog.SetLevel(cfg.LogLevel)

	if cfg.Group != "" || cfg.User != "" {
		if err := runtimeEnv.DropPrivileges(cfg.User, cfg.Group); err != nil {
			kvlog.Fatalf("dropping privileges: %s", err.Error())
		}
	}

	st := store.New()
	reg := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return tcpserver.New(cfg.ListenAddr, st, reg, cfg.MaxConnections).Run(gctx)
	})
	g.Go(func() error {
		return adminserver.Serve(gctx, cfg.AdminAddr, adminserver.New(st, reg))
	})

	runtimeEnv.SystemdNotifiy(true, "running")
	kvlog.Infof("wirekvd: ready (wire %s, admin %s)", cfg.ListenAddr, cfg.AdminAddr)

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		kvlog.Fatalf("wirekvd: %s", err.Error())
	}
	runtimeEnv.SystemdNotifiy(false, "stopped")
}
