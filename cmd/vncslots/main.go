// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

// Command vncslots runs the slot-machine VNC server.
//
// It takes no flags; see vncslots.LoadConfig for the environment variables
// that override the defaults. Point a VNC viewer at port 5900 and pull the
// handle.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/greg-kennedy/vncslots"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := vncslots.LoadConfig()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg.Logger = vncslots.NewSlogLogger(logger)

	assets, err := vncslots.LoadAssets(cfg.AssetDir)
	if err != nil {
		slog.Error("failed to load images", "error", err, "dir", cfg.AssetDir)
		os.Exit(1)
	}

	srv, err := vncslots.NewServer(cfg, assets)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
