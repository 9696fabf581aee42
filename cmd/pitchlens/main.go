// Package main is the entrypoint for the pitchlens command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/codezelat/pitchlens/internal/badge"
	"github.com/codezelat/pitchlens/internal/cli"
	"github.com/codezelat/pitchlens/internal/config"
	"github.com/codezelat/pitchlens/internal/export"
	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/internal/scoring"
	"github.com/codezelat/pitchlens/internal/snapshot"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, build, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// build wires the CLI against the configured scoring service and snapshot slot.
// The CLI defaults to the sqlite slot under the XDG cache directory.
func build(ctx context.Context) (*cli.Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	slot, err := snapshot.OpenSlot(ctx, cfg)
	if err != nil {
		return nil, err
	}

	raster, err := badge.NewRasterizer(cfg.Badge.RasterBackend, badge.WithBrowserTimeout(cfg.Badge.RasterTimeout))
	if err != nil {
		slot.Close()
		return nil, fmt.Errorf("create rasterizer: %w", err)
	}
	clip, err := export.NewClipboard(cfg.Server.ClipboardBackend)
	if err != nil {
		slot.Close()
		return nil, err
	}

	client := scoring.NewHTTPClient(cfg.Scoring.BaseURL, cfg.Scoring.Token, cfg.Scoring.Timeout)
	snapshots := snapshot.New(slot, snapshot.WithRetention(cfg.Snapshot.Retention))

	return &cli.Env{
		Resolver:  resolve.New(client, snapshots, resolve.WithHistoryLimit(cfg.Scoring.HistoryLimit)),
		Snapshots: snapshots,
		Raster:    raster,
		Clipboard: clip,
		PageURL:   strings.TrimRight(cfg.Server.PublicBaseURL, "/") + "/badges",
		Open:      export.Open,
		Close:     slot.Close,
	}, nil
}
