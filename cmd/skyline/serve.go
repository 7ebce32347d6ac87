// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skyline/serve.go
// Summary: Wires the Layout Engine, Virtual Workspace Manager, Floating
// Manager, Reactor, and transport socket into one running worker
// process. This is the function the forked/foreground background
// worker actually runs.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/skylinewm/skyline/config"
	"github.com/skylinewm/skyline/floating"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/inputsrc"
	inputfake "github.com/skylinewm/skyline/inputsrc/fake"
	"github.com/skylinewm/skyline/persist"
	"github.com/skylinewm/skyline/reactor"
	"github.com/skylinewm/skyline/tracing"
	"github.com/skylinewm/skyline/transport"
	"github.com/skylinewm/skyline/vwm"
	"github.com/skylinewm/skyline/wsrc"
	wsrcfake "github.com/skylinewm/skyline/wsrc/fake"
)

// errRealSourcesUnimplemented is returned when the worker is asked to
// run against the real macOS AX/CGS bindings: those bindings are an
// external collaborator this repository never implements (spec.md §1).
var errRealSourcesUnimplemented = errors.New("skyline: real WindowSource/InputSource bindings are not implemented in this build; rerun with --fake-sources")

// runWorker wires the core and blocks until ctx is canceled or a fatal
// component error occurs.
func runWorker(ctx context.Context, opts WorkerConfig) error {
	if err := config.Load(); err != nil {
		log.Printf("[skyline] config load warning: %v", err)
	}
	sys := config.System()

	tracer, err := tracing.NewProvider(tracing.Config{
		Enabled:     opts.VerboseLogs,
		Exporter:    traceExporter(opts.VerboseLogs),
		ServiceName: "skyline",
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutCtx); err != nil {
			log.Printf("[skyline] tracer shutdown: %v", err)
		}
	}()

	store, err := persist.Open(opts.RestoreDB)
	if err != nil {
		return fmt.Errorf("open restore db: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("[skyline] restore db close: %v", err)
		}
	}()

	wm := vwm.NewManager(config.VWMConfig(sys), nil)
	fl := floating.New()

	windows, input, err := sources(opts)
	if err != nil {
		return err
	}

	space := ids.SpaceId(opts.Space)
	r := reactor.New(ctx, windows, input, config.EngineConfig(sys), wm, fl, store, tracer)

	if err := os.Remove(opts.SocketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear stale socket: %w", err)
	}
	ln, err := net.Listen("unix", opts.SocketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", opts.SocketPath, err)
	}

	srv := transport.New(r, space)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.Run(gctx, space); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("reactor run: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := srv.Serve(gctx, ln); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("transport serve: %w", err)
		}
		return nil
	})

	log.Printf("[skyline] listening on %s (space=%d, fake-sources=%v)", opts.SocketPath, opts.Space, opts.FakeSources)
	return g.Wait()
}

// sources returns the WindowSource/InputSource pair the worker drives.
// Only the in-memory fakes are implemented; real AX/CGS bindings are out
// of scope (spec.md §1) and never built here.
func sources(opts WorkerConfig) (wsrc.WindowSource, inputsrc.InputSource, error) {
	if !opts.FakeSources {
		return nil, nil, errRealSourcesUnimplemented
	}
	return wsrcfake.New(), inputfake.New(), nil
}

func traceExporter(verbose bool) string {
	if verbose {
		return "stdout"
	}
	return "none"
}
