// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skyline/main.go
// Summary: skyline daemon entrypoint: wires the core packages together
// and exposes the broadcast/command socket. Run directly (e.g. under a
// launchd agent) or with --daemonize to fork into the background.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/skylinewm/skyline/cmd/skyline/lifecycle"
)

const shutdownTimeout = 5 * time.Second

// WorkerConfig is the fully-resolved set of knobs runWorker needs.
type WorkerConfig struct {
	SocketPath  string
	RestoreDB   string
	FakeSources bool
	VerboseLogs bool
	Space       uint64
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("skyline", flag.ContinueOnError)

	worker := fs.Bool("worker", false, "Run the daemon worker in the foreground (used internally by --daemonize)")
	daemonize := fs.Bool("daemonize", false, "Fork the worker into the background and exit")
	stop := fs.Bool("stop", false, "Stop a backgrounded daemon")
	status := fs.Bool("status", false, "Show daemon status and exit")
	resetState := fs.Bool("reset-state", false, "Delete all persisted state and the PID file (requires confirmation)")

	socketPath := fs.String("socket", "", "Unix socket path (default: /tmp/skyline.sock)")
	restoreDB := fs.String("restore-db", "", "Path to the workspace-shape restore database")
	fakeSources := fs.Bool("fake-sources", false, "Use the in-memory WindowSource/InputSource fakes instead of real AX/CGS bindings")
	verboseLogs := fs.Bool("verbose-logs", false, "Enable verbose logging and stdout tracing")
	space := fs.Uint64("space", 1, "Space id this worker instance manages")

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("resolve config paths: %w", err)
	}
	if err := paths.EnsureConfigDir(); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if *socketPath == "" {
		*socketPath = paths.SocketPath
	}
	if *restoreDB == "" {
		*restoreDB = paths.RestoreDB
	}

	wopts := lifecycle.WorkerOptions{
		SocketPath:  *socketPath,
		RestoreDB:   *restoreDB,
		FakeSources: *fakeSources,
		VerboseLogs: *verboseLogs,
		LogFilePath: paths.LogPath,
		Space:       *space,
	}

	ctx := context.Background()

	switch {
	case *status:
		return handleStatus(ctx, paths, *socketPath)
	case *resetState:
		return handleResetState(ctx, paths, wopts)
	case *stop:
		return handleStop(ctx, paths, *socketPath)
	case *daemonize:
		return handleDaemonize(ctx, paths, wopts)
	default:
		// Both bare invocation and --worker run the same foreground
		// loop; --worker only exists so handleDaemonize's forked child
		// can be told apart from an interactive run in process listings.
		_ = *worker
		return runForeground(ctx, WorkerConfig{
			SocketPath:  wopts.SocketPath,
			RestoreDB:   wopts.RestoreDB,
			FakeSources: wopts.FakeSources,
			VerboseLogs: wopts.VerboseLogs,
			Space:       wopts.Space,
		})
	}
}

func runForeground(parent context.Context, opts WorkerConfig) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runWorker(ctx, opts)
}

func newSupervisor(paths *Paths, socketPath string) (*lifecycle.Supervisor, lifecycle.DaemonManager) {
	health := lifecycle.NewProtocolHealthChecker(2 * time.Second)
	pidFile := lifecycle.NewPIDFile(paths.PIDPath)
	daemon := lifecycle.NewDaemonManager(pidFile, socketPath, health)
	return lifecycle.NewSupervisor(daemon, health, pidFile, lifecycle.DefaultSupervisorConfig()), daemon
}

func handleDaemonize(ctx context.Context, paths *Paths, opts lifecycle.WorkerOptions) error {
	supervisor, daemon := newSupervisor(paths, opts.SocketPath)

	result, err := supervisor.EnsureRunning(ctx, opts)
	if err != nil {
		return fmt.Errorf("ensure daemon running: %w", err)
	}
	if result.WasStarted {
		fmt.Printf("Daemon started (PID %d)\n", result.PID)
		fmt.Printf("  Socket: %s\n", opts.SocketPath)
		fmt.Printf("  Logs: %s\n", paths.LogPath)
	} else {
		fmt.Printf("Daemon already running (PID %d)\n", daemon.GetPID())
	}
	return nil
}

func handleStop(ctx context.Context, paths *Paths, socketPath string) error {
	_, daemon := newSupervisor(paths, socketPath)

	state, err := daemon.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get daemon state: %w", err)
	}
	if state == lifecycle.StateStopped {
		fmt.Println("Daemon is not running")
		return nil
	}

	pid := daemon.GetPID()
	fmt.Printf("Stopping daemon (PID %d)...\n", pid)
	if err := daemon.Stop(ctx); err != nil {
		return fmt.Errorf("stop daemon: %w", err)
	}
	fmt.Println("Daemon stopped")
	return nil
}

func handleStatus(ctx context.Context, paths *Paths, socketPath string) error {
	_, daemon := newSupervisor(paths, socketPath)

	state, err := daemon.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get daemon state: %w", err)
	}

	fmt.Printf("Daemon status: %s\n", state)
	if state == lifecycle.StateRunning || state == lifecycle.StateUnresponsive {
		fmt.Printf("  PID: %d\n", daemon.GetPID())
	}
	fmt.Printf("  Socket: %s\n", socketPath)
	fmt.Printf("  PID file: %s\n", paths.PIDPath)
	fmt.Printf("  Restore DB: %s\n", paths.RestoreDB)
	fmt.Printf("  Log file: %s\n", paths.LogPath)
	return nil
}

func handleResetState(ctx context.Context, paths *Paths, opts lifecycle.WorkerOptions) error {
	fmt.Println("WARNING: This will delete all persisted state:")
	fmt.Printf("  - %s (restore database)\n", paths.RestoreDB)
	fmt.Printf("  - %s (PID file)\n", paths.PIDPath)
	fmt.Printf("  - %s (daemon log)\n", paths.LogPath)
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	reader := bufio.NewReader(os.Stdin)
	confirm, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(confirm) != "yes" {
		fmt.Println("Aborted")
		return nil
	}

	_, daemon := newSupervisor(paths, opts.SocketPath)
	if state, _ := daemon.GetState(ctx); state != lifecycle.StateStopped {
		fmt.Println("Stopping daemon...")
		_ = daemon.Stop(ctx)
	}

	removed := 0
	for _, p := range []string{paths.RestoreDB, paths.PIDPath, paths.LogPath} {
		if err := os.Remove(p); err == nil {
			removed++
		}
	}
	fmt.Printf("State reset complete (%d files removed)\n", removed)
	return nil
}
