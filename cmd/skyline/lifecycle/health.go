// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skyline/lifecycle/health.go
// Summary: Health checking for the skyline daemon.

package lifecycle

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/skylinewm/skyline/protocol"
)

// HealthChecker verifies the daemon is responsive.
type HealthChecker interface {
	Check(ctx context.Context, socketPath string) error
}

// SocketHealthChecker performs health checks by connecting to the socket.
type SocketHealthChecker struct {
	timeout time.Duration
}

// NewSocketHealthChecker creates a health checker with the given timeout.
func NewSocketHealthChecker(timeout time.Duration) HealthChecker {
	return &SocketHealthChecker{timeout: timeout}
}

func (h *SocketHealthChecker) Check(ctx context.Context, socketPath string) error {
	deadline := time.Now().Add(h.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to socket: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	return nil
}

// ProtocolHealthChecker performs a Hello/Welcome handshake round trip, a
// stronger check than SocketHealthChecker's bare connect.
type ProtocolHealthChecker struct {
	timeout time.Duration
}

// NewProtocolHealthChecker creates a health checker that uses the Hello/Welcome handshake.
func NewProtocolHealthChecker(timeout time.Duration) HealthChecker {
	return &ProtocolHealthChecker{timeout: timeout}
}

func (h *ProtocolHealthChecker) Check(ctx context.Context, socketPath string) error {
	deadline := time.Now().Add(h.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to socket: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	helloPayload, err := protocol.EncodeHello(protocol.Hello{ClientName: "healthcheck"})
	if err != nil {
		return fmt.Errorf("encode hello: %w", err)
	}
	hdr := protocol.Header{Version: protocol.Version, Type: protocol.MsgHello, Flags: protocol.FlagChecksum}
	if err := protocol.WriteMessage(conn, hdr, helloPayload); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	respHdr, _, err := protocol.ReadMessage(conn)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if respHdr.Type != protocol.MsgWelcome {
		return fmt.Errorf("unexpected response type: %v", respHdr.Type)
	}
	return nil
}
