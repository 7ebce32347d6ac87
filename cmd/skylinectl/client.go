// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/skylinectl/client.go
// Summary: The Hello/Welcome/ConnectRequest/ConnectAccept handshake
// shared by every subcommand, mirrored from transport.Server.handshake
// but driven from the client side.

package main

import (
	"fmt"
	"net"

	"github.com/skylinewm/skyline/protocol"
)

type client struct {
	conn      net.Conn
	sessionID [16]byte
}

func dial(socketPath string) (*client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", socketPath, err)
	}

	c := &client{conn: conn}
	if err := c.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *client) handshake() error {
	helloPayload, err := protocol.EncodeHello(protocol.Hello{ClientName: "skylinectl"})
	if err != nil {
		return fmt.Errorf("encode hello: %w", err)
	}
	if err := protocol.WriteMessage(c.conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgHello, Flags: protocol.FlagChecksum}, helloPayload); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	hdr, payload, err := protocol.ReadMessage(c.conn)
	if err != nil {
		return fmt.Errorf("read welcome: %w", err)
	}
	if hdr.Type != protocol.MsgWelcome {
		return fmt.Errorf("unexpected response to hello: %v", hdr.Type)
	}
	if _, err := protocol.DecodeWelcome(payload); err != nil {
		return fmt.Errorf("decode welcome: %w", err)
	}

	connReqPayload, err := protocol.EncodeConnectRequest(protocol.ConnectRequest{})
	if err != nil {
		return fmt.Errorf("encode connect request: %w", err)
	}
	if err := protocol.WriteMessage(c.conn, protocol.Header{Version: protocol.Version, Type: protocol.MsgConnectRequest, Flags: protocol.FlagChecksum}, connReqPayload); err != nil {
		return fmt.Errorf("send connect request: %w", err)
	}

	hdr, payload, err = protocol.ReadMessage(c.conn)
	if err != nil {
		return fmt.Errorf("read connect accept: %w", err)
	}
	if hdr.Type != protocol.MsgConnectAccept {
		return fmt.Errorf("unexpected response to connect request: %v", hdr.Type)
	}
	accept, err := protocol.DecodeConnectAccept(payload)
	if err != nil {
		return fmt.Errorf("decode connect accept: %w", err)
	}
	c.sessionID = accept.SessionID
	return nil
}

func (c *client) close() error {
	return c.conn.Close()
}
