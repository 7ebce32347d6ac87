// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: transport/transport.go
// Summary: Serves the Reactor's Exposed UI event channel (package
// broadcast) over a Unix socket, framed with package protocol, and
// accepts LayoutCommands from connected clients (skylinectl, a future
// menu-bar UI). Grounded on the teacher's server package: one
// subscriberSession per connection (server/session.go's Session),
// tracked by a Manager-shaped registry (server/manager.go), negotiated
// with the same Hello/Welcome/ConnectRequest/ConnectAccept handshake
// (server/handshake.go).

package transport

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/skylinewm/skyline/broadcast"
	"github.com/skylinewm/skyline/ids"
	"github.com/skylinewm/skyline/inputsrc"
	"github.com/skylinewm/skyline/protocol"
	"github.com/skylinewm/skyline/reactor"
)

var (
	ErrSessionNotFound   = errors.New("transport: session not found")
	errUnexpectedMessage = errors.New("transport: unexpected message type")
)

// registry tracks one subscriberSession per connected client, keyed by a
// random session id so a client can resume after a transient
// disconnect (server/manager.go's Manager, generalized to wrap a
// broadcast.Subscriber instead of a diff history).
type registry struct {
	mu       sync.RWMutex
	sessions map[[16]byte]*subscriberSession
}

type subscriberSession struct {
	id  [16]byte
	sub *broadcast.Subscriber
}

func newRegistry() *registry {
	return &registry{sessions: make(map[[16]byte]*subscriberSession)}
}

func (r *registry) new(sub *broadcast.Subscriber) (*subscriberSession, error) {
	var id [16]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, err
	}
	s := &subscriberSession{id: id, sub: sub}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
	return s, nil
}

func (r *registry) lookup(id [16]byte) (*subscriberSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *registry) drop(id [16]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Server listens on a Unix socket, fanning out reactor.Reactor's broadcast
// events to every connected client and forwarding LayoutCommands back
// into the Reactor. One Server is scoped to a single space — a
// multi-display setup runs one Server per space, same as reactor.Run.
type Server struct {
	reactor *reactor.Reactor
	space   ids.SpaceId
	reg     *registry
}

func New(r *reactor.Reactor, space ids.SpaceId) *Server {
	return &Server{reactor: r, space: space, reg: newRegistry()}
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}
		go func() {
			if err := s.serveConn(ctx, conn); err != nil && !errors.Is(err, io.EOF) {
				log.Printf("transport: connection error: %v", err)
			}
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	sess, resuming, err := s.handshake(conn)
	if err != nil {
		return err
	}
	defer func() {
		s.reactor.Unsubscribe(sess.sub)
		s.reg.drop(sess.id)
	}()

	c := &connection{conn: conn, session: sess, server: s}
	if resuming {
		c.awaitResume = true
	}
	return c.serve(ctx)
}

func (s *Server) handshake(rw io.ReadWriter) (*subscriberSession, bool, error) {
	hdr, payload, err := protocol.ReadMessage(rw)
	if err != nil {
		return nil, false, err
	}
	if hdr.Type != protocol.MsgHello {
		return nil, false, errUnexpectedMessage
	}
	if _, err := protocol.DecodeHello(payload); err != nil {
		return nil, false, err
	}

	welcomePayload, err := protocol.EncodeWelcome(protocol.Welcome{ServerName: "skyline"})
	if err != nil {
		return nil, false, err
	}
	if err := protocol.WriteMessage(rw, protocol.Header{Version: protocol.Version, Type: protocol.MsgWelcome, Flags: protocol.FlagChecksum}, welcomePayload); err != nil {
		return nil, false, err
	}

	hdr, payload, err = protocol.ReadMessage(rw)
	if err != nil {
		return nil, false, err
	}
	if hdr.Type != protocol.MsgConnectRequest {
		return nil, false, errUnexpectedMessage
	}
	connectReq, err := protocol.DecodeConnectRequest(payload)
	if err != nil {
		return nil, false, err
	}

	var sess *subscriberSession
	var zero [16]byte
	resuming := connectReq.SessionID != zero
	if resuming {
		sess, err = s.reg.lookup(connectReq.SessionID)
		if err != nil {
			// Unknown session id (daemon restarted, say) — fall back to
			// a fresh one rather than failing the connection outright.
			resuming = false
		}
	}
	if !resuming {
		sess, err = s.reg.new(s.reactor.Subscribe())
		if err != nil {
			return nil, false, err
		}
	}

	acceptPayload, err := protocol.EncodeConnectAccept(protocol.ConnectAccept{SessionID: sess.id, ResumeSupported: true})
	if err != nil {
		return nil, false, err
	}
	if err := protocol.WriteMessage(rw, protocol.Header{Version: protocol.Version, Type: protocol.MsgConnectAccept, Flags: protocol.FlagChecksum, SessionID: sess.id, Sequence: 1}, acceptPayload); err != nil {
		return nil, false, err
	}
	return sess, resuming, nil
}

type connection struct {
	conn        net.Conn
	session     *subscriberSession
	server      *Server
	writeMu     sync.Mutex
	lastAcked   uint64
	awaitResume bool
}

func (c *connection) serve(ctx context.Context) error {
	_ = c.conn.SetDeadline(time.Time{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.sendPending(); err != nil {
			return err
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
		hdr, payload, err := protocol.ReadMessage(c.conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch hdr.Type {
		case protocol.MsgEventAck:
			ack, err := protocol.DecodeEventAck(payload)
			if err != nil {
				return err
			}
			c.session.sub.Ack(ack.Sequence)
			if ack.Sequence > c.lastAcked {
				c.lastAcked = ack.Sequence
			}
		case protocol.MsgPing:
			ping, err := protocol.DecodePing(payload)
			if err != nil {
				return err
			}
			pongPayload, err := protocol.EncodePong(protocol.Pong{Timestamp: ping.Timestamp})
			if err != nil {
				return err
			}
			if err := c.write(protocol.MsgPong, pongPayload); err != nil {
				return err
			}
		case protocol.MsgCommand:
			cmd, err := protocol.DecodeLayoutCommand(payload)
			if err != nil {
				return err
			}
			c.server.reactor.ApplyCommand(c.server.space, inputsrc.Command{Name: cmd.Name, Args: cmd.Args})
		case protocol.MsgResumeRequest:
			req, err := protocol.DecodeResumeRequest(payload)
			if err != nil {
				return err
			}
			c.lastAcked = req.LastSequence
			c.awaitResume = false
		default:
			// Unknown messages are ignored, matching the teacher's
			// connection.serve default case.
		}
	}
}

func (c *connection) sendPending() error {
	if c.awaitResume {
		return nil
	}
	for _, env := range c.session.sub.Pending(c.lastAcked) {
		if err := c.sendEnvelope(env); err != nil {
			return err
		}
		c.lastAcked = env.Sequence
	}
	return nil
}

func (c *connection) sendEnvelope(env broadcast.Envelope) error {
	switch env.Event.Kind {
	case broadcast.EvSelectionChanged, broadcast.EvWorkspaceActivated, broadcast.EvWorkspaceCreated, broadcast.EvFloatingToggled:
		payload, err := protocol.EncodeWorkspaceChanged(protocol.WorkspaceChanged{
			EventKind:    uint8(env.Event.Kind),
			Space:        uint64(env.Event.Space),
			WorkspaceIdx: env.Event.Workspace.Index,
			WorkspaceGen: env.Event.Workspace.Gen,
			WindowPid:    env.Event.Window.Pid,
			WindowIdx:    env.Event.Window.Idx,
		})
		if err != nil {
			return err
		}
		return c.writeSequenced(protocol.MsgWorkspaceChanged, env.Sequence, payload)
	default: // EvLayoutChanged, EvWindowAdded, EvWindowRemoved, EvWindowMinimized
		hasFrame := env.Event.Kind == broadcast.EvLayoutChanged && !env.Event.Window.IsZero()
		payload, err := protocol.EncodeWindowsChanged(protocol.WindowsChanged{
			EventKind: uint8(env.Event.Kind),
			Space:     uint64(env.Event.Space),
			WindowPid: env.Event.Window.Pid,
			WindowIdx: env.Event.Window.Idx,
			HasFrame:  hasFrame,
			FrameX:    env.Event.Frame.X,
			FrameY:    env.Event.Frame.Y,
			FrameW:    env.Event.Frame.W,
			FrameH:    env.Event.Frame.H,
		})
		if err != nil {
			return err
		}
		return c.writeSequenced(protocol.MsgWindowsChanged, env.Sequence, payload)
	}
}

func (c *connection) writeSequenced(t protocol.MessageType, seq uint64, payload []byte) error {
	return c.writeMessage(protocol.Header{Version: protocol.Version, Type: t, Flags: protocol.FlagChecksum, SessionID: c.session.id, Sequence: seq}, payload)
}

func (c *connection) write(t protocol.MessageType, payload []byte) error {
	return c.writeMessage(protocol.Header{Version: protocol.Version, Type: t, Flags: protocol.FlagChecksum, SessionID: c.session.id}, payload)
}

func (c *connection) writeMessage(hdr protocol.Header, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteMessage(c.conn, hdr, payload)
}
