// Copyright © 2025 Skyline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/messages_test.go
// Summary: Exercises messages behaviour to ensure the protocol definitions remains reliable.
// Usage: Executed during `go test` to guard against regressions.
// Notes: Keep changes backward-compatible; any additions require coordinated version bumps.

package protocol

import (
	"testing"
)

func TestHelloRoundTrip(t *testing.T) {
	var id [16]byte
	copy(id[:], []byte("client-abcdefghi"))
	hello := Hello{ClientID: id, ClientName: "skylinectl", Capabilities: 0xdeadbeef}
	payload, err := EncodeHello(hello)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeHello(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ClientName != hello.ClientName || decoded.Capabilities != hello.Capabilities {
		t.Fatalf("mismatch: %#v vs %#v", decoded, hello)
	}
}

func TestDisconnectNoticeRoundTrip(t *testing.T) {
	notice := DisconnectNotice{ReasonCode: 3, Message: "server shutdown"}
	payload, err := EncodeDisconnectNotice(notice)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeDisconnectNotice(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.ReasonCode != notice.ReasonCode || decoded.Message != notice.Message {
		t.Fatalf("mismatch: %#v vs %#v", decoded, notice)
	}
}

func TestErrorFrameRoundTrip(t *testing.T) {
	frame := ErrorFrame{Code: 500, Message: "bad things"}
	payload, err := EncodeErrorFrame(frame)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeErrorFrame(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Code != frame.Code || decoded.Message != frame.Message {
		t.Fatalf("mismatch: %#v vs %#v", decoded, frame)
	}
}

func TestPingPongRoundTrip(t *testing.T) {
	payload, err := EncodePing(Ping{Timestamp: 123456789})
	if err != nil {
		t.Fatalf("encode ping failed: %v", err)
	}
	pong, err := DecodePong(payload)
	if err != nil {
		t.Fatalf("decode pong failed: %v", err)
	}
	if pong.Timestamp != 123456789 {
		t.Fatalf("timestamp mismatch: %d", pong.Timestamp)
	}
}

func TestEventAckRoundTrip(t *testing.T) {
	payload, err := EncodeEventAck(EventAck{Sequence: 42})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeEventAck(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Sequence != 42 {
		t.Fatalf("sequence mismatch: %d", decoded.Sequence)
	}
}

func TestResumeRequestRoundTrip(t *testing.T) {
	var sid [16]byte
	copy(sid[:], []byte("session-12345678"))
	req := ResumeRequest{SessionID: sid, LastSequence: 99}
	payload, err := EncodeResumeRequest(req)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeResumeRequest(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.LastSequence != req.LastSequence || decoded.SessionID != req.SessionID {
		t.Fatalf("mismatch: %#v vs %#v", decoded, req)
	}
}

func TestWorkspaceChangedRoundTrip(t *testing.T) {
	w := WorkspaceChanged{EventKind: 2, Space: 7, WorkspaceIdx: 3, WorkspaceGen: 1, WindowPid: 555, WindowIdx: 9}
	payload, err := EncodeWorkspaceChanged(w)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeWorkspaceChanged(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != w {
		t.Fatalf("mismatch: %#v vs %#v", decoded, w)
	}
}

func TestWindowsChangedRoundTripWithFrame(t *testing.T) {
	w := WindowsChanged{
		EventKind: 0, Space: 4, WindowPid: 100, WindowIdx: 2,
		HasFrame: true, FrameX: 10.5, FrameY: 20.25, FrameW: 640, FrameH: 480,
	}
	payload, err := EncodeWindowsChanged(w)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeWindowsChanged(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != w {
		t.Fatalf("mismatch: %#v vs %#v", decoded, w)
	}
}

func TestWindowsChangedRoundTripWithoutFrame(t *testing.T) {
	w := WindowsChanged{EventKind: 1, Space: 4, WindowPid: 100, WindowIdx: 2, HasFrame: false}
	payload, err := EncodeWindowsChanged(w)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeWindowsChanged(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.HasFrame {
		t.Fatalf("expected HasFrame false, got true")
	}
}

func TestLayoutCommandRoundTrip(t *testing.T) {
	cmd := LayoutCommand{Name: "move_focus", Args: map[string]string{"dir": "right"}}
	payload, err := EncodeLayoutCommand(cmd)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeLayoutCommand(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Name != cmd.Name || decoded.Args["dir"] != "right" {
		t.Fatalf("mismatch: %#v vs %#v", decoded, cmd)
	}
}

func TestLayoutCommandRoundTripNoArgs(t *testing.T) {
	cmd := LayoutCommand{Name: "toggle_stack"}
	payload, err := EncodeLayoutCommand(cmd)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeLayoutCommand(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Name != cmd.Name || len(decoded.Args) != 0 {
		t.Fatalf("mismatch: %#v vs %#v", decoded, cmd)
	}
}

func TestConfigUpdatedRoundTrip(t *testing.T) {
	u := ConfigUpdated{Section: "settings", Key: "animate", Value: "false"}
	payload, err := EncodeConfigUpdated(u)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := DecodeConfigUpdated(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != u {
		t.Fatalf("mismatch: %#v vs %#v", decoded, u)
	}
}
