package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
	errPayloadShort  = errors.New("protocol: payload too short")
)

// Hello initiates the handshake from client to server.
type Hello struct {
	ClientID     [16]byte
	ClientName   string
	Capabilities uint32
}

// Welcome is returned by the server acknowledging the handshake.
type Welcome struct {
	SessionID  [16]byte
	ServerName string
}

// ConnectRequest attaches or creates a session on the server.
type ConnectRequest struct {
	SessionID [16]byte
}

// ConnectAccept is returned once the session is ready.
type ConnectAccept struct {
	SessionID       [16]byte
	ResumeSupported bool
}

// ResumeRequest asks the server to replay buffered events from a sequence
// point, mapping directly onto broadcast.Subscriber.Pending(after).
type ResumeRequest struct {
	SessionID    [16]byte
	LastSequence uint64
}

// ResumeData carries any metadata needed to resume a session.
type ResumeData struct {
	SessionID    [16]byte
	FromSequence uint64
}

// DisconnectNotice informs the peer that the session is closing.
type DisconnectNotice struct {
	ReasonCode uint16
	Message    string
}

// Ping/Pong keep the connection alive.
type Ping struct {
	Timestamp int64
}

type Pong struct {
	Timestamp int64
}

// ErrorFrame communicates protocol-level errors.
type ErrorFrame struct {
	Code    uint16
	Message string
}

// EventAck acknowledges receipt of broadcast events up to the provided
// sequence (mirrors broadcast.Subscriber.Ack).
type EventAck struct {
	Sequence uint64
}

// WorkspaceChanged mirrors a broadcast.BroadcastEvent whose Kind is one
// of EvSelectionChanged/EvWorkspaceActivated/EvWorkspaceCreated/
// EvFloatingToggled: something about workspace or selection state
// changed, named by EventKind rather than re-deriving a separate wire
// enum.
type WorkspaceChanged struct {
	EventKind     uint8
	Space         uint64
	WorkspaceIdx  uint32
	WorkspaceGen  uint32
	WindowPid     uint32
	WindowIdx     uint32
}

// WindowsChanged mirrors a broadcast.BroadcastEvent whose Kind is
// EvLayoutChanged/EvWindowAdded/EvWindowRemoved, carrying the affected
// window and (when meaningful) its new frame.
type WindowsChanged struct {
	EventKind uint8
	Space     uint64
	WindowPid uint32
	WindowIdx uint32
	HasFrame  bool
	FrameX    float64
	FrameY    float64
	FrameW    float64
	FrameH    float64
}

// LayoutCommand carries one inputsrc.Command across the wire, used both
// by a real hotkey-tap client and by skylinectl's `cmd` subcommand.
type LayoutCommand struct {
	Name string
	Args map[string]string
}

// ConfigUpdated announces that a config.Section value changed, so a
// connected client (or skylinectl) can refresh its view without
// polling.
type ConfigUpdated struct {
	Section string
	Key     string
	Value   string
}

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if uint16(len(b)) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(h.ClientName)))
	buf.Write(h.ClientID[:])
	if err := encodeString(buf, h.ClientName); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Capabilities); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	if len(b) < 16 {
		return h, errPayloadShort
	}
	copy(h.ClientID[:], b[:16])
	b = b[16:]
	name, rest, err := decodeString(b)
	if err != nil {
		return h, err
	}
	h.ClientName = name
	if len(rest) < 4 {
		return h, errPayloadShort
	}
	h.Capabilities = binary.LittleEndian.Uint32(rest[:4])
	return h, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(w.ServerName)))
	buf.Write(w.SessionID[:])
	if err := encodeString(buf, w.ServerName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	var w Welcome
	if len(b) < 16 {
		return w, errPayloadShort
	}
	copy(w.SessionID[:], b[:16])
	name, _, err := decodeString(b[16:])
	if err != nil {
		return w, err
	}
	w.ServerName = name
	return w, nil
}

func EncodeConnectRequest(c ConnectRequest) ([]byte, error) {
	return c.SessionID[:], nil
}

func DecodeConnectRequest(b []byte) (ConnectRequest, error) {
	var c ConnectRequest
	if len(b) < 16 {
		return c, errPayloadShort
	}
	copy(c.SessionID[:], b[:16])
	return c, nil
}

func EncodeConnectAccept(c ConnectAccept) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 17))
	buf.Write(c.SessionID[:])
	if c.ResumeSupported {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func DecodeConnectAccept(b []byte) (ConnectAccept, error) {
	var c ConnectAccept
	if len(b) < 17 {
		return c, errPayloadShort
	}
	copy(c.SessionID[:], b[:16])
	c.ResumeSupported = b[16] != 0
	return c, nil
}

func EncodeResumeRequest(r ResumeRequest) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 24))
	buf.Write(r.SessionID[:])
	if err := binary.Write(buf, binary.LittleEndian, r.LastSequence); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeResumeRequest(b []byte) (ResumeRequest, error) {
	var r ResumeRequest
	if len(b) < 24 {
		return r, errPayloadShort
	}
	copy(r.SessionID[:], b[:16])
	r.LastSequence = binary.LittleEndian.Uint64(b[16:24])
	return r, nil
}

func EncodeResumeData(r ResumeData) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 24))
	buf.Write(r.SessionID[:])
	if err := binary.Write(buf, binary.LittleEndian, r.FromSequence); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeResumeData(b []byte) (ResumeData, error) {
	var r ResumeData
	if len(b) < 24 {
		return r, errPayloadShort
	}
	copy(r.SessionID[:], b[:16])
	r.FromSequence = binary.LittleEndian.Uint64(b[16:24])
	return r, nil
}

func EncodeDisconnectNotice(d DisconnectNotice) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(d.Message)))
	if err := binary.Write(buf, binary.LittleEndian, d.ReasonCode); err != nil {
		return nil, err
	}
	if err := encodeString(buf, d.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeDisconnectNotice(b []byte) (DisconnectNotice, error) {
	var d DisconnectNotice
	if len(b) < 2 {
		return d, errPayloadShort
	}
	d.ReasonCode = binary.LittleEndian.Uint16(b[:2])
	msg, _, err := decodeString(b[2:])
	if err != nil {
		return d, err
	}
	d.Message = msg
	return d, nil
}

func EncodePing(p Ping) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, p.Timestamp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodePing(b []byte) (Ping, error) {
	var p Ping
	if len(b) < 8 {
		return p, errPayloadShort
	}
	p.Timestamp = int64(binary.LittleEndian.Uint64(b[:8]))
	return p, nil
}

func EncodePong(p Pong) ([]byte, error) {
	return EncodePing(Ping{Timestamp: p.Timestamp})
}

func DecodePong(b []byte) (Pong, error) {
	ping, err := DecodePing(b)
	if err != nil {
		return Pong{}, err
	}
	return Pong{Timestamp: ping.Timestamp}, nil
}

func EncodeErrorFrame(e ErrorFrame) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4+len(e.Message)))
	if err := binary.Write(buf, binary.LittleEndian, e.Code); err != nil {
		return nil, err
	}
	if err := encodeString(buf, e.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeErrorFrame(b []byte) (ErrorFrame, error) {
	var e ErrorFrame
	if len(b) < 2 {
		return e, errPayloadShort
	}
	e.Code = binary.LittleEndian.Uint16(b[:2])
	msg, _, err := decodeString(b[2:])
	if err != nil {
		return e, err
	}
	e.Message = msg
	return e, nil
}

func EncodeEventAck(a EventAck) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, a.Sequence); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeEventAck(b []byte) (EventAck, error) {
	var ack EventAck
	if len(b) < 8 {
		return ack, errPayloadShort
	}
	ack.Sequence = binary.LittleEndian.Uint64(b[:8])
	return ack, nil
}

func EncodeWorkspaceChanged(w WorkspaceChanged) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 25))
	buf.WriteByte(w.EventKind)
	if err := binary.Write(buf, binary.LittleEndian, w.Space); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.WorkspaceIdx); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.WorkspaceGen); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.WindowPid); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.WindowIdx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWorkspaceChanged(b []byte) (WorkspaceChanged, error) {
	var w WorkspaceChanged
	if len(b) < 25 {
		return w, errPayloadShort
	}
	w.EventKind = b[0]
	b = b[1:]
	w.Space = binary.LittleEndian.Uint64(b[0:8])
	w.WorkspaceIdx = binary.LittleEndian.Uint32(b[8:12])
	w.WorkspaceGen = binary.LittleEndian.Uint32(b[12:16])
	w.WindowPid = binary.LittleEndian.Uint32(b[16:20])
	w.WindowIdx = binary.LittleEndian.Uint32(b[20:24])
	return w, nil
}

func EncodeWindowsChanged(w WindowsChanged) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 50))
	buf.WriteByte(w.EventKind)
	if err := binary.Write(buf, binary.LittleEndian, w.Space); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.WindowPid); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.WindowIdx); err != nil {
		return nil, err
	}
	if w.HasFrame {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err := binary.Write(buf, binary.LittleEndian, w.FrameX); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.FrameY); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.FrameW); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.FrameH); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWindowsChanged(b []byte) (WindowsChanged, error) {
	var w WindowsChanged
	if len(b) < 50 {
		return w, errPayloadShort
	}
	w.EventKind = b[0]
	b = b[1:]
	w.Space = binary.LittleEndian.Uint64(b[0:8])
	w.WindowPid = binary.LittleEndian.Uint32(b[8:12])
	w.WindowIdx = binary.LittleEndian.Uint32(b[12:16])
	w.HasFrame = b[16] != 0
	b = b[17:]
	w.FrameX = math.Float64frombits(binary.LittleEndian.Uint64(b[0:8]))
	w.FrameY = math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))
	w.FrameW = math.Float64frombits(binary.LittleEndian.Uint64(b[16:24]))
	w.FrameH = math.Float64frombits(binary.LittleEndian.Uint64(b[24:32]))
	return w, nil
}

func EncodeLayoutCommand(c LayoutCommand) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := encodeString(buf, c.Name); err != nil {
		return nil, err
	}
	if len(c.Args) > 0xFFFF {
		return nil, errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(c.Args))); err != nil {
		return nil, err
	}
	for k, v := range c.Args {
		if err := encodeString(buf, k); err != nil {
			return nil, err
		}
		if err := encodeString(buf, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func DecodeLayoutCommand(b []byte) (LayoutCommand, error) {
	var c LayoutCommand
	name, rest, err := decodeString(b)
	if err != nil {
		return c, err
	}
	c.Name = name
	if len(rest) < 2 {
		return c, errPayloadShort
	}
	count := binary.LittleEndian.Uint16(rest[:2])
	rest = rest[2:]
	if count > 0 {
		c.Args = make(map[string]string, count)
	}
	for i := 0; i < int(count); i++ {
		var k, v string
		k, rest, err = decodeString(rest)
		if err != nil {
			return c, err
		}
		v, rest, err = decodeString(rest)
		if err != nil {
			return c, err
		}
		c.Args[k] = v
	}
	return c, nil
}

func EncodeConfigUpdated(u ConfigUpdated) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := encodeString(buf, u.Section); err != nil {
		return nil, err
	}
	if err := encodeString(buf, u.Key); err != nil {
		return nil, err
	}
	if err := encodeString(buf, u.Value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeConfigUpdated(b []byte) (ConfigUpdated, error) {
	var u ConfigUpdated
	section, rest, err := decodeString(b)
	if err != nil {
		return u, err
	}
	key, rest, err := decodeString(rest)
	if err != nil {
		return u, err
	}
	value, _, err := decodeString(rest)
	if err != nil {
		return u, err
	}
	u.Section = section
	u.Key = key
	u.Value = value
	return u, nil
}
