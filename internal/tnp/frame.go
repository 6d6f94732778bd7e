package tnp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/doudar/swiftcontrol/internal/gatt"
)

// Protocol constants.
const (
	// ProtocolVersion is the only TNP protocol version in the wild.
	ProtocolVersion = 0x01

	// HeaderSize is the fixed frame header: version, message id, sequence,
	// response code, 2-byte big-endian body length.
	HeaderSize = 6
)

// Message identifiers.
const (
	MsgDiscoverServices        = 0x01
	MsgDiscoverCharacteristics = 0x02
	MsgRead                    = 0x03
	MsgWrite                   = 0x04
	MsgEnableNotifications     = 0x05
	MsgNotification            = 0x06
)

// Response codes.
const (
	RespSuccess                = 0x00
	RespUnknownMessageType     = 0x01
	RespUnexpectedError        = 0x02
	RespServiceNotFound        = 0x03
	RespCharacteristicNotFound = 0x04
	RespOperationNotSupported  = 0x05
	RespWriteFailed            = 0x06
	RespUnknownProtocol        = 0x07
)

// ErrIncomplete indicates the buffer does not yet contain a complete frame.
// The caller retains the buffer and waits for more data.
var ErrIncomplete = errors.New("tnp: incomplete frame")

// Frame is a parsed TNP message. Body layouts are message-specific; UUIDs in
// a body are byte-reversed on the wire and converted by AppendUUID/UUIDAt, so
// a Frame's Body always carries wire-order bytes.
type Frame struct {
	Version      byte
	MessageID    byte
	Sequence     byte
	ResponseCode byte
	Body         []byte
}

// Decode parses one frame from the front of buf. It returns the frame and
// the number of bytes consumed, or ErrIncomplete when buf does not hold a
// complete frame yet. Header validation (version, message id) is left to the
// dispatcher so it can echo the sequence in its error reply.
func Decode(buf []byte) (*Frame, int, error) {
	if len(buf) < HeaderSize {
		return nil, 0, ErrIncomplete
	}
	bodyLen := int(binary.BigEndian.Uint16(buf[4:6]))
	total := HeaderSize + bodyLen
	if len(buf) < total {
		return nil, 0, ErrIncomplete
	}

	f := &Frame{
		Version:      buf[0],
		MessageID:    buf[1],
		Sequence:     buf[2],
		ResponseCode: buf[3],
	}
	if bodyLen > 0 {
		f.Body = append([]byte(nil), buf[HeaderSize:total]...)
	}
	return f, total, nil
}

// Encode serializes a frame into wire bytes.
func Encode(f *Frame) []byte {
	out := make([]byte, HeaderSize+len(f.Body))
	out[0] = f.Version
	out[1] = f.MessageID
	out[2] = f.Sequence
	out[3] = f.ResponseCode
	binary.BigEndian.PutUint16(out[4:6], uint16(len(f.Body)))
	copy(out[HeaderSize:], f.Body)
	return out
}

// AppendUUID appends a UUID to a frame body in wire order. The wire carries
// all 16 bytes reversed relative to the canonical textual form; the reversal
// is symmetric, so the same transform decodes.
func AppendUUID(dst []byte, u gatt.UUID) []byte {
	for i := gatt.UUIDSize - 1; i >= 0; i-- {
		dst = append(dst, u[i])
	}
	return dst
}

// UUIDAt reads a wire-order UUID starting at offset off in body.
func UUIDAt(body []byte, off int) (gatt.UUID, error) {
	var u gatt.UUID
	if off < 0 || len(body) < off+gatt.UUIDSize {
		return u, fmt.Errorf("tnp: body too short for UUID at offset %d", off)
	}
	for i := 0; i < gatt.UUIDSize; i++ {
		u[i] = body[off+gatt.UUIDSize-1-i]
	}
	return u, nil
}

// Response constructs a response frame echoing the request's identifier and
// sequence.
func Response(req *Frame, code byte, body []byte) *Frame {
	return &Frame{
		Version:      ProtocolVersion,
		MessageID:    req.MessageID,
		Sequence:     req.Sequence,
		ResponseCode: code,
		Body:         body,
	}
}

// Notification constructs an unsolicited notification frame for a
// characteristic value. Notifications always carry sequence 0.
func Notification(u gatt.UUID, value []byte) *Frame {
	body := make([]byte, 0, gatt.UUIDSize+len(value))
	body = AppendUUID(body, u)
	body = append(body, value...)
	return &Frame{
		Version:   ProtocolVersion,
		MessageID: MsgNotification,
		Body:      body,
	}
}

// MessageName returns a human-readable name for a message identifier.
func MessageName(id byte) string {
	switch id {
	case MsgDiscoverServices:
		return "DISCOVER_SERVICES"
	case MsgDiscoverCharacteristics:
		return "DISCOVER_CHARACTERISTICS"
	case MsgRead:
		return "READ"
	case MsgWrite:
		return "WRITE"
	case MsgEnableNotifications:
		return "ENABLE_NOTIFICATIONS"
	case MsgNotification:
		return "NOTIFICATION"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", id)
	}
}

// ResponseName returns a human-readable name for a response code.
func ResponseName(code byte) string {
	switch code {
	case RespSuccess:
		return "SUCCESS"
	case RespUnknownMessageType:
		return "UNKNOWN_MESSAGE_TYPE"
	case RespUnexpectedError:
		return "UNEXPECTED_ERROR"
	case RespServiceNotFound:
		return "SERVICE_NOT_FOUND"
	case RespCharacteristicNotFound:
		return "CHARACTERISTIC_NOT_FOUND"
	case RespOperationNotSupported:
		return "OPERATION_NOT_SUPPORTED"
	case RespWriteFailed:
		return "WRITE_FAILED"
	case RespUnknownProtocol:
		return "UNKNOWN_PROTOCOL"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", code)
	}
}

// String returns a debug representation of the frame.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{ver=0x%02x, type=%s, seq=%d, resp=%s, body=%d bytes}",
		f.Version, MessageName(f.MessageID), f.Sequence, ResponseName(f.ResponseCode), len(f.Body))
}
