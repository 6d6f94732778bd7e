package server

import (
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/logging"
	"github.com/doudar/swiftcontrol/internal/monitor"
	"github.com/doudar/swiftcontrol/internal/tnp"
)

const (
	// recvBufferSize is the per-session receive buffer. A frame that cannot
	// fit is answered with UNEXPECTED_ERROR and the buffer discarded, since
	// it could otherwise never complete.
	recvBufferSize = 256

	// outQueueSize bounds the per-session outbound queue. Responses block on
	// a full queue (backpressure on the peer's own requests); notifications
	// are dropped for this session only.
	outQueueSize = 32
)

// Session owns one TCP connection: it drains TNP frames from the receive
// buffer, dispatches requests against the mirror and serializes all outbound
// traffic through a single writer goroutine so responses and notifications
// interleave in enqueue order.
type Session struct {
	id     string
	conn   net.Conn
	mirror *gatt.Mirror
	hub    *monitor.Hub

	buf [recvBufferSize]byte
	n   int

	out       chan *tnp.Frame
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(id string, conn net.Conn, mirror *gatt.Mirror, hub *monitor.Hub) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		mirror: mirror,
		hub:    hub,
		out:    make(chan *tnp.Frame, outQueueSize),
		done:   make(chan struct{}),
	}
}

// SubscriberID implements gatt.Subscriber.
func (s *Session) SubscriberID() string {
	return s.id
}

// Notify implements gatt.Subscriber: the value is framed as an unsolicited
// notification and queued. A full queue drops the notification for this
// session; other subscribers are unaffected.
func (s *Session) Notify(u gatt.UUID, value []byte) {
	frame := tnp.Notification(u, value)
	select {
	case s.out <- frame:
	case <-s.done:
	default:
		logging.Warn("Notification dropped, outbound queue full",
			zap.String("session", s.id),
			zap.String("uuid", u.String()),
		)
	}
}

// run reads until the connection fails, then tears the session down. The
// subscription cleanup is unconditional: it runs on every exit path.
func (s *Session) run() {
	remote := s.conn.RemoteAddr().String()
	logging.LogConnection(remote, "session_started")

	go s.writeLoop()

	defer func() {
		s.close()
		s.mirror.DropSession(s.id)
		logging.LogConnection(remote, "session_closed")
	}()

	for {
		nr, err := s.conn.Read(s.buf[s.n:])
		if err != nil || nr == 0 {
			if err != nil {
				logging.Debug("Session read ended",
					zap.String("session", s.id),
					zap.Error(err),
				)
			}
			return
		}
		s.n += nr
		s.drain(remote)
	}
}

// drain parses and dispatches as many complete frames as the buffer holds.
func (s *Session) drain(remote string) {
	for {
		frame, consumed, err := tnp.Decode(s.buf[:s.n])
		if err != nil {
			// Incomplete. A full buffer without a complete frame means the
			// peer announced a body that can never fit; answer and resync.
			if s.n == len(s.buf) {
				logging.Warn("Oversized frame, discarding buffer",
					zap.String("session", s.id),
				)
				s.respond(&tnp.Frame{MessageID: s.buf[1], Sequence: s.buf[2]}, tnp.RespUnexpectedError, nil)
				s.n = 0
			}
			return
		}
		copy(s.buf[:], s.buf[consumed:s.n])
		s.n -= consumed

		s.hub.PublishFrame(remote, "received", frame)
		logging.LogFrame(remote, "received", tnp.MessageName(frame.MessageID), frame.Sequence, frame.Body)
		s.handleFrame(frame)
	}
}

// handleFrame dispatches one parsed frame. Every inbound frame with response
// code 0 is treated as a request; our own notifications carry sequence 0 and
// peers echo a non-zero response code when they answer them, so there is no
// first-contact ambiguity.
func (s *Session) handleFrame(f *tnp.Frame) {
	if f.ResponseCode != tnp.RespSuccess {
		// A response to one of our notifications; nothing to do.
		logging.Debug("Peer response",
			zap.String("session", s.id),
			zap.String("response", tnp.ResponseName(f.ResponseCode)),
		)
		return
	}
	if f.Version != tnp.ProtocolVersion {
		s.respond(f, tnp.RespUnknownProtocol, nil)
		return
	}

	switch f.MessageID {
	case tnp.MsgDiscoverServices:
		s.handleDiscoverServices(f)
	case tnp.MsgDiscoverCharacteristics:
		s.handleDiscoverCharacteristics(f)
	case tnp.MsgRead:
		s.handleRead(f)
	case tnp.MsgWrite:
		s.handleWrite(f)
	case tnp.MsgEnableNotifications:
		s.handleEnableNotifications(f)
	case tnp.MsgNotification:
		// Peers do not notify a peripheral; tolerate and ignore.
	default:
		s.respond(f, tnp.RespUnknownMessageType, nil)
	}
}

func (s *Session) handleDiscoverServices(f *tnp.Frame) {
	if len(f.Body) != 0 {
		s.respond(f, tnp.RespUnexpectedError, nil)
		return
	}

	var body []byte
	for _, u := range s.mirror.ServiceUUIDs() {
		body = tnp.AppendUUID(body, u)
	}
	s.respond(f, tnp.RespSuccess, body)
}

func (s *Session) handleDiscoverCharacteristics(f *tnp.Frame) {
	if len(f.Body) != gatt.UUIDSize {
		s.respond(f, tnp.RespUnexpectedError, nil)
		return
	}
	u, err := tnp.UUIDAt(f.Body, 0)
	if err != nil {
		s.respond(f, tnp.RespUnexpectedError, nil)
		return
	}

	info, err := s.mirror.Service(u)
	if err != nil {
		s.respond(f, tnp.RespServiceNotFound, nil)
		return
	}

	body := tnp.AppendUUID(nil, info.UUID)
	for _, c := range info.Characteristics {
		body = tnp.AppendUUID(body, c.UUID)
		body = append(body, byte(c.Props))
	}
	s.respond(f, tnp.RespSuccess, body)
}

func (s *Session) handleRead(f *tnp.Frame) {
	if len(f.Body) != gatt.UUIDSize {
		s.respond(f, tnp.RespUnexpectedError, nil)
		return
	}
	u, _ := tnp.UUIDAt(f.Body, 0)

	props, err := s.mirror.Properties(u)
	if err != nil {
		s.respond(f, tnp.RespCharacteristicNotFound, nil)
		return
	}
	if props&gatt.PropRead == 0 {
		s.respond(f, tnp.RespOperationNotSupported, nil)
		return
	}

	value, err := s.mirror.Value(u)
	if err != nil {
		s.respond(f, tnp.RespUnexpectedError, nil)
		return
	}
	body := tnp.AppendUUID(nil, u)
	body = append(body, value...)
	s.respond(f, tnp.RespSuccess, body)
}

// handleWrite validates the target, queues the acknowledgment, then commits
// the write. The order matters: the mirror invokes write handlers during
// Write, and any notification a handler emits must trail the ack in the
// outbound queue. Validation up front means the commit cannot fail after the
// ack is queued (the tree never shrinks and properties are immutable).
func (s *Session) handleWrite(f *tnp.Frame) {
	if len(f.Body) < gatt.UUIDSize {
		s.respond(f, tnp.RespUnexpectedError, nil)
		return
	}
	u, _ := tnp.UUIDAt(f.Body, 0)
	value := f.Body[gatt.UUIDSize:]

	props, err := s.mirror.Properties(u)
	if err != nil {
		s.respond(f, tnp.RespCharacteristicNotFound, nil)
		return
	}
	if props&gatt.PropWrite == 0 {
		s.respond(f, tnp.RespOperationNotSupported, nil)
		return
	}
	if len(value) > gatt.MaxValueSize {
		s.respond(f, tnp.RespWriteFailed, nil)
		return
	}

	s.respond(f, tnp.RespSuccess, tnp.AppendUUID(nil, u))

	if err := s.mirror.Write(u, value); err != nil {
		logging.Warn("Mirror write failed after validation",
			zap.String("session", s.id),
			zap.String("uuid", u.String()),
			zap.Error(err),
		)
	}
}

// handleEnableNotifications flips this session's subscription. Byte 16 of the
// body governs enable/disable; trailing bytes are ignored for
// interoperability with clients that append padding.
func (s *Session) handleEnableNotifications(f *tnp.Frame) {
	if len(f.Body) < gatt.UUIDSize+1 {
		s.respond(f, tnp.RespUnexpectedError, nil)
		return
	}
	u, _ := tnp.UUIDAt(f.Body, 0)
	enable := f.Body[gatt.UUIDSize] != 0

	if enable {
		err := s.mirror.Subscribe(s, u)
		switch err {
		case nil:
		case gatt.ErrNoSuchCharacteristic:
			s.respond(f, tnp.RespCharacteristicNotFound, nil)
			return
		case gatt.ErrNotSubscribable:
			s.respond(f, tnp.RespOperationNotSupported, nil)
			return
		default:
			s.respond(f, tnp.RespUnexpectedError, nil)
			return
		}
	} else {
		s.mirror.Unsubscribe(s.id, u)
	}

	s.respond(f, tnp.RespSuccess, tnp.AppendUUID(nil, u))
}

// respond queues a response frame. Responses block on a full queue rather
// than drop: request ordering is a protocol guarantee.
func (s *Session) respond(req *tnp.Frame, code byte, body []byte) {
	select {
	case s.out <- tnp.Response(req, code, body):
	case <-s.done:
	}
}

// writeLoop is the only goroutine writing to the socket.
func (s *Session) writeLoop() {
	remote := s.conn.RemoteAddr().String()
	for {
		select {
		case frame := <-s.out:
			s.hub.PublishFrame(remote, "sent", frame)
			logging.LogFrame(remote, "sent", tnp.MessageName(frame.MessageID), frame.Sequence, frame.Body)
			if _, err := s.conn.Write(tnp.Encode(frame)); err != nil {
				logging.Debug("Session write failed",
					zap.String("session", s.id),
					zap.Error(err),
				)
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// close shuts the socket and wakes both loops. Safe to call repeatedly.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}
