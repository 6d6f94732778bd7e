package ride

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/logging"
	"github.com/doudar/swiftcontrol/internal/shifting"
)

// Sync RX opcodes.
const (
	OpGet           = 0x08
	OpStatus        = 0x12
	OpReset         = 0x22
	OpVendorMessage = 0x32
	OpGetResponse   = 0x3c
	OpLogLevelSet   = 0x41
)

// Status codes carried in an OpStatus response.
const (
	StatusSuccess = 0x00
)

// keepAliveInterval is the period of the post-handshake keep-alive on
// Sync TX.
const keepAliveInterval = 5 * time.Second

// handshakeMagic is the 6-byte ASCII initiator written to Sync RX.
var handshakeMagic = []byte("RideOn")

// handshakeSignature trails the echoed RideOn in the handshake reply.
var handshakeSignature = []byte{0x01, 0x03}

// keepAlivePayload is the fixed 37-byte blob a KICKR BIKE emits on Sync TX
// every 5 seconds after the handshake. Taken verbatim from packet captures
// and treated as opaque. TODO: confirm against a real Zwift client whether
// any well-formed message would do.
var keepAlivePayload = [37]byte{
	0x2a, 0x08, 0x03, 0x12, 0x21, 0x0a, 0x1f, 0x0a,
	0x09, 0x4b, 0x49, 0x43, 0x4b, 0x52, 0x20, 0x42,
	0x49, 0x4b, 0x45, 0x12, 0x12, 0x08, 0x01, 0x10,
	0x64, 0x18, 0x00, 0x20, 0x00, 0x28, 0x00, 0x30,
	0x00, 0x38, 0x00, 0x40, 0x01,
}

// getObjects maps GET object ids to their payloads. Unknown ids answer with
// an empty payload, which Zwift accepts.
type getObjects map[uint16][]byte

// Handler owns the Zwift Ride protocol on the three Ride characteristics: it
// answers the RideOn handshake, dispatches Sync RX opcodes and emits the
// keep-alive once a handshake has completed.
type Handler struct {
	mu sync.Mutex

	mirror  *gatt.Mirror
	shift   *shifting.Controller
	objects getObjects

	handshakeComplete bool
}

// New creates a handler. serial populates the device-information GET objects.
func New(mirror *gatt.Mirror, shift *shifting.Controller, serial string) *Handler {
	return &Handler{
		mirror: mirror,
		shift:  shift,
		objects: getObjects{
			0x0010: []byte(serial),       // serial number
			0x0011: []byte("KICKR BIKE"), // model
			0x0012: {0x01, 0x04},         // hardware revision
			0x0013: {0x02, 0x00, 0x01},   // firmware revision
			0x0020: {0x64},               // battery percent
		},
	}
}

// Register adds the Zwift Ride service to the mirror and installs the Sync RX
// write handler.
func (h *Handler) Register() error {
	return h.mirror.RegisterService(gatt.RideService, []gatt.CharacteristicSpec{
		{UUID: gatt.RideSyncRX, Props: gatt.PropWrite, OnWrite: h.onSyncRXWrite},
		{UUID: gatt.RideAsyncTX, Props: gatt.PropNotify},
		{UUID: gatt.RideSyncTX, Props: gatt.PropNotify},
	})
}

// HandshakeComplete reports whether a RideOn handshake has been answered and
// not yet invalidated by subscriber loss.
func (h *Handler) HandshakeComplete() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handshakeComplete
}

// onSyncRXWrite dispatches writes to Sync RX: the RideOn handshake or an
// opcode-tagged command.
func (h *Handler) onSyncRXWrite(value []byte) {
	if bytes.Equal(value, handshakeMagic) {
		h.completeHandshake()
		return
	}
	if len(value) == 0 {
		return
	}

	switch value[0] {
	case OpGet:
		h.handleGet(value[1:])
	case OpReset:
		h.shift.Reset()
		h.replyStatus(StatusSuccess)
	case OpLogLevelSet:
		h.handleLogLevel(value[1:])
	case OpVendorMessage:
		// Vendor payloads are accepted and acknowledged without
		// interpretation.
		logging.LogRawBytes("Ride vendor message", value[1:])
		h.replyStatus(StatusSuccess)
	default:
		// Permissive: unknown opcodes are acknowledged so the app never
		// disconnects over an unimplemented command.
		logging.Debug("Unhandled Ride opcode",
			zap.Uint8("opcode", value[0]),
			zap.Int("payload_length", len(value)-1),
		)
		h.replyStatus(StatusSuccess)
	}
}

// completeHandshake emits the signed RideOn reply on Sync TX and arms the
// keep-alive.
func (h *Handler) completeHandshake() {
	reply := make([]byte, 0, len(handshakeMagic)+len(handshakeSignature))
	reply = append(reply, handshakeMagic...)
	reply = append(reply, handshakeSignature...)

	if err := h.mirror.Notify(gatt.RideSyncTX, reply); err != nil {
		logging.Warn("RideOn reply failed", zap.Error(err))
	}

	h.mu.Lock()
	h.handshakeComplete = true
	h.mu.Unlock()

	logging.Info("RideOn handshake complete")
}

// handleGet answers an object query. The id is one or two bytes
// (little-endian); the response echoes the id little-endian followed by the
// object payload, empty for unknown objects.
func (h *Handler) handleGet(payload []byte) {
	var id uint16
	switch len(payload) {
	case 0:
		h.replyStatus(StatusSuccess)
		return
	case 1:
		id = uint16(payload[0])
	default:
		id = binary.LittleEndian.Uint16(payload[:2])
	}

	obj := h.objects[id]
	reply := make([]byte, 3, 3+len(obj))
	reply[0] = OpGetResponse
	binary.LittleEndian.PutUint16(reply[1:3], id)
	reply = append(reply, obj...)

	if err := h.mirror.Notify(gatt.RideSyncTX, reply); err != nil {
		logging.Warn("Ride GET reply failed", zap.Error(err))
	}
}

// handleLogLevel maps the app-requested level onto the bridge logger.
func (h *Handler) handleLogLevel(payload []byte) {
	if len(payload) >= 1 {
		levels := map[byte]string{0: "error", 1: "warn", 2: "info", 3: "debug"}
		if level, ok := levels[payload[0]]; ok {
			if err := logging.SetLevel(level); err != nil {
				logging.Warn("Log level change failed", zap.Error(err))
			}
		}
	}
	h.replyStatus(StatusSuccess)
}

// replyStatus emits an [OpStatus, code] response on Sync TX.
func (h *Handler) replyStatus(code byte) {
	if err := h.mirror.Notify(gatt.RideSyncTX, []byte{OpStatus, code}); err != nil {
		logging.Warn("Ride status reply failed", zap.Error(err))
	}
}

// Run emits the keep-alive every 5 seconds while a handshake is complete and
// Sync TX has subscribers. Losing the last subscriber returns the state
// machine to idle; the next RideOn re-arms it. Missed ticks are absorbed by
// the next one.
func (h *Handler) Run(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick()
		}
	}
}

func (h *Handler) tick() {
	subscribed := h.mirror.HasSubscribers(gatt.RideSyncTX)

	h.mu.Lock()
	if h.handshakeComplete && !subscribed {
		h.handshakeComplete = false
		h.mu.Unlock()
		logging.Info("Sync TX subscribers gone, handshake reset")
		return
	}
	active := h.handshakeComplete
	h.mu.Unlock()

	if !active {
		return
	}

	if err := h.mirror.Notify(gatt.RideSyncTX, keepAlivePayload[:]); err != nil {
		logging.Warn("Keep-alive failed", zap.Error(err))
	}
}
