package ftms

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/logging"
	"github.com/doudar/swiftcontrol/internal/shifting"
)

// Control point op codes (Bluetooth FTMS 4.16.1).
const (
	OpRequestControl       = 0x00
	OpReset                = 0x01
	OpSetTargetInclination = 0x03
	OpStartOrResume        = 0x07
	OpStopOrPause          = 0x08
	OpSetIndoorBikeSim     = 0x11
	OpResponseCode         = 0x80
)

// Control point result codes.
const (
	ResultSuccess            = 0x01
	ResultOpCodeNotSupported = 0x02
	ResultInvalidParameter   = 0x03
)

// Machine status op codes notified on the FTMS Status characteristic.
const (
	statusReset          = 0x01
	statusStartedResumed = 0x04
	statusStoppedPaused  = 0x02
)

// featureValue is the 8-byte Fitness Machine Feature value: the cadence and
// inclination bits in the machine features word, and the inclination, power
// and indoor-bike-simulation target bits in the target settings word.
var featureValue = []byte{
	0x0a, 0x00, 0x00, 0x00, // machine features: cadence, inclination
	0x0a, 0x20, 0x00, 0x00, // targets: inclination, power, bike simulation
}

// Service is the FTMS collaborator. It registers the Fitness Machine
// characteristics on the mirror, owns control-point and simulation-parameter
// write parsing, and feeds decoded base gradients into the shift controller.
type Service struct {
	mirror *gatt.Mirror
	shift  *shifting.Controller
}

// New creates the FTMS collaborator.
func New(mirror *gatt.Mirror, shift *shifting.Controller) *Service {
	return &Service{mirror: mirror, shift: shift}
}

// Register adds the Fitness Machine service to the mirror with this
// collaborator's write handlers installed.
func (s *Service) Register() error {
	return s.mirror.RegisterService(gatt.FTMSService, []gatt.CharacteristicSpec{
		{UUID: gatt.FTMSFeature, Props: gatt.PropRead, Value: featureValue},
		{UUID: gatt.FTMSIndoorBikeData, Props: gatt.PropNotify},
		{UUID: gatt.FTMSSimulationParams, Props: gatt.PropWrite, OnWrite: s.onSimulationParams},
		{UUID: gatt.FTMSControlPoint, Props: gatt.PropWrite | gatt.PropIndicate, OnWrite: s.onControlPoint},
		{UUID: gatt.FTMSMachineStatus, Props: gatt.PropNotify},
	})
}

// onSimulationParams decodes an Indoor Bike Simulation Parameters write:
// wind speed sint16 mm/s, grade sint16 0.01%, CRR uint8 0.0001, CW uint8
// 0.01 kg/m, all little-endian. Some apps write the control-point form with
// the 0x11 op code prefixed; both are accepted.
func (s *Service) onSimulationParams(value []byte) {
	if len(value) >= 7 && value[0] == OpSetIndoorBikeSim {
		value = value[1:]
	}
	if len(value) < 6 {
		logging.Warn("Short simulation parameters write",
			zap.Int("length", len(value)),
		)
		return
	}

	grade := int16(binary.LittleEndian.Uint16(value[2:4]))
	logging.Debug("Simulation parameters",
		zap.Int16("wind_mm_s", int16(binary.LittleEndian.Uint16(value[0:2]))),
		zap.Int16("grade_bp", grade),
		zap.Uint8("crr", value[4]),
		zap.Uint8("cw", value[5]),
	)
	s.shift.SetBaseGradient(int32(grade))
}

// onControlPoint parses a Fitness Machine Control Point write and indicates
// the [0x80, op, result] response. Only the op codes the bridge needs are
// implemented; everything else answers OpCodeNotSupported.
func (s *Service) onControlPoint(value []byte) {
	if len(value) == 0 {
		s.indicate(0x00, ResultInvalidParameter)
		return
	}

	op := value[0]
	params := value[1:]

	switch op {
	case OpRequestControl:
		s.indicate(op, ResultSuccess)

	case OpReset:
		s.shift.Reset()
		s.indicate(op, ResultSuccess)
		s.notifyStatus([]byte{statusReset})

	case OpSetTargetInclination:
		// sint16 little-endian, 0.1% units.
		if len(params) < 2 {
			s.indicate(op, ResultInvalidParameter)
			return
		}
		tenths := int16(binary.LittleEndian.Uint16(params[:2]))
		s.shift.SetBaseGradient(int32(tenths) * 10)
		s.indicate(op, ResultSuccess)

	case OpSetIndoorBikeSim:
		if len(params) < 6 {
			s.indicate(op, ResultInvalidParameter)
			return
		}
		grade := int16(binary.LittleEndian.Uint16(params[2:4]))
		s.shift.SetBaseGradient(int32(grade))
		s.indicate(op, ResultSuccess)

	case OpStartOrResume:
		s.indicate(op, ResultSuccess)
		s.notifyStatus([]byte{statusStartedResumed})

	case OpStopOrPause:
		s.indicate(op, ResultSuccess)
		s.notifyStatus([]byte{statusStoppedPaused})

	default:
		logging.Debug("Unsupported FTMS op code", zap.Uint8("op", op))
		s.indicate(op, ResultOpCodeNotSupported)
	}
}

// indicate emits the control point response. The write acknowledgment has
// already been queued by the transport when the handler runs, so the
// indication always trails the ack.
func (s *Service) indicate(op, result byte) {
	if err := s.mirror.Notify(gatt.FTMSControlPoint, []byte{OpResponseCode, op, result}); err != nil {
		logging.Warn("FTMS control point indication failed", zap.Error(err))
	}
}

func (s *Service) notifyStatus(value []byte) {
	if err := s.mirror.Notify(gatt.FTMSMachineStatus, value); err != nil {
		logging.Warn("FTMS status notification failed", zap.Error(err))
	}
}
