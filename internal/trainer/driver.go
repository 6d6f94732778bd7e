// Package trainer defines the contract between the bridge and the physical
// trainer hardware.
//
// The core never drives hardware directly; it clamps and debounces incline
// setpoints and hands them to a Driver. Real implementations talk FTMS or a
// vendor protocol to the trainer; the Nop driver lets the bridge run without
// hardware attached.
package trainer

import (
	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/logging"
)

// Driver applies incline setpoints to the trainer.
type Driver interface {
	// SetTargetIncline sets the trainer incline in signed 0.01% units,
	// already clamped to [-2000, +2000] by the caller.
	SetTargetIncline(bp int32) error
}

// Nop is a driver that logs setpoints and otherwise does nothing. Used when
// the bridge runs without trainer hardware.
type Nop struct{}

// SetTargetIncline implements Driver.
func (Nop) SetTargetIncline(bp int32) error {
	logging.Debug("Trainer incline setpoint",
		zap.Int32("incline_bp", bp),
	)
	return nil
}
