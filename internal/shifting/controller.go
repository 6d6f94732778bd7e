package shifting

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/logging"
	"github.com/doudar/swiftcontrol/internal/trainer"
)

const (
	// gradientLimitBP bounds the effective gradient sent to the trainer, in
	// 0.01% units.
	gradientLimitBP = 2000

	// applyDebounce is the minimum interval between trainer incline updates.
	// Changes arriving faster are deferred; the run loop flushes the latest
	// pending value.
	applyDebounce = 100 * time.Millisecond

	// pollInterval paces the run loop: shifter polling and debounce flushing.
	pollInterval = 100 * time.Millisecond
)

// PositionFunc reads the current physical shifter position. Monotonic
// semantics are not required; only deltas between consecutive polls matter.
type PositionFunc func() int32

// Controller translates shifter movement into virtual gear changes and
// composes the externally supplied base gradient with the current gear ratio
// into the trainer incline setpoint.
type Controller struct {
	mu sync.Mutex

	mirror *gatt.Mirror
	driver trainer.Driver
	ratios []int32

	gear        int
	lastShifter int32
	haveShifter bool

	baseBP      int32
	effectiveBP int32

	enabled   bool
	lastApply time.Time
	pending   bool
}

// New creates a controller with the default gear range, in the middle gear
// with a zero base gradient. The controller is enabled; Disable releases
// ownership of the trainer's incline setpoint.
func New(mirror *gatt.Mirror, driver trainer.Driver) *Controller {
	return NewWithGears(mirror, driver, DefaultGearCount)
}

// NewWithGears creates a controller with a custom gear count. Counts outside
// [1, DefaultGearCount] fall back to the default; the ratio table cannot
// extend past the hardware's 1.65 top ratio.
func NewWithGears(mirror *gatt.Mirror, driver trainer.Driver, gears int) *Controller {
	if gears < 1 || gears > DefaultGearCount {
		gears = DefaultGearCount
	}
	return &Controller{
		mirror:  mirror,
		driver:  driver,
		ratios:  ratioTableX100(gears),
		gear:    defaultGearFor(gears),
		enabled: true,
	}
}

// SetBaseGradient updates the base road gradient in signed 0.01% units. The
// base itself is not clamped; only the composed product is.
func (c *Controller) SetBaseGradient(bp int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.baseBP = bp
	c.applyLocked(time.Now())
}

// PollShifter feeds one shifter position sample. The first sample only
// establishes the reference; after that the delta sign drives gear direction.
func (c *Controller) PollShifter(position int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.haveShifter {
		c.lastShifter = position
		c.haveShifter = true
		return
	}

	switch {
	case position > c.lastShifter:
		c.shiftLocked(+1)
	case position < c.lastShifter:
		c.shiftLocked(-1)
	}
	c.lastShifter = position
}

// ShiftUp moves one gear up. Shifting past the top gear is silently ignored.
func (c *Controller) ShiftUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shiftLocked(+1)
}

// ShiftDown moves one gear down. Shifting past the bottom gear is silently
// ignored.
func (c *Controller) ShiftDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shiftLocked(-1)
}

// Enable hands ownership of the trainer incline setpoint to the controller.
func (c *Controller) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
	c.applyLocked(time.Now())
}

// Disable releases ownership; gear and gradient state keep updating but the
// trainer is no longer driven.
func (c *Controller) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
	c.pending = false
}

// Reset restores the default gear and zeroes both gradients, applying the
// result to the trainer if the controller is enabled.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gear = defaultGearFor(len(c.ratios))
	c.baseBP = 0
	c.effectiveBP = 0
	c.pending = false
	if c.enabled {
		if err := c.driver.SetTargetIncline(0); err != nil {
			logging.Warn("Trainer incline reset failed", zap.Error(err))
		}
		c.lastApply = time.Now()
	}
}

// Gear returns the current gear as a 1-indexed number, as displayed to the
// rider.
func (c *Controller) Gear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gear + 1
}

// EffectiveGradient returns the last composed gradient in 0.01% units.
func (c *Controller) EffectiveGradient() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effectiveBP
}

// Run polls the shifter and flushes debounced incline updates until the
// context is cancelled. poll may be nil when shifter samples are fed through
// PollShifter by an external driver.
func (c *Controller) Run(ctx context.Context, poll PositionFunc) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if poll != nil {
				c.PollShifter(poll())
			}
			c.flushPending()
		}
	}
}

// shiftLocked moves the gear by dir (+1 or -1) and recomputes. No wrap-around
// at either boundary.
func (c *Controller) shiftLocked(dir int) {
	next := c.gear + dir
	if next < 0 || next >= len(c.ratios) {
		return
	}
	c.gear = next
	c.applyLocked(time.Now())

	ratio := c.ratios[c.gear]
	logging.Info("Gear change",
		zap.Int("gear", c.gear+1),
		zap.Int32("ratio_x100", ratio),
		zap.Int32("effective_bp", c.effectiveBP),
	)

	// Gear feedback for subscribers: 1-indexed gear plus ratio x100.
	if err := c.mirror.Notify(gatt.RideAsyncTX, []byte{byte(c.gear + 1), byte(ratio)}); err != nil {
		logging.Warn("Gear notification failed", zap.Error(err))
	}
}

// applyLocked recomputes the effective gradient and pushes it to the trainer,
// subject to the debounce. Called with the mutex held.
func (c *Controller) applyLocked(now time.Time) {
	c.effectiveBP = composeGradient(c.baseBP, c.ratios[c.gear])
	if !c.enabled {
		return
	}
	if now.Sub(c.lastApply) < applyDebounce {
		// Too soon; the run loop flushes the latest value.
		c.pending = true
		return
	}
	c.pushLocked(now)
}

// flushPending applies a deferred update once the debounce window has passed.
func (c *Controller) flushPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.pending || !c.enabled || now.Sub(c.lastApply) < applyDebounce {
		return
	}
	c.pushLocked(now)
}

func (c *Controller) pushLocked(now time.Time) {
	if err := c.driver.SetTargetIncline(c.effectiveBP); err != nil {
		logging.Warn("Trainer incline update failed",
			zap.Int32("incline_bp", c.effectiveBP),
			zap.Error(err),
		)
	}
	c.lastApply = now
	c.pending = false
}

// composeGradient multiplies the base gradient by a x100 gear ratio with
// round-half-away-from-zero, clamped to the trainer limit.
func composeGradient(baseBP, ratio int32) int32 {
	p := int64(baseBP) * int64(ratio)
	var eff int64
	if p >= 0 {
		eff = (p + 50) / 100
	} else {
		eff = (p - 50) / 100
	}
	if eff > gradientLimitBP {
		eff = gradientLimitBP
	}
	if eff < -gradientLimitBP {
		eff = -gradientLimitBP
	}
	return int32(eff)
}
