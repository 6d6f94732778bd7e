package shifting

import (
	"sync"
	"testing"
	"time"

	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/trainer"
)

// fakeDriver records incline setpoints.
type fakeDriver struct {
	mu    sync.Mutex
	calls []int32
}

func (d *fakeDriver) SetTargetIncline(bp int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, bp)
	return nil
}

func (d *fakeDriver) recorded() []int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int32(nil), d.calls...)
}

// gearSubscriber records Async TX gear notifications.
type gearSubscriber struct {
	mu     sync.Mutex
	events [][]byte
}

func (g *gearSubscriber) SubscriberID() string { return "test" }

func (g *gearSubscriber) Notify(u gatt.UUID, value []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, append([]byte(nil), value...))
}

func (g *gearSubscriber) received() [][]byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.events
}

func newTestController(t *testing.T) (*Controller, *fakeDriver, *gearSubscriber) {
	t.Helper()
	m := gatt.NewMirror()
	err := m.RegisterService(gatt.RideService, []gatt.CharacteristicSpec{
		{UUID: gatt.RideSyncRX, Props: gatt.PropWrite},
		{UUID: gatt.RideAsyncTX, Props: gatt.PropNotify},
		{UUID: gatt.RideSyncTX, Props: gatt.PropNotify},
	})
	if err != nil {
		t.Fatalf("RegisterService() error = %v", err)
	}

	sub := &gearSubscriber{}
	if err := m.Subscribe(sub, gatt.RideAsyncTX); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	driver := &fakeDriver{}
	return New(m, driver), driver, sub
}

// settleDebounce backdates the last apply so the next change is not deferred.
func settleDebounce(c *Controller) {
	c.mu.Lock()
	c.lastApply = time.Now().Add(-time.Second)
	c.mu.Unlock()
}

func TestRatioTable(t *testing.T) {
	table := ratioTableX100(DefaultGearCount)
	if len(table) != DefaultGearCount {
		t.Fatalf("table length = %d, want %d", len(table), DefaultGearCount)
	}
	if table[0] != 50 {
		t.Errorf("first ratio = %d, want 50", table[0])
	}
	if table[DefaultGearCount-1] != 165 {
		t.Errorf("last ratio = %d, want 165", table[DefaultGearCount-1])
	}
	for i := 1; i < DefaultGearCount; i++ {
		if table[i] < table[i-1] {
			t.Errorf("ratio table not non-decreasing at gear %d", i)
		}
		if table[i]-table[i-1] != 5 {
			t.Errorf("ratio step at gear %d = %d, want 5", i, table[i]-table[i-1])
		}
	}
}

func TestShiftToIncline(t *testing.T) {
	// Gear 12 (ratio 1.05), base 5.00%: two upshifts must land on 5.50% and
	// then 5.75%.
	c, driver, sub := newTestController(t)

	c.SetBaseGradient(500)
	if got := c.Gear(); got != 12 {
		t.Fatalf("default gear = %d, want 12", got)
	}

	settleDebounce(c)
	c.PollShifter(0) // establishes the reference position
	c.PollShifter(1)
	if got := c.Gear(); got != 13 {
		t.Errorf("gear after first upshift = %d, want 13", got)
	}
	if got := c.EffectiveGradient(); got != 550 {
		t.Errorf("effective = %d, want 550", got)
	}

	settleDebounce(c)
	c.PollShifter(3)
	if got := c.Gear(); got != 14 {
		t.Errorf("gear after second upshift = %d, want 14", got)
	}
	if got := c.EffectiveGradient(); got != 575 {
		t.Errorf("effective = %d, want 575", got)
	}

	calls := driver.recorded()
	if len(calls) < 3 {
		t.Fatalf("driver calls = %v, want at least base+2 shifts", calls)
	}
	last2 := calls[len(calls)-2:]
	if last2[0] != 550 || last2[1] != 575 {
		t.Errorf("driver received %v, want ... 550 575", calls)
	}

	events := sub.received()
	if len(events) != 2 {
		t.Fatalf("gear notifications = %d, want 2", len(events))
	}
	if events[0][0] != 13 || events[0][1] != 110 {
		t.Errorf("first gear notification = %v, want [13 110]", events[0])
	}
	if events[1][0] != 14 || events[1][1] != 115 {
		t.Errorf("second gear notification = %v, want [14 115]", events[1])
	}
}

func TestShifterFirstSampleOnlyArms(t *testing.T) {
	c, _, sub := newTestController(t)

	c.PollShifter(42)
	if got := c.Gear(); got != 12 {
		t.Errorf("gear changed on first sample: %d", got)
	}
	if len(sub.received()) != 0 {
		t.Error("gear notification emitted on first sample")
	}

	// Equal position: no-op.
	c.PollShifter(42)
	if got := c.Gear(); got != 12 {
		t.Errorf("gear changed on equal sample: %d", got)
	}

	// Downward delta shifts down.
	settleDebounce(c)
	c.PollShifter(40)
	if got := c.Gear(); got != 11 {
		t.Errorf("gear after downshift = %d, want 11", got)
	}
}

func TestBoundaryShifts(t *testing.T) {
	c, _, _ := newTestController(t)

	// Walk to the top and push past it.
	for i := 0; i < DefaultGearCount+5; i++ {
		settleDebounce(c)
		c.ShiftUp()
	}
	if got := c.Gear(); got != DefaultGearCount {
		t.Errorf("gear at top = %d, want %d", got, DefaultGearCount)
	}

	// Walk to the bottom and push past it.
	for i := 0; i < DefaultGearCount+5; i++ {
		settleDebounce(c)
		c.ShiftDown()
	}
	if got := c.Gear(); got != 1 {
		t.Errorf("gear at bottom = %d, want 1", got)
	}
}

func TestGradientClamp(t *testing.T) {
	tests := []struct {
		name   string
		baseBP int32
		gear   int
		want   int32
	}{
		{"steep climb in top gear clamps", 2000, DefaultGearCount - 1, 2000},
		{"steep descent clamps negative", -2000, DefaultGearCount - 1, -2000},
		{"within range unclamped", 500, 11, 525},
		{"bottom gear halves", 1000, 0, 500},
		{"negative rounds away from zero", -250, 11, -263},
	}

	table := ratioTableX100(DefaultGearCount)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := composeGradient(tt.baseBP, table[tt.gear])
			if got != tt.want {
				t.Errorf("composeGradient(%d, gear %d) = %d, want %d",
					tt.baseBP, tt.gear, got, tt.want)
			}
		})
	}
}

func TestClampProperty(t *testing.T) {
	// The composed gradient never exceeds the trainer limit, whatever the
	// base: the base itself is deliberately unclamped.
	table := ratioTableX100(DefaultGearCount)
	for _, base := range []int32{-100000, -2001, -2000, -1, 0, 1, 2000, 2001, 100000} {
		for gear := 0; gear < DefaultGearCount; gear++ {
			eff := composeGradient(base, table[gear])
			if eff > gradientLimitBP || eff < -gradientLimitBP {
				t.Fatalf("composeGradient(%d, gear %d) = %d exceeds limit", base, gear, eff)
			}
		}
	}
}

func TestMonotonicInGear(t *testing.T) {
	// For a fixed positive base, effective gradient is non-decreasing in
	// gear.
	table := ratioTableX100(DefaultGearCount)
	prev := int32(-1 << 30)
	for gear := 0; gear < DefaultGearCount; gear++ {
		eff := composeGradient(800, table[gear])
		if eff < prev {
			t.Fatalf("effective gradient decreased at gear %d: %d < %d", gear, eff, prev)
		}
		prev = eff
	}
}

func TestCustomGearCount(t *testing.T) {
	tests := []struct {
		name        string
		gears       int
		wantGears   int
		wantDefault int // 1-indexed
	}{
		{"half range", 12, 12, 6},
		{"single gear", 1, 1, 1},
		{"zero falls back", 0, DefaultGearCount, 12},
		{"past table end falls back", 30, DefaultGearCount, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := gatt.NewMirror()
			if err := m.RegisterService(gatt.RideService, []gatt.CharacteristicSpec{
				{UUID: gatt.RideAsyncTX, Props: gatt.PropNotify},
			}); err != nil {
				t.Fatalf("RegisterService() error = %v", err)
			}
			c := NewWithGears(m, &fakeDriver{}, tt.gears)

			if got := c.Gear(); got != tt.wantDefault {
				t.Errorf("default gear = %d, want %d", got, tt.wantDefault)
			}

			// Push past the top: the range ends at the configured count.
			for i := 0; i < DefaultGearCount+5; i++ {
				settleDebounce(c)
				c.ShiftUp()
			}
			if got := c.Gear(); got != tt.wantGears {
				t.Errorf("top gear = %d, want %d", got, tt.wantGears)
			}
		})
	}
}

func TestDebounceDefersAndFlushes(t *testing.T) {
	c, driver, _ := newTestController(t)

	c.SetBaseGradient(500) // applies immediately, arms the debounce window
	before := len(driver.recorded())

	c.SetBaseGradient(600) // inside the window: deferred
	if got := len(driver.recorded()); got != before {
		t.Fatalf("driver called inside debounce window: %d calls", got)
	}

	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if !pending {
		t.Fatal("change inside debounce window not marked pending")
	}

	settleDebounce(c)
	c.flushPending()

	calls := driver.recorded()
	if len(calls) != before+1 {
		t.Fatalf("flush did not apply pending change: %v", calls)
	}
	if calls[len(calls)-1] != 630 { // 600 x 1.05
		t.Errorf("flushed value = %d, want 630", calls[len(calls)-1])
	}
}

func TestDisableStopsDriving(t *testing.T) {
	c, driver, _ := newTestController(t)

	c.Disable()
	c.SetBaseGradient(1000)
	settleDebounce(c)
	c.ShiftUp()

	if got := len(driver.recorded()); got != 0 {
		t.Fatalf("disabled controller drove the trainer: %v", driver.recorded())
	}

	// State still tracks while disabled.
	if got := c.EffectiveGradient(); got != 1100 {
		t.Errorf("effective while disabled = %d, want 1100", got)
	}

	// Re-enabling applies the current state.
	c.Enable()
	calls := driver.recorded()
	if len(calls) != 1 || calls[0] != 1100 {
		t.Errorf("enable did not apply current state: %v", calls)
	}
}

func TestReset(t *testing.T) {
	c, driver, _ := newTestController(t)

	c.SetBaseGradient(1500)
	settleDebounce(c)
	c.ShiftUp()
	c.Reset()

	if got := c.Gear(); got != 12 {
		t.Errorf("gear after reset = %d, want 12", got)
	}
	if got := c.EffectiveGradient(); got != 0 {
		t.Errorf("effective after reset = %d, want 0", got)
	}
	calls := driver.recorded()
	if len(calls) == 0 || calls[len(calls)-1] != 0 {
		t.Errorf("reset did not zero the trainer: %v", calls)
	}
}

var _ trainer.Driver = (*fakeDriver)(nil)
