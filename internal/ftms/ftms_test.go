package ftms

import (
	"bytes"
	"sync"
	"testing"

	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/shifting"
	"github.com/doudar/swiftcontrol/internal/trainer"
)

// indicationRecorder captures control point indications and status
// notifications.
type indicationRecorder struct {
	mu     sync.Mutex
	events map[gatt.UUID][][]byte
}

func newIndicationRecorder() *indicationRecorder {
	return &indicationRecorder{events: make(map[gatt.UUID][][]byte)}
}

func (r *indicationRecorder) SubscriberID() string { return "test" }

func (r *indicationRecorder) Notify(u gatt.UUID, value []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[u] = append(r.events[u], append([]byte(nil), value...))
}

func (r *indicationRecorder) received(u gatt.UUID) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.events[u]...)
}

func newTestService(t *testing.T) (*shifting.Controller, *gatt.Mirror, *indicationRecorder) {
	t.Helper()
	m := gatt.NewMirror()
	// The controller needs the Ride service for gear notifications.
	if err := m.RegisterService(gatt.RideService, []gatt.CharacteristicSpec{
		{UUID: gatt.RideSyncRX, Props: gatt.PropWrite},
		{UUID: gatt.RideAsyncTX, Props: gatt.PropNotify},
		{UUID: gatt.RideSyncTX, Props: gatt.PropNotify},
	}); err != nil {
		t.Fatalf("RegisterService() error = %v", err)
	}

	shift := shifting.New(m, trainer.Nop{})
	if err := New(m, shift).Register(); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	rec := newIndicationRecorder()
	if err := m.Subscribe(rec, gatt.FTMSControlPoint); err != nil {
		t.Fatalf("Subscribe(control point) error = %v", err)
	}
	if err := m.Subscribe(rec, gatt.FTMSMachineStatus); err != nil {
		t.Fatalf("Subscribe(status) error = %v", err)
	}
	return shift, m, rec
}

func TestSimulationParamsWrite(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		wantEff int32 // base x 1.05 (the default gear ratio), rounded
	}{
		{
			name: "plain 6-byte body",
			// wind 0, grade 500 (5.00%), crr 0x33, cw 0x50
			body:    []byte{0x00, 0x00, 0xf4, 0x01, 0x33, 0x50},
			wantEff: 525,
		},
		{
			name:    "opcode-prefixed body",
			body:    []byte{OpSetIndoorBikeSim, 0x00, 0x00, 0xf4, 0x01, 0x33, 0x50},
			wantEff: 525,
		},
		{
			name: "negative grade",
			// grade -250 (-2.50%) little-endian
			body:    []byte{0x00, 0x00, 0x06, 0xff, 0x33, 0x50},
			wantEff: -263,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shift, m, _ := newTestService(t)
			if err := m.Write(gatt.FTMSSimulationParams, tt.body); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			if got := shift.EffectiveGradient(); got != tt.wantEff {
				t.Errorf("effective gradient = %d, want %d", got, tt.wantEff)
			}
		})
	}
}

func TestControlPointOpcodes(t *testing.T) {
	tests := []struct {
		name       string
		write      []byte
		wantResult byte
		wantStatus []byte
	}{
		{
			name:       "request control",
			write:      []byte{OpRequestControl},
			wantResult: ResultSuccess,
		},
		{
			name:       "set target inclination",
			write:      []byte{OpSetTargetInclination, 0x32, 0x00}, // 5.0% in 0.1% units
			wantResult: ResultSuccess,
		},
		{
			name: "set indoor bike simulation",
			// wind 0, grade 750, crr, cw
			write:      []byte{OpSetIndoorBikeSim, 0x00, 0x00, 0xee, 0x02, 0x33, 0x50},
			wantResult: ResultSuccess,
		},
		{
			name:       "start",
			write:      []byte{OpStartOrResume},
			wantResult: ResultSuccess,
			wantStatus: []byte{0x04},
		},
		{
			name:       "stop",
			write:      []byte{OpStopOrPause},
			wantResult: ResultSuccess,
			wantStatus: []byte{0x02},
		},
		{
			name:       "reset",
			write:      []byte{OpReset},
			wantResult: ResultSuccess,
			wantStatus: []byte{0x01},
		},
		{
			name:       "unsupported opcode",
			write:      []byte{0x42},
			wantResult: ResultOpCodeNotSupported,
		},
		{
			name:       "truncated inclination",
			write:      []byte{OpSetTargetInclination, 0x32},
			wantResult: ResultInvalidParameter,
		},
		{
			name:       "truncated simulation",
			write:      []byte{OpSetIndoorBikeSim, 0x00, 0x00},
			wantResult: ResultInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m, rec := newTestService(t)
			if err := m.Write(gatt.FTMSControlPoint, tt.write); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			indications := rec.received(gatt.FTMSControlPoint)
			if len(indications) != 1 {
				t.Fatalf("indications = %d, want 1", len(indications))
			}
			want := []byte{OpResponseCode, tt.write[0], tt.wantResult}
			if !bytes.Equal(indications[0], want) {
				t.Errorf("indication = % x, want % x", indications[0], want)
			}

			status := rec.received(gatt.FTMSMachineStatus)
			if tt.wantStatus == nil {
				if len(status) != 0 {
					t.Errorf("unexpected status notifications: %v", status)
				}
			} else {
				if len(status) != 1 || !bytes.Equal(status[0], tt.wantStatus) {
					t.Errorf("status = %v, want [% x]", status, tt.wantStatus)
				}
			}
		})
	}
}

func TestControlPointFeedsBaseGradient(t *testing.T) {
	shift, m, _ := newTestService(t)

	// Set Target Inclination: 8.0% = 80 tenths = 800 bp.
	if err := m.Write(gatt.FTMSControlPoint, []byte{OpSetTargetInclination, 0x50, 0x00}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := shift.EffectiveGradient(); got != 840 { // 800 x 1.05
		t.Errorf("effective after inclination = %d, want 840", got)
	}
}

func TestFeatureValueReadable(t *testing.T) {
	_, m, _ := newTestService(t)

	value, err := m.Value(gatt.FTMSFeature)
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if len(value) != 8 {
		t.Errorf("feature value length = %d, want 8", len(value))
	}
}
