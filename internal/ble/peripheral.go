package ble

import (
	"fmt"
	"sync"

	"github.com/paypal/gatt"
	"github.com/paypal/gatt/examples/option"
	"go.uber.org/zap"

	gattdb "github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/logging"
)

// subscriberID identifies the BLE central in the mirror's subscriber sets.
// The peripheral role serves one central at a time, so a single identity
// suffices; DropSession clears every characteristic it subscribed to.
const subscriberID = "ble"

// Peripheral mirrors the GATT database over local BLE. Central writes route
// into the mirror; mirror notifications route out through the per-
// characteristic notifier the central enabled.
type Peripheral struct {
	mirror *gattdb.Mirror
	name   string

	device gatt.Device
}

// New creates a peripheral advertising under the given device name.
func New(mirror *gattdb.Mirror, name string) *Peripheral {
	return &Peripheral{mirror: mirror, name: name}
}

// Start initializes the HCI device and begins advertising once the adapter
// powers on. The attribute table is built from the mirror's registrations, so
// both transports expose the identical tree.
func (p *Peripheral) Start() error {
	device, err := gatt.NewDevice(option.DefaultServerOptions...)
	if err != nil {
		return fmt.Errorf("failed to open BLE device: %w", err)
	}
	p.device = device

	device.Handle(
		gatt.CentralConnected(func(c gatt.Central) {
			logging.LogConnection(c.ID(), "ble_central_connected")
		}),
		gatt.CentralDisconnected(func(c gatt.Central) {
			p.mirror.DropSession(subscriberID)
			logging.LogConnection(c.ID(), "ble_central_disconnected")
		}),
	)

	return device.Init(p.onStateChanged)
}

// Stop tears the advertisement down.
func (p *Peripheral) Stop() {
	if p.device != nil {
		_ = p.device.StopAdvertising()
		_ = p.device.RemoveAllServices()
	}
}

func (p *Peripheral) onStateChanged(device gatt.Device, state gatt.State) {
	logging.Info("BLE state changed", zap.String("state", state.String()))

	if state != gatt.StatePoweredOn {
		return
	}

	for _, info := range p.mirror.Services() {
		device.AddService(p.buildService(info))
	}

	// The Zwift Ride UUID stays out of the advertisement: Zwift finds it via
	// mDNS/TCP, and advertising payload space is scarce.
	advertised := []gatt.UUID{
		toBLEUUID(gattdb.CSCService),
		toBLEUUID(gattdb.CyclingPowerService),
		toBLEUUID(gattdb.HeartRateService),
		toBLEUUID(gattdb.FTMSService),
	}
	if err := device.AdvertiseNameAndServices(p.name, advertised); err != nil {
		logging.Error("BLE advertising failed", zap.Error(err))
	}
}

// buildService converts one mirror service into a BLE service with handlers
// wired back into the mirror.
func (p *Peripheral) buildService(info gattdb.ServiceInfo) *gatt.Service {
	svc := gatt.NewService(toBLEUUID(info.UUID))

	for _, ci := range info.Characteristics {
		uuid := ci.UUID
		c := svc.AddCharacteristic(toBLEUUID(uuid))

		if ci.Props&gattdb.PropRead != 0 {
			c.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
				value, err := p.mirror.Value(uuid)
				if err != nil {
					rsp.SetStatus(gatt.StatusUnexpectedError)
					return
				}
				_, _ = rsp.Write(value)
			})
		}

		if ci.Props&gattdb.PropWrite != 0 {
			c.HandleWriteFunc(func(r gatt.Request, data []byte) byte {
				if err := p.mirror.Write(uuid, data); err != nil {
					logging.Warn("BLE write rejected",
						zap.String("uuid", uuid.String()),
						zap.Error(err),
					)
					return gatt.StatusUnexpectedError
				}
				return gatt.StatusSuccess
			})
		}

		if ci.Props&(gattdb.PropNotify|gattdb.PropIndicate) != 0 {
			c.HandleNotifyFunc(func(r gatt.Request, n gatt.Notifier) {
				sub := &notifySubscriber{notifier: n}
				if err := p.mirror.Subscribe(sub, uuid); err != nil {
					logging.Warn("BLE subscribe rejected",
						zap.String("uuid", uuid.String()),
						zap.Error(err),
					)
				}
			})
		}
	}
	return svc
}

// notifySubscriber adapts a BLE notifier to the mirror's Subscriber
// interface. The gatt stack serializes notifier writes internally.
type notifySubscriber struct {
	mu       sync.Mutex
	notifier gatt.Notifier
}

func (s *notifySubscriber) SubscriberID() string {
	return subscriberID
}

func (s *notifySubscriber) Notify(u gattdb.UUID, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notifier == nil || s.notifier.Done() {
		return
	}
	if _, err := s.notifier.Write(value); err != nil {
		logging.Debug("BLE notify failed",
			zap.String("uuid", u.String()),
			zap.Error(err),
		)
	}
}

// toBLEUUID converts a mirror UUID into the BLE stack's representation.
func toBLEUUID(u gattdb.UUID) gatt.UUID {
	return gatt.MustParseUUID(u.String())
}
