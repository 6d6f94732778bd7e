package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/ble"
	"github.com/doudar/swiftcontrol/internal/config"
	"github.com/doudar/swiftcontrol/internal/discovery"
	"github.com/doudar/swiftcontrol/internal/ftms"
	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/logging"
	"github.com/doudar/swiftcontrol/internal/monitor"
	"github.com/doudar/swiftcontrol/internal/ride"
	"github.com/doudar/swiftcontrol/internal/server"
	"github.com/doudar/swiftcontrol/internal/shifting"
	"github.com/doudar/swiftcontrol/internal/trainer"
)

// Options wires the external collaborators into the bridge.
type Options struct {
	Config *config.Config

	// Driver applies incline setpoints to the trainer. Defaults to the
	// logging no-op driver.
	Driver trainer.Driver

	// Shifter reads the physical shifter position; nil when shifter samples
	// are fed externally through the controller.
	Shifter shifting.PositionFunc
}

// Bridge assembles the mirror, the protocol components and both transports.
type Bridge struct {
	cfg *config.Config

	mirror     *gatt.Mirror
	shift      *shifting.Controller
	ride       *ride.Handler
	server     *server.Server
	advertiser *discovery.Advertiser
	peripheral *ble.Peripheral
	hub        *monitor.Hub
	shifter    shifting.PositionFunc
}

// New builds the full service tree and all components. Nothing listens until
// Run.
func New(opts Options) (*Bridge, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	driver := opts.Driver
	if driver == nil {
		driver = trainer.Nop{}
	}

	mirror := gatt.NewMirror()
	shift := shifting.NewWithGears(mirror, driver, cfg.Shifting.Gears)
	rideHandler := ride.New(mirror, shift, cfg.Device.Serial)

	// Registration order is the order DISCOVER_SERVICES replies with and the
	// order the TXT short-UUID list grows in.
	if err := registerCompanionProfiles(mirror, cfg.Device.Serial); err != nil {
		return nil, fmt.Errorf("failed to register companion profiles: %w", err)
	}
	if err := ftms.New(mirror, shift).Register(); err != nil {
		return nil, fmt.Errorf("failed to register FTMS service: %w", err)
	}
	if err := rideHandler.Register(); err != nil {
		return nil, fmt.Errorf("failed to register Zwift Ride service: %w", err)
	}

	var hub *monitor.Hub
	if cfg.Monitor.Enabled {
		hub = monitor.NewHub()
	}

	b := &Bridge{
		cfg:    cfg,
		mirror: mirror,
		shift:  shift,
		ride:   rideHandler,
		hub:    hub,
		server: server.New(mirror, hub, server.Config{
			Host:       cfg.TCP.Host,
			Port:       cfg.TCP.Port,
			MaxClients: cfg.TCP.MaxClients,
		}),
		advertiser: discovery.NewAdvertiser(cfg.Device.Serial, cfg.Device.MAC, cfg.TCP.Port),
		shifter:    opts.Shifter,
	}
	if cfg.BLE.Enabled {
		b.peripheral = ble.New(mirror, cfg.Device.Name)
	}
	return b, nil
}

// Mirror exposes the GATT mirror so additional collaborators can register
// characteristics or install write handlers before Run.
func (b *Bridge) Mirror() *gatt.Mirror {
	return b.mirror
}

// Shift exposes the controller for external shifter drivers.
func (b *Bridge) Shift() *shifting.Controller {
	return b.shift
}

// Run starts every component and blocks until the context is cancelled or
// the TCP server fails.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := b.advertiser.Start(); err != nil {
		return err
	}
	defer b.advertiser.Shutdown()

	for _, u := range b.mirror.ServiceUUIDs() {
		b.advertiser.AddServiceUUID(u.ShortString())
	}

	if b.peripheral != nil {
		if err := b.peripheral.Start(); err != nil {
			// The TNP face is fully functional without local BLE; keep going.
			logging.Warn("BLE peripheral unavailable", zap.Error(err))
			b.peripheral = nil
		} else {
			defer b.peripheral.Stop()
		}
	}

	if b.hub != nil {
		go func() {
			if err := b.hub.ListenAndServe(b.cfg.Monitor.Addr); err != nil {
				logging.Warn("Monitor stopped", zap.Error(err))
			}
		}()
	}

	go b.ride.Run(ctx)
	go b.shift.Run(ctx, b.shifter)

	logging.Info("Bridge running",
		zap.String("device", b.cfg.Device.Name),
		zap.String("serial", b.cfg.Device.Serial),
		zap.Int("tcp_port", b.cfg.TCP.Port),
		zap.Bool("ble", b.peripheral != nil),
	)

	return b.server.ListenAndServe(ctx)
}
