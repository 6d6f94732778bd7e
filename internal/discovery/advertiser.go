package discovery

import (
	"fmt"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/logging"
)

const (
	// ServiceType is the mDNS service type Zwift browses for when looking
	// for BLE-over-TCP peripherals.
	ServiceType = "_wahoo-fitness-tnp._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Advertiser publishes the bridge as a Wahoo TNP service instance and keeps
// the advertised TXT records current as services register.
type Advertiser struct {
	mu sync.Mutex

	instance string
	serial   string
	mac      string
	port     int

	uuids  []string
	server *zeroconf.Server
}

// NewAdvertiser creates an advertiser for the given device identity. The
// instance name follows the hardware's convention: "KICKR BIKE PRO <serial>".
// mac is the dash-separated MAC address published in TXT.
func NewAdvertiser(serial, mac string, port int) *Advertiser {
	return &Advertiser{
		instance: fmt.Sprintf("KICKR BIKE PRO %s", serial),
		serial:   serial,
		mac:      mac,
		port:     port,
	}
}

// Start registers the service instance on all multicast-capable interfaces.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	server, err := zeroconf.Register(a.instance, ServiceType, ServiceDomain, a.port, a.txtRecords(), nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	logging.Info("mDNS service registered",
		zap.String("instance", a.instance),
		zap.String("type", ServiceType),
		zap.Int("port", a.port),
	)
	return nil
}

// AddServiceUUID appends a 4-character hex short UUID to the advertised
// ble-service-uuids TXT list and republishes. Adding an already-present UUID
// is a no-op.
func (a *Advertiser) AddServiceUUID(short string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, existing := range a.uuids {
		if existing == short {
			return
		}
	}
	a.uuids = append(a.uuids, short)

	if a.server != nil {
		a.server.SetText(a.txtRecords())
	}
	logging.Debug("mDNS service UUID list updated",
		zap.Strings("uuids", a.uuids),
	)
}

// ServiceUUIDs returns the currently advertised short UUID list.
func (a *Advertiser) ServiceUUIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.uuids...)
}

// Shutdown withdraws the mDNS registration.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		logging.Info("mDNS service withdrawn", zap.String("instance", a.instance))
	}
}

// txtRecords builds the TXT record set. Called with the mutex held.
func (a *Advertiser) txtRecords() []string {
	return []string{
		"ble-service-uuids=" + strings.Join(a.uuids, ","),
		"mac-address=" + a.mac,
		"serial-number=" + a.serial,
	}
}
