// Package discovery publishes the bridge on the local network via mDNS.
//
// Zwift finds TNP peripherals by browsing for _wahoo-fitness-tnp._tcp and
// reading three TXT records: ble-service-uuids (comma-separated 4-character
// hex short UUIDs), mac-address (dash-separated) and serial-number. The
// short-UUID list mirrors the GATT mirror's registered services and is
// republished whenever a service is added.
//
// The instance name matches the hardware convention, e.g.
// "KICKR BIKE PRO 2207A1B2".
package discovery
