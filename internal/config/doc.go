// Package config handles the bridge's yaml configuration file.
//
// The file lives at ~/.config/swiftcontrol/config.yaml by default and
// describes the device identity (name, serial, MAC), the TNP listener, the
// BLE toggle, the virtual gear count and the optional frame monitor:
//
//	device:
//	  name: KICKR BIKE PRO
//	  serial: 2207A1B2
//	  mac: 00-11-22-33-44-55
//	tcp:
//	  port: 36867
//	  max_clients: 1
//	ble:
//	  enabled: true
//	shifting:
//	  gears: 24
//	monitor:
//	  enabled: false
//	  addr: 127.0.0.1:8337
//
// A missing file yields the defaults; a present file is validated on load.
// CLI flags override individual fields after loading.
package config
