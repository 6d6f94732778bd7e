// Package bridge assembles the components into a running KICKR BIKE bridge.
//
// The assembly follows one rule: a single mirror handle is created at startup
// and passed into every component; nothing holds global state. The FTMS
// collaborator emits base-gradient events into the shift controller, the
// controller owns the trainer apply path, and the ride handler owns the
// handshake and keep-alive. The TCP server, mDNS advertiser and BLE
// peripheral are transports over the same mirror.
//
// External collaborators plug in through Options: a trainer.Driver for the
// incline setpoint and a shifting.PositionFunc for the physical shifter.
// Additional GATT characteristics can be registered through Mirror() before
// Run.
package bridge
