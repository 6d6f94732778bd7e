// Package ride implements the Zwift Ride handshake and keep-alive protocol.
//
// Zwift opens the Ride service (FC82) and writes the 6-byte ASCII "RideOn"
// initiator to Sync RX. The handler answers on Sync TX with the echoed
// initiator plus a two-byte signature, then emits an opaque 37-byte
// keep-alive every 5 seconds for as long as someone is subscribed to Sync TX.
//
// After the handshake, Sync RX carries opcode-tagged commands: object GETs
// (device information, battery), gear/gradient reset, log level changes and
// vendor messages. Unknown opcodes are acknowledged permissively; the bridge
// never drops a session over an unimplemented command.
//
//	IDLE --RideOn--> CONNECTED --subscribers lost--> IDLE
//
// Keep-alive emission stops as soon as the last Sync TX subscriber is gone,
// and the next RideOn starts a fresh cycle.
package ride
