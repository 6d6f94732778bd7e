// Package gatt implements the synthetic GATT database at the heart of the
// bridge.
//
// The Mirror is the single authoritative store for every service and
// characteristic the bridge exposes. Both transports converge on it: the TCP
// server translates TNP requests into mirror operations, and the BLE
// peripheral builds its attribute table from the same registrations. Writes
// dispatch to per-characteristic handlers; notifications fan out to whichever
// transport holds a subscription.
//
// # Registration
//
// The tree is built once at startup and never shrinks:
//
//	m := gatt.NewMirror()
//	err := m.RegisterService(gatt.RideService, []gatt.CharacteristicSpec{
//	    {UUID: gatt.RideSyncRX, Props: gatt.PropWrite},
//	    {UUID: gatt.RideAsyncTX, Props: gatt.PropNotify},
//	    {UUID: gatt.RideSyncTX, Props: gatt.PropNotify},
//	})
//
// Collaborators that own a characteristic's write semantics install a handler
// after registration with SetWriteHandler; the handler runs after the value
// is committed.
//
// # Subscriptions and fanout
//
// Subscribers implement the Subscriber interface. Notify snapshots the
// subscriber set under the mirror lock and delivers outside it, so one stuck
// transport cannot stall the others. Subscriber sets are not persisted; a
// reconnecting session must re-enable notifications.
//
// # UUIDs
//
// UUIDs are stored most-significant byte first throughout. The TNP wire
// reversal is confined to the tnp package.
package gatt
