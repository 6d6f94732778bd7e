// Package ftms implements the Fitness Machine Service collaborator.
//
// The bridge core only needs one thing from FTMS: that set-target-inclination
// and set-indoor-bike-simulation writes end up as base-gradient events on the
// shift controller. This package owns that decoding. It registers the FTMS
// characteristics on the mirror (Feature, Indoor Bike Data, Simulation
// Parameters, Control Point, Machine Status), installs write handlers for the
// two writable ones, and indicates control point responses in the standard
// [0x80, op, result] form.
//
// The wiring is deliberately one-directional to avoid a cycle: FTMS emits
// base-gradient events into the shift controller, and the controller owns the
// trainer apply path. Nothing here calls back into FTMS.
package ftms
