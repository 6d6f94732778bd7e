// Package shifting implements virtual gearing for the bridge.
//
// A Zwift Ride controller has no gears of its own; it reports shifter
// positions. The Controller turns position deltas into gear changes across a
// configurable gear table (default 24 gears, ratios 0.50 to 1.65 in 0.05
// steps), multiplies the base road gradient the app requested via FTMS by
// the current ratio, clamps the product to the trainer's +/-20% limit and
// forwards it to the trainer driver.
//
// Updates to the trainer are debounced at 100 ms: a change arriving inside
// the window is deferred and the run loop flushes the latest value, so rapid
// shifting settles on the final gear without flooding the hardware.
//
// The base gradient itself is never clamped; a mountain stage may legitimately
// exceed what the trainer can tilt to, and only the composed product matters.
package shifting
