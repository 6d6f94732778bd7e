// Package server implements the TNP TCP transport: the listener and the
// per-connection session state machine.
//
// # Sessions
//
// Each accepted connection gets a Session with a fresh 256-byte receive
// buffer and an empty subscription set. The session's read loop drains
// complete frames from the buffer and dispatches them against the GATT
// mirror; a single writer goroutine serializes all outbound traffic, so
// responses preserve request order and a write acknowledgment always precedes
// the notifications its handler triggered.
//
// Sessions implement gatt.Subscriber: enabling notifications on a
// characteristic registers the session with the mirror, and teardown
// unconditionally drops every subscription the session held, on normal and
// abnormal exits alike.
//
// # Error recovery
//
// Protocol-level failures (bad version, unknown message type, malformed
// bodies, missing attributes) are answered on the same sequence and the
// connection stays up. Only transport failures tear a session down, and only
// that session: the server keeps accepting.
//
// # Client cap
//
// The server enforces a concurrent session cap (default 1, matching the
// hardware it impersonates). Connections beyond the cap are accepted and
// immediately closed.
package server
