// Package monitor streams decoded TNP frames to WebSocket clients for
// protocol analysis.
//
// The hub is an optional debugging aid: when enabled, every frame the TCP
// server receives or sends is published as a JSON event on a local WebSocket
// endpoint, which makes comparing live traffic against packet captures a
// matter of two browser tabs. A nil hub is valid and free, so the server
// publishes unconditionally.
package monitor
