// Package logging provides structured logging for the swiftcontrol bridge.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the bridge. It provides both general logging functions
// and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame parsing, keep-alives)
//   - Info: Normal operations (connections, subscriptions, gear changes)
//   - Warn: Non-fatal issues (malformed frames, dropped notifications)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Client connected",
//	    zap.String("remote_addr", "192.168.1.100"),
//	    zap.String("session", "tcp-1"),
//	)
//
// # Specialized Logging
//
// Connection Logging:
//
//	logging.LogConnection(remoteAddr, "connection_accepted")
//	logging.LogConnection(remoteAddr, "session_closed")
//
// TNP Frame Logging:
//
//	logging.LogFrame(remoteAddr, "received", "WRITE", seq, body)
//	logging.LogFrame(remoteAddr, "sent", "NOTIFICATION", 0, body)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given, the SWIFTCONTROL_LOG_LEVEL environment variable is
// consulted; if neither is set, logging is silent.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
