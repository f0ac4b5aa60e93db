// Package logx configures the daemon's structured logging.
//
// Logger wraps zerolog. The console sink prints time, level, component and
// caller up front; the file sink writes JSON lines. Service.Apply swaps sinks
// and level on config reload without dropping the open log file.
package logx
