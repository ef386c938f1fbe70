// Package logging provides slog-based logging helpers for sockline: handler
// construction from a small Config, level/format parsing for CLI flags, and
// a no-op logger for tests.
package logging
