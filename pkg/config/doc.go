// Package config validates and normalizes the connection options supplied
// to a sockline client before it attempts to connect.
//
// Validation turns an unordered map of raw option values into a single,
// fully-typed, internally-consistent Configuration, or reports precisely
// why the input is invalid. It is driven by a declarative schema: an
// ordered table of field specs (name, kind, required flag, default, custom
// parser) interpreted by one generic engine, so adding a field is adding a
// table row.
//
// Recognized fields and their defaults:
//
//	endpoint                 ws:// or wss:// URL      required
//	heartbeatIntervalMillis  non-negative integer     30000 (0 disables)
//	headers                  list of (name, value)    empty
//	jsonCodec                codec identifier/value   "json"
//	reconnectBackoffMillis   list of delays           [10 50 100 150 200 250 500 1000 2000 5000]
//	rejoinBackoffMillis      list of delays           [100 500 1000 2000 5000 10000]
//	transportOptions         settings map             {"protocols": ["json"]}
//
// Usage:
//
//	cfg, err := config.Validate(config.Options{
//		"endpoint": "wss://example.com/socket/websocket",
//		"headers":  [][2]string{{"Authorization", "Bearer ..."}},
//	})
//	if err != nil {
//		var verr *config.ValidationError
//		errors.As(err, &verr) // per-field failures with machine-readable codes
//	}
//
// Validate performs no I/O and keeps no state across calls; LoadOptions is
// the only file-touching entry point and only produces the raw map.
package config
