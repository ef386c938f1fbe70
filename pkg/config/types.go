package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sockline/sockline/pkg/codec"
)

// Options is the unordered set of raw, caller-supplied option values keyed
// by field name. Keys are camelCase, matching the option-file convention.
type Options map[string]any

// Header is a single (name, value) header pair. Pairs keep their insertion
// order and are never deduplicated; header-name casing is passed through
// untouched.
type Header struct {
	Name  string
	Value string
}

// Backoff is an ordered sequence of delays indexed by retry attempt. The
// sequence saturates: attempts beyond the last element keep returning the
// last element.
type Backoff []time.Duration

// Delay returns the delay for the given zero-based attempt. Negative
// attempts return the first delay.
func (b Backoff) Delay(attempt int) time.Duration {
	if len(b) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(b) {
		attempt = len(b) - 1
	}
	return b[attempt]
}

// millis returns the sequence as millisecond integers, the raw option form.
func (b Backoff) millis() []int {
	out := make([]int, len(b))
	for i, d := range b {
		out[i] = int(d / time.Millisecond)
	}
	return out
}

// Configuration is the validated, fully-typed result of Validate. It is
// immutable once returned and safe to share across goroutines; the
// connection-management layers only ever read it.
type Configuration struct {
	// Endpoint is the websocket URL with its scheme checked against the
	// ws/wss allow-list and its port resolved (80 for ws, 443 for wss when
	// the URL carried none).
	Endpoint *url.URL

	// HeartbeatInterval is the cadence for heartbeat frames. Zero disables
	// heartbeat sending.
	HeartbeatInterval time.Duration

	// Headers are sent with the websocket handshake, in order, duplicates
	// included.
	Headers []Header

	// JSONCodec names the codec used for message encode/decode. The
	// identifier is not resolved at validation time; ResolveCodec does the
	// registry lookup when the connection layer needs the implementation.
	JSONCodec string

	// ReconnectBackoff schedules reconnect attempts after a dropped
	// connection.
	ReconnectBackoff Backoff

	// RejoinBackoff schedules channel rejoin attempts, independently of
	// reconnects.
	RejoinBackoff Backoff

	// TransportOptions are transport-level settings merged over the
	// baseline floor. The baseline "protocols" entry is always present
	// unless the caller overrode it by key.
	TransportOptions map[string]any

	// codecImpl is set when the caller injected a codec.Codec value
	// directly instead of naming one.
	codecImpl codec.Codec
}

// ResolveCodec returns the codec implementation for this configuration:
// the injected value when one was supplied, otherwise the built-in
// registered under JSONCodec.
func (c *Configuration) ResolveCodec() (codec.Codec, error) {
	if c.codecImpl != nil {
		return c.codecImpl, nil
	}
	impl, ok := codec.Lookup(c.JSONCodec)
	if !ok {
		return nil, &FieldError{
			Field:    "jsonCodec",
			Code:     ErrCodeParse,
			Message:  fmt.Sprintf("unknown codec %q", c.JSONCodec),
			Received: c.JSONCodec,
			Expected: "one of: " + strings.Join(codec.Names(), ", "),
		}
	}
	return impl, nil
}

// HTTPHeader returns the headers as an http.Header for the websocket
// handshake. Multi-valued names keep their relative order via Add.
func (c *Configuration) HTTPHeader() http.Header {
	h := http.Header{}
	for _, hdr := range c.Headers {
		h.Add(hdr.Name, hdr.Value)
	}
	return h
}

// Options returns the raw option representation equivalent to this
// configuration. Validating the result again yields an equal Configuration.
func (c *Configuration) Options() Options {
	opts := Options{
		"endpoint":                c.Endpoint.String(),
		"heartbeatIntervalMillis": int(c.HeartbeatInterval / time.Millisecond),
		"headers":                 append([]Header(nil), c.Headers...),
		"reconnectBackoffMillis":  c.ReconnectBackoff.millis(),
		"rejoinBackoffMillis":     c.RejoinBackoff.millis(),
		"transportOptions":        cloneOptionMap(c.TransportOptions),
	}
	if c.codecImpl != nil {
		opts["jsonCodec"] = c.codecImpl
	} else {
		opts["jsonCodec"] = c.JSONCodec
	}
	return opts
}

// cloneOptionMap shallow-copies a settings map so callers cannot mutate
// shared state through a returned Configuration.
func cloneOptionMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
