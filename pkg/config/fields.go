package config

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/sockline/sockline/pkg/codec"
)

// allowedSchemes is the fixed scheme allow-list for the endpoint field,
// with the canonical port assumed when the URL carries none.
var allowedSchemes = map[string]int{
	"ws":  80,
	"wss": 443,
}

// parseEndpoint validates the endpoint field: a websocket URL string or an
// already-parsed *url.URL. The returned URL always carries an explicit,
// positive port (the scheme's canonical port when the input had none).
func parseEndpoint(field string, raw any) (any, *FieldError) {
	var u *url.URL
	switch v := raw.(type) {
	case string:
		parsed, err := url.Parse(v)
		if err != nil {
			return nil, newParseError(field, fmt.Sprintf("cannot parse URL %q: %v", v, err), v)
		}
		u = parsed
	case *url.URL:
		clone := *v
		u = &clone
	case url.URL:
		clone := v
		u = &clone
	default:
		return nil, newParseError(field, fmt.Sprintf("endpoint must be a URL string or *url.URL, got %T", raw), raw)
	}

	// Assume the canonical port before the scheme check so that the
	// resolved port is reported alongside any scheme failure.
	port := u.Port()
	if port == "" {
		if assumed, ok := allowedSchemes[u.Scheme]; ok {
			port = strconv.Itoa(assumed)
			u.Host = net.JoinHostPort(u.Hostname(), port)
		}
	}

	if _, ok := allowedSchemes[u.Scheme]; !ok {
		return nil, newParseError(field,
			fmt.Sprintf("invalid scheme %q in %q: must be one of \"ws\", \"wss\"", u.Scheme, fmt.Sprint(raw)),
			raw)
	}

	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 {
		return nil, newParseError(field,
			fmt.Sprintf("invalid port %q in %q: must be a positive integer", port, fmt.Sprint(raw)),
			raw)
	}

	return u, nil
}

// parseHeartbeatInterval converts the already shape-checked millisecond
// count into a duration. Zero disables heartbeats and is valid.
func parseHeartbeatInterval(_ string, raw any) (any, *FieldError) {
	return time.Duration(raw.(int64)) * time.Millisecond, nil
}

// parseHeaders validates the headers field: each element must be a
// two-element pair of strings. Order is preserved; names are neither
// case-normalized nor deduplicated.
func parseHeaders(field string, raw any) (any, *FieldError) {
	list := raw.([]any)
	headers := make([]Header, 0, len(list))
	for i, elem := range list {
		h, ok := headerPair(elem)
		if !ok {
			return nil, newParseError(field,
				fmt.Sprintf("header pair at index %d must be two strings, got %v", i, elem),
				elem)
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// headerPair coerces the accepted pair shapes into a Header.
func headerPair(elem any) (Header, bool) {
	switch v := elem.(type) {
	case Header:
		return v, true
	case [2]string:
		return Header{Name: v[0], Value: v[1]}, true
	case []string:
		if len(v) == 2 {
			return Header{Name: v[0], Value: v[1]}, true
		}
	case []any:
		if len(v) == 2 {
			name, nameOK := v[0].(string)
			value, valueOK := v[1].(string)
			if nameOK && valueOK {
				return Header{Name: name, Value: value}, true
			}
		}
	}
	return Header{}, false
}

// codecRef is the canonical jsonCodec value: either an identifier to be
// resolved against the codec registry, or an injected implementation.
type codecRef struct {
	name string
	impl codec.Codec
}

// parseCodecRef accepts a codec identifier string or an injected
// codec.Codec value. Identifiers are carried through without a registry
// lookup; Configuration.ResolveCodec checks existence later.
func parseCodecRef(field string, raw any) (any, *FieldError) {
	switch v := raw.(type) {
	case codec.Codec:
		return codecRef{name: v.Name(), impl: v}, nil
	case string:
		if v == "" {
			return nil, newParseError(field, "codec identifier must not be empty", v)
		}
		return codecRef{name: v}, nil
	default:
		return nil, newTypeError(field, "codec identifier string or codec.Codec", raw)
	}
}

// parseBackoff validates a backoff field: a non-empty list of non-negative
// millisecond integers.
func parseBackoff(field string, raw any) (any, *FieldError) {
	list := raw.([]any)
	if len(list) == 0 {
		return nil, newTypeError(field, "non-empty list of non-negative integers (millis)", raw)
	}
	backoff := make(Backoff, 0, len(list))
	for i, elem := range list {
		n, ok := toInt64(elem)
		if !ok || n < 0 {
			return nil, newTypeError(field,
				fmt.Sprintf("non-negative integer (millis) at index %d", i),
				elem)
		}
		backoff = append(backoff, time.Duration(n)*time.Millisecond)
	}
	return backoff, nil
}

// parseTransportOptions validates the transportOptions field and merges it
// over the baseline floor: caller entries override baseline entries by key,
// baseline keys missing from the input stay present.
func parseTransportOptions(field string, raw any) (any, *FieldError) {
	var in map[string]any
	switch v := raw.(type) {
	case map[string]any:
		in = v
	case Options:
		in = v
	default:
		return nil, newParseError(field,
			fmt.Sprintf("transport options must be a map of settings, got %T", raw),
			raw)
	}

	merged := baselineTransportOptions()
	for k, v := range in {
		merged[k] = v
	}
	return merged, nil
}

// toInt64 coerces the integer shapes that option sources produce: Go
// integer literals from programmatic callers and whole-valued float64 from
// JSON decoding.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case float32:
		if float64(n) == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// asList coerces the sequence shapes that option sources produce into a
// []any for element-wise checking. Returns false for non-sequence values.
func asList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []Header:
		out := make([]any, len(v))
		for i, h := range v {
			out[i] = h
		}
		return out, true
	case [][2]string:
		out := make([]any, len(v))
		for i, p := range v {
			out[i] = p
		}
		return out, true
	case [][]string:
		out := make([]any, len(v))
		for i, p := range v {
			out[i] = p
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
