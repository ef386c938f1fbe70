package config

import (
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sockline/sockline/pkg/codec"
)

func TestValidate_DefaultsApplied(t *testing.T) {
	cfg, err := Validate(Options{"endpoint": "ws://localhost/socket/websocket"})
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "ws", cfg.Endpoint.Scheme)
	assert.Equal(t, "80", cfg.Endpoint.Port())
	assert.Equal(t, "/socket/websocket", cfg.Endpoint.Path)

	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Empty(t, cfg.Headers)
	assert.Equal(t, "json", cfg.JSONCodec)
	assert.Equal(t, defaultReconnectBackoff, cfg.ReconnectBackoff)
	assert.Equal(t, defaultRejoinBackoff, cfg.RejoinBackoff)
	assert.Equal(t, map[string]any{"protocols": []string{"json"}}, cfg.TransportOptions)
}

func TestValidate_MissingEndpoint(t *testing.T) {
	cfg, err := Validate(Options{})
	assert.Nil(t, cfg)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fe := verr.ByField("endpoint")
	require.NotNil(t, fe)
	assert.Equal(t, ErrCodeRequired, fe.Code)
}

func TestValidate_Endpoint(t *testing.T) {
	tests := []struct {
		name        string
		endpoint    any
		wantErr     bool
		wantCode    string
		wantPort    string
		wantScheme  string
		msgContains string
	}{
		{
			name:       "ws assumes port 80",
			endpoint:   "ws://localhost/socket/websocket",
			wantPort:   "80",
			wantScheme: "ws",
		},
		{
			name:       "wss assumes port 443",
			endpoint:   "wss://example.com/socket/websocket",
			wantPort:   "443",
			wantScheme: "wss",
		},
		{
			name:       "explicit port preserved",
			endpoint:   "ws://localhost:4000/socket/websocket",
			wantPort:   "4000",
			wantScheme: "ws",
		},
		{
			name:        "disallowed scheme",
			endpoint:    "ftp://example.com",
			wantErr:     true,
			wantCode:    ErrCodeParse,
			msgContains: `"ftp"`,
		},
		{
			name:        "port zero is not positive",
			endpoint:    "ws://h:0",
			wantErr:     true,
			wantCode:    ErrCodeParse,
			msgContains: "port",
		},
		{
			name:        "unparseable input",
			endpoint:    "ws://host:notaport",
			wantErr:     true,
			wantCode:    ErrCodeParse,
			msgContains: "ws://host:notaport",
		},
		{
			name:        "non-URL value",
			endpoint:    42,
			wantErr:     true,
			wantCode:    ErrCodeParse,
			msgContains: "int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Validate(Options{"endpoint": tt.endpoint})
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				fe := verr.ByField("endpoint")
				require.NotNil(t, fe)
				assert.Equal(t, tt.wantCode, fe.Code)
				assert.Contains(t, fe.Message, tt.msgContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, cfg.Endpoint.Scheme)
			assert.Equal(t, tt.wantPort, cfg.Endpoint.Port())
		})
	}
}

func TestValidate_EndpointSchemeErrorNamesAllowList(t *testing.T) {
	_, err := Validate(Options{"endpoint": "ftp://example.com"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fe := verr.ByField("endpoint")
	require.NotNil(t, fe)
	assert.Contains(t, fe.Message, `"ws", "wss"`)
}

func TestValidate_StructuredEndpointAccepted(t *testing.T) {
	input, err := url.Parse("wss://example.com/socket/websocket")
	require.NoError(t, err)

	cfg, err := Validate(Options{"endpoint": input})
	require.NoError(t, err)
	assert.Equal(t, "example.com:443", cfg.Endpoint.Host)

	// The caller's URL must not be mutated by validation.
	assert.Equal(t, "example.com", input.Host)
}

func TestValidate_Headers(t *testing.T) {
	cfg, err := Validate(Options{
		"endpoint": "ws://localhost/socket/websocket",
		"headers": []any{
			[]any{"X-Foo", "1"},
			[]any{"X-Bar", "2"},
			[]any{"X-Foo", "3"}, // duplicates preserved
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []Header{
		{Name: "X-Foo", Value: "1"},
		{Name: "X-Bar", Value: "2"},
		{Name: "X-Foo", Value: "3"},
	}, cfg.Headers)
}

func TestValidate_HeaderPairShapes(t *testing.T) {
	cfg, err := Validate(Options{
		"endpoint": "ws://localhost/socket/websocket",
		"headers": [][2]string{
			{"Authorization", "Bearer abc"},
		},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Headers, 1)
	assert.Equal(t, Header{Name: "Authorization", Value: "Bearer abc"}, cfg.Headers[0])
}

func TestValidate_MalformedHeaderPair(t *testing.T) {
	tests := []struct {
		name string
		pair any
	}{
		{name: "non-string value", pair: []any{"X-Foo", 7}},
		{name: "non-string name", pair: []any{7, "value"}},
		{name: "too short", pair: []any{"X-Foo"}},
		{name: "not a pair", pair: "X-Foo: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(Options{
				"endpoint": "ws://localhost/socket/websocket",
				"headers":  []any{[]any{"X-Ok", "1"}, tt.pair},
			})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			fe := verr.ByField("headers")
			require.NotNil(t, fe)
			assert.Equal(t, ErrCodeParse, fe.Code)
			assert.Contains(t, fe.Message, "index 1")
		})
	}
}

func TestValidate_TransportOptions(t *testing.T) {
	t.Run("empty input merges to baseline", func(t *testing.T) {
		cfg, err := Validate(Options{
			"endpoint":         "ws://localhost/socket/websocket",
			"transportOptions": map[string]any{},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"protocols": []string{"json"}}, cfg.TransportOptions)
	})

	t.Run("input overrides baseline by key", func(t *testing.T) {
		cfg, err := Validate(Options{
			"endpoint":         "ws://localhost/socket/websocket",
			"transportOptions": map[string]any{"protocols": []string{"http2"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"http2"}, cfg.TransportOptions["protocols"])
	})

	t.Run("extra keys pass through beside baseline", func(t *testing.T) {
		cfg, err := Validate(Options{
			"endpoint":         "ws://localhost/socket/websocket",
			"transportOptions": map[string]any{"handshakeTimeoutMillis": 5000},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"json"}, cfg.TransportOptions["protocols"])
		assert.Equal(t, 5000, cfg.TransportOptions["handshakeTimeoutMillis"])
	})

	t.Run("non-map rejected", func(t *testing.T) {
		_, err := Validate(Options{
			"endpoint":         "ws://localhost/socket/websocket",
			"transportOptions": []string{"not", "a", "map"},
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		fe := verr.ByField("transportOptions")
		require.NotNil(t, fe)
		assert.Equal(t, ErrCodeParse, fe.Code)
	})
}

func TestValidate_HeartbeatInterval(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		want     time.Duration
		wantErr  bool
		wantCode string
	}{
		{name: "positive", value: 15000, want: 15 * time.Second},
		{name: "zero disables", value: 0, want: 0},
		{name: "json float form", value: float64(1000), want: time.Second},
		{name: "uint64 accepted", value: uint64(30000), want: 30 * time.Second},
		{name: "uint64 overflow rejected", value: uint64(math.MaxUint64), wantErr: true, wantCode: ErrCodeType},
		{name: "negative rejected", value: -1, wantErr: true, wantCode: ErrCodeType},
		{name: "fractional rejected", value: 1.5, wantErr: true, wantCode: ErrCodeType},
		{name: "string rejected", value: "30s", wantErr: true, wantCode: ErrCodeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Validate(Options{
				"endpoint":                "ws://localhost/socket/websocket",
				"heartbeatIntervalMillis": tt.value,
			})
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				fe := verr.ByField("heartbeatIntervalMillis")
				require.NotNil(t, fe)
				assert.Equal(t, tt.wantCode, fe.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.HeartbeatInterval)
		})
	}
}

func TestValidate_BackoffLists(t *testing.T) {
	cfg, err := Validate(Options{
		"endpoint":               "ws://localhost/socket/websocket",
		"reconnectBackoffMillis": []int{5, 10, 20},
		"rejoinBackoffMillis":    []any{float64(100), float64(200)},
	})
	require.NoError(t, err)
	assert.Equal(t, Backoff{5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond}, cfg.ReconnectBackoff)
	assert.Equal(t, Backoff{100 * time.Millisecond, 200 * time.Millisecond}, cfg.RejoinBackoff)

	for _, tt := range []struct {
		name  string
		value any
	}{
		{name: "empty list", value: []int{}},
		{name: "negative element", value: []int{10, -1}},
		{name: "non-integer element", value: []any{10, "soon"}},
		{name: "not a list", value: 10},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(Options{
				"endpoint":               "ws://localhost/socket/websocket",
				"reconnectBackoffMillis": tt.value,
			})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			fe := verr.ByField("reconnectBackoffMillis")
			require.NotNil(t, fe)
			assert.Equal(t, ErrCodeType, fe.Code)
		})
	}
}

func TestValidate_UnknownKeyRejectedFirst(t *testing.T) {
	// All other fields are valid; the unknown key alone must fail the call,
	// and it short-circuits before field validation runs.
	_, err := Validate(Options{
		"endpoint": "ws://localhost/socket/websocket",
		"timeout":  5000,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, ErrCodeUnknownField, verr.Errors[0].Code)
	assert.Equal(t, "timeout", verr.Errors[0].Field)

	// Multiple unknown keys are reported together in sorted order.
	_, err = Validate(Options{"zeta": 1, "alpha": 2})
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 2)
	assert.Equal(t, "alpha", verr.Errors[0].Field)
	assert.Equal(t, "zeta", verr.Errors[1].Field)
}

func TestValidate_AggregatesFieldErrorsInSchemaOrder(t *testing.T) {
	_, err := Validate(Options{
		"heartbeatIntervalMillis": -5,
		"headers":                 []any{[]any{"X-Foo", 7}},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 3)
	assert.Equal(t, "endpoint", verr.Errors[0].Field)
	assert.Equal(t, "heartbeatIntervalMillis", verr.Errors[1].Field)
	assert.Equal(t, "headers", verr.Errors[2].Field)
}

func TestValidate_Idempotent(t *testing.T) {
	cfg, err := Validate(Options{
		"endpoint":                "wss://example.com/socket/websocket",
		"heartbeatIntervalMillis": 10000,
		"headers":                 []any{[]any{"X-Foo", "1"}, []any{"X-Bar", "2"}},
		"jsonCodec":               "ojg",
		"reconnectBackoffMillis":  []int{1, 2, 3},
		"transportOptions":        map[string]any{"protocols": []string{"http2"}},
	})
	require.NoError(t, err)

	again, err := Validate(cfg.Options())
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestValidate_InjectedCodec(t *testing.T) {
	cfg, err := Validate(Options{
		"endpoint":  "ws://localhost/socket/websocket",
		"jsonCodec": codec.Ojg,
	})
	require.NoError(t, err)
	assert.Equal(t, "ojg", cfg.JSONCodec)

	impl, err := cfg.ResolveCodec()
	require.NoError(t, err)
	assert.Equal(t, codec.Ojg, impl)
}

func TestValidate_CodecIdentifierNotResolvedAtThisLayer(t *testing.T) {
	// An unknown identifier passes validation; existence is the connection
	// layer's problem, surfaced by ResolveCodec.
	cfg, err := Validate(Options{
		"endpoint":  "ws://localhost/socket/websocket",
		"jsonCodec": "msgpack",
	})
	require.NoError(t, err)
	assert.Equal(t, "msgpack", cfg.JSONCodec)

	_, err = cfg.ResolveCodec()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "msgpack")
}

func TestValidate_DefaultsAreIsolatedPerCall(t *testing.T) {
	first, err := Validate(Options{"endpoint": "ws://localhost/socket/websocket"})
	require.NoError(t, err)
	first.TransportOptions["protocols"] = []string{"mutated"}

	second, err := Validate(Options{"endpoint": "ws://localhost/socket/websocket"})
	require.NoError(t, err)
	assert.Equal(t, []string{"json"}, second.TransportOptions["protocols"])
}

func TestMustValidate(t *testing.T) {
	cfg := MustValidate(Options{"endpoint": "ws://localhost/socket/websocket"})
	assert.NotNil(t, cfg)

	assert.PanicsWithError(t, `invalid configuration: endpoint: option "endpoint" is required`, func() {
		MustValidate(Options{})
	})
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{10 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}

	assert.Equal(t, 10*time.Millisecond, b.Delay(0))
	assert.Equal(t, 50*time.Millisecond, b.Delay(1))
	assert.Equal(t, 100*time.Millisecond, b.Delay(2))
	// Saturates at the last element.
	assert.Equal(t, 100*time.Millisecond, b.Delay(3))
	assert.Equal(t, 100*time.Millisecond, b.Delay(1000))
	// Negative attempts clamp to the first.
	assert.Equal(t, 10*time.Millisecond, b.Delay(-1))
	// Empty sequence never occurs post-validation; Delay degrades to zero.
	assert.Equal(t, time.Duration(0), Backoff(nil).Delay(5))
}
