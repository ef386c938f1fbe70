package config

import (
	"time"

	"github.com/sockline/sockline/pkg/codec"
)

// fieldKind classifies how a field's raw value is checked before (or
// instead of) its custom parser. The engine dispatches on the kind tag;
// there is no reflection over field names.
type fieldKind int

const (
	// kindInteger fields must be a non-negative integer scalar.
	kindInteger fieldKind = iota
	// kindList fields must be an ordered sequence; the parser checks the
	// elements.
	kindList
	// kindCustom fields hand the raw value straight to the parser.
	kindCustom
)

// FieldSpec describes one recognized configuration field. Exactly one of
// Required and a usable Default holds for scalar/custom fields; list fields
// may default to an empty sequence.
type FieldSpec struct {
	// Name is the option key, unique within the schema.
	Name string

	// Kind selects the shape check applied before the parser runs.
	Kind fieldKind

	// Required marks fields that must be supplied. Required fields carry
	// no default.
	Required bool

	// Default is the canonical value substituted when the field is absent.
	// It is applied by value (maps and slices are copied), never by
	// re-running the parser.
	Default any

	// Parse validates and transforms the raw value into its canonical
	// form. For kindInteger fields it receives the coerced int64.
	Parse func(field string, raw any) (any, *FieldError)
}

// Documented defaults, milliseconds where applicable.
var (
	defaultHeartbeatInterval = 30 * time.Second

	defaultReconnectBackoff = Backoff{
		10 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		150 * time.Millisecond,
		200 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		5 * time.Second,
	}

	defaultRejoinBackoff = Backoff{
		100 * time.Millisecond,
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		5 * time.Second,
		10 * time.Second,
	}
)

// baselineTransportOptions is the floor every transportOptions value is
// merged over. Caller entries override by key; baseline keys are never
// unset, only overridden.
func baselineTransportOptions() map[string]any {
	return map[string]any{
		"protocols": []string{"json"},
	}
}

// schema is the ordered, immutable table of recognized fields. Validation
// iterates it in order; adding a field is adding a row.
var schema = []FieldSpec{
	{Name: "endpoint", Kind: kindCustom, Required: true, Parse: parseEndpoint},
	{Name: "heartbeatIntervalMillis", Kind: kindInteger, Default: defaultHeartbeatInterval, Parse: parseHeartbeatInterval},
	{Name: "headers", Kind: kindList, Default: []Header{}, Parse: parseHeaders},
	{Name: "jsonCodec", Kind: kindCustom, Default: codecRef{name: codec.JSON.Name()}, Parse: parseCodecRef},
	{Name: "reconnectBackoffMillis", Kind: kindList, Default: defaultReconnectBackoff, Parse: parseBackoff},
	{Name: "rejoinBackoffMillis", Kind: kindList, Default: defaultRejoinBackoff, Parse: parseBackoff},
	{Name: "transportOptions", Kind: kindCustom, Default: baselineTransportOptions(), Parse: parseTransportOptions},
}

// knownFields indexes the schema by option key.
var knownFields = func() map[string]bool {
	m := make(map[string]bool, len(schema))
	for _, fs := range schema {
		m[fs.Name] = true
	}
	return m
}()

// FieldNames returns the recognized option keys in schema order.
func FieldNames() []string {
	names := make([]string, len(schema))
	for i, fs := range schema {
		names[i] = fs.Name
	}
	return names
}
