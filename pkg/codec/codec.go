package codec

import (
	"encoding/json"

	"github.com/ohler55/ojg/oj"
)

// Codec encodes and decodes message payloads.
type Codec interface {
	// Name returns the registry identifier for this codec.
	Name() string
	// Encode serializes v into a wire payload.
	Encode(v any) ([]byte, error)
	// Decode deserializes data into v.
	Decode(data []byte, v any) error
}

// Built-in codecs.
var (
	// JSON is the default codec, backed by encoding/json.
	JSON Codec = jsonCodec{}
	// Ojg is a faster JSON codec backed by github.com/ohler55/ojg.
	Ojg Codec = ojgCodec{}
)

// registry is the closed set of built-in codecs, keyed by name.
var registry = map[string]Codec{
	JSON.Name(): JSON,
	Ojg.Name():  Ojg,
}

// Lookup returns the built-in codec registered under name.
func Lookup(name string) (Codec, bool) {
	c, ok := registry[name]
	return c, ok
}

// Names returns the identifiers of all built-in codecs.
func Names() []string {
	return []string{JSON.Name(), Ojg.Name()}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type ojgCodec struct{}

func (ojgCodec) Name() string { return "ojg" }

func (ojgCodec) Encode(v any) ([]byte, error) {
	return oj.Marshal(v)
}

func (ojgCodec) Decode(data []byte, v any) error {
	return oj.Unmarshal(data, v)
}
