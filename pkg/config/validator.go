package config

import (
	"net/url"
	"sort"
	"time"
)

// Validate checks the caller-supplied options against the schema and
// assembles a Configuration, or reports precisely why the input is invalid.
//
// Validation is a pure function of its input: no I/O, no shared mutable
// state, safe for any number of concurrent callers.
//
// Error policy (deterministic): unrecognized option keys fail the call
// immediately, all of them reported in sorted key order, before any field
// is validated. Otherwise every schema field is validated and all field
// failures are aggregated in schema order. The returned error is always a
// *ValidationError; Validate never panics.
func Validate(opts Options) (*Configuration, error) {
	if err := checkUnknownKeys(opts); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	values := make(map[string]any, len(schema))

	for _, fs := range schema {
		raw, present := opts[fs.Name]
		if !present {
			if fs.Required {
				verr.add(newRequiredError(fs.Name))
				continue
			}
			values[fs.Name] = defaultValue(fs.Default)
			continue
		}

		v, ferr := validateField(fs, raw)
		if ferr != nil {
			verr.add(ferr)
			continue
		}
		values[fs.Name] = v
	}

	if len(verr.Errors) > 0 {
		return nil, verr
	}

	ref := values["jsonCodec"].(codecRef)
	return &Configuration{
		Endpoint:          values["endpoint"].(*url.URL),
		HeartbeatInterval: values["heartbeatIntervalMillis"].(time.Duration),
		Headers:           values["headers"].([]Header),
		JSONCodec:         ref.name,
		ReconnectBackoff:  values["reconnectBackoffMillis"].(Backoff),
		RejoinBackoff:     values["rejoinBackoffMillis"].(Backoff),
		TransportOptions:  values["transportOptions"].(map[string]any),
		codecImpl:         ref.impl,
	}, nil
}

// MustValidate is the fail-fast variant of Validate for
// configuration-at-startup contexts that accept no graceful degradation.
// It panics with the *ValidationError on invalid input.
func MustValidate(opts Options) *Configuration {
	cfg, err := Validate(opts)
	if err != nil {
		panic(err)
	}
	return cfg
}

// validateField applies the kind's shape check, then the field parser.
func validateField(fs FieldSpec, raw any) (any, *FieldError) {
	switch fs.Kind {
	case kindInteger:
		n, ok := toInt64(raw)
		if !ok || n < 0 {
			return nil, newTypeError(fs.Name, "non-negative integer", raw)
		}
		return fs.Parse(fs.Name, n)
	case kindList:
		list, ok := asList(raw)
		if !ok {
			return nil, newTypeError(fs.Name, "list", raw)
		}
		return fs.Parse(fs.Name, list)
	default:
		return fs.Parse(fs.Name, raw)
	}
}

// checkUnknownKeys rejects options the schema does not recognize. All
// unknown keys are reported together, sorted for determinism.
func checkUnknownKeys(opts Options) *ValidationError {
	var unknown []string
	for key := range opts {
		if !knownFields[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	verr := &ValidationError{}
	for _, key := range unknown {
		verr.add(newUnknownFieldError(key))
	}
	return verr
}

// defaultValue substitutes a field default by value. Maps and slices are
// copied so one call's Configuration can never leak mutations into the
// schema or into another call's result.
func defaultValue(def any) any {
	switch v := def.(type) {
	case map[string]any:
		return cloneOptionMap(v)
	case []Header:
		return append([]Header{}, v...)
	case Backoff:
		return append(Backoff(nil), v...)
	default:
		return v
	}
}
