package bus

import (
	"encoding/json"
	"strconv"
)

// Envelope field accessors. Topic records are self-describing JSON objects;
// consumers pull the fields they key on and ignore the rest. Missing or
// mistyped fields return the zero value - producers enforce schemas, and the
// validator gate guards the signal path.

// String returns the string value at key, or "" when absent.
func String(env Envelope, key string) string {
	if s, ok := env[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the integer value at key, or 0 when absent or non-numeric.
func Int(env Envelope, key string) int64 {
	switch v := env[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		// Tolerate "62.0" style numbers from hand-written fixtures.
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Float returns the float value at key, or 0 when absent or non-numeric.
func Float(env Envelope, key string) float64 {
	switch v := env[key].(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// Has reports whether key is present with a non-nil value.
func Has(env Envelope, key string) bool {
	v, ok := env[key]
	return ok && v != nil
}

// List returns the slice value at key, or nil when absent.
func List(env Envelope, key string) []any {
	if l, ok := env[key].([]any); ok {
		return l
	}
	return nil
}

// Object returns the nested object at key, or nil when absent.
func Object(env Envelope, key string) Envelope {
	if o, ok := env[key].(map[string]any); ok {
		return o
	}
	return nil
}
