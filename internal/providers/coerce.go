package providers

import (
	"math"
	"strconv"
)

// Num coerces an arbitrary JSON value to a finite float64, returning nil for
// anything else. NaN and infinities become nil so they can never leak into
// the signal set. Upstreams disagree on whether numbers arrive as numbers or
// strings, so both are accepted.
func Num(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return finite(float64(n))
	case int64:
		return finite(float64(n))
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil
		}
		return finite(f)
	default:
		return nil
	}
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Str coerces v to a string, returning "" for non-strings.
func Str(v any) string {
	s, _ := v.(string)
	return s
}

// Boolean coerces v to a *bool, returning nil for non-booleans.
func Boolean(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

// Field walks a decoded JSON object by key path, returning nil when any hop
// is missing or not an object.
func Field(v any, path ...string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

// Items returns v as a JSON array, or nil.
func Items(v any) []any {
	items, _ := v.([]any)
	return items
}
