package plugin

/*
	JSON path extraction

	Upstream chart payloads are not consistent: a body may be a bare
	longitude, {"Sun": 280.1}, or an object, {"Sun": {"longitude": 280.1}}.
	These helpers walk dotted paths through decoded JSON so callers
	can try both shapes.
*/

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrNotNumeric  = errors.New("value not numeric")
)

// ExtractValue follows a dotted path, e.g. "chart.Sun.longitude"
func ExtractValue(data any, path string) (any, error) {
	keys := strings.Split(path, ".")
	current := data

	for _, key := range keys {
		switch v := current.(type) {
		case map[string]any:
			var ok bool
			current, ok = v[key]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
		case []any:
			return nil, fmt.Errorf("array indexing not implemented yet")
		default:
			return nil, fmt.Errorf("cannot traverse into type %T at key %s", v, key)
		}
	}

	return current, nil
}

// ExtractFloat follows a dotted path and converts the final value to float64
func ExtractFloat(data any, path string) (float64, error) {
	current, err := ExtractValue(data, path)
	if err != nil {
		return 0, err
	}

	switch v := current.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("error converting json.Number to float64: %w", err)
		}
		return f, nil
	case string:
		// some APIs quote numbers, Nominatim does for lat/lon
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %T", ErrNotNumeric, v)
	}
}

// ExtractKeys lists the keys of the object at path
func ExtractKeys(data any, path string) ([]string, error) {
	current, err := ExtractValue(data, path)
	if err != nil {
		return nil, err
	}
	m, ok := current.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("value at %s is %T, not an object", path, current)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys, nil
}
