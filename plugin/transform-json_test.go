package plugin_test

import (
	"encoding/json"
	"strings"
	"testing"

	Ap "github.com/maroda/almanac/plugin"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var data any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return data
}

func TestExtractFloat(t *testing.T) {
	data := decode(t, `{"chart": {
		"Sun": 280.1,
		"Moon": {"longitude": 100.25},
		"Quoted": "12.5",
		"Word": "north",
		"List": [1, 2]
	}}`)

	t.Run("Bare number", func(t *testing.T) {
		got, err := Ap.ExtractFloat(data, "chart.Sun")
		assertError(t, err, nil)
		if got != 280.1 {
			t.Errorf("got %v, want 280.1", got)
		}
	})

	t.Run("Nested object", func(t *testing.T) {
		got, err := Ap.ExtractFloat(data, "chart.Moon.longitude")
		assertError(t, err, nil)
		if got != 100.25 {
			t.Errorf("got %v, want 100.25", got)
		}
	})

	t.Run("An object is not numeric", func(t *testing.T) {
		_, err := Ap.ExtractFloat(data, "chart.Moon")
		assertError(t, err, Ap.ErrNotNumeric)
	})

	t.Run("Quoted number", func(t *testing.T) {
		got, err := Ap.ExtractFloat(data, "chart.Quoted")
		assertError(t, err, nil)
		if got != 12.5 {
			t.Errorf("got %v, want 12.5", got)
		}
	})

	t.Run("Quoted word", func(t *testing.T) {
		_, err := Ap.ExtractFloat(data, "chart.Word")
		assertError(t, err, Ap.ErrNotNumeric)
	})

	t.Run("Missing key", func(t *testing.T) {
		_, err := Ap.ExtractFloat(data, "chart.Pluto")
		assertError(t, err, Ap.ErrKeyNotFound)
	})

	t.Run("Arrays are not traversed", func(t *testing.T) {
		_, err := Ap.ExtractFloat(data, "chart.List.0")
		assertGotError(t, err)
	})

	t.Run("json.Number from a UseNumber decoder", func(t *testing.T) {
		dec := json.NewDecoder(strings.NewReader(`{"lat": 48.85}`))
		dec.UseNumber()
		var d any
		assertError(t, dec.Decode(&d), nil)

		got, err := Ap.ExtractFloat(d, "lat")
		assertError(t, err, nil)
		if got != 48.85 {
			t.Errorf("got %v, want 48.85", got)
		}
	})
}

func TestExtractKeys(t *testing.T) {
	data := decode(t, `{"chart": {"Sun": 1, "Moon": 2}, "when": "now"}`)

	t.Run("Lists object keys", func(t *testing.T) {
		got, err := Ap.ExtractKeys(data, "chart")
		assertError(t, err, nil)
		assertInt(t, len(got), 2)
	})

	t.Run("A string has no keys", func(t *testing.T) {
		_, err := Ap.ExtractKeys(data, "when")
		assertGotError(t, err)
	})
}
