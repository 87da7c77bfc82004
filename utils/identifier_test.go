package utils

import (
	"encoding/json"
	"testing"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		name   string
		in     any
		want   uint
		wantOK bool
	}{
		{"int", 42, 42, true},
		{"zero", 0, 0, true},
		{"negative int", -1, 0, false},
		{"numeric string", "42", 42, true},
		{"negative string", "-1", 0, false},
		{"non-numeric string", "abc", 0, false},
		{"string with trailing junk", "42x", 0, false},
		{"empty string", "", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"integral float", float64(7), 7, true},
		{"fractional float", 7.5, 0, false},
		{"negative float", -3.0, 0, false},
		{"object with string id", map[string]any{"id": "7"}, 7, true},
		{"object with int id", map[string]any{"id": 7}, 7, true},
		{"object without id", map[string]any{"name": "x"}, 0, false},
		{"nested object id", map[string]any{"id": map[string]any{"id": 1}}, 0, false},
		{"json.Number", json.Number("19"), 19, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeID(tc.in)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("NormalizeID(%#v) = (%d, %t), want (%d, %t)", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestNormalizeIDFromDecodedJSON(t *testing.T) {
	// The shapes actually seen on the wire: numbers decode to float64,
	// objects to map[string]any.
	var body map[string]any
	if err := json.Unmarshal([]byte(`{"a": 12, "b": "12", "c": {"id": 12}, "d": 12.5}`), &body); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"a", "b", "c"} {
		if got, ok := NormalizeID(body[key]); !ok || got != 12 {
			t.Fatalf("key %q: got (%d, %t), want (12, true)", key, got, ok)
		}
	}
	if _, ok := NormalizeID(body["d"]); ok {
		t.Fatal("fractional number must normalize to absent")
	}
}
