package utils

import (
	"encoding/json"
	"math"
	"strconv"
)

// NormalizeID coerces the loose identifier shapes untyped callers send --
// a number, a numeric string, or an object carrying an "id" field -- into a
// canonical non-negative integer. The second return is false when no usable
// identifier is present. Callers must treat absent as "no reference", never
// as id 0.
func NormalizeID(v any) (uint, bool) {
	return normalizeID(v, true)
}

// normalizeID recurses at most one level into {"id": ...} objects so that
// attacker-supplied deeply nested structures cannot drive unbounded traversal.
func normalizeID(v any, allowRecurse bool) (uint, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case uint:
		return t, true
	case int:
		if t < 0 {
			return 0, false
		}
		return uint(t), true
	case int64:
		if t < 0 {
			return 0, false
		}
		return uint(t), true
	case uint64:
		return uint(t), true
	case float64:
		// JSON numbers decode as float64; a fractional part means it was
		// never an identifier.
		if t < 0 || t != math.Trunc(t) {
			return 0, false
		}
		return uint(t), true
	case json.Number:
		return parseIDString(t.String())
	case string:
		return parseIDString(t)
	case map[string]any:
		if !allowRecurse {
			return 0, false
		}
		return normalizeID(t["id"], false)
	}
	return 0, false
}

func parseIDString(s string) (uint, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return uint(n), true
}
