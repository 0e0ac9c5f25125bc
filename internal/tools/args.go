package tools

import (
	"encoding/json"
	"strings"
)

// Args are a call's decoded arguments. Accessors report whether the value
// was present and usable.
type Args map[string]any

// String returns a trimmed, non-empty string argument.
func (a Args) String(name string) (string, bool) {
	s, ok := a[name].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Int returns an integral argument. JSON numbers arrive as float64.
func (a Args) Int(name string) (int, bool) {
	f, ok := toFloat(a[name])
	if !ok {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
