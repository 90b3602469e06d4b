package asset

import (
	"strconv"
	"strings"
)

// Bag is one of the schemaless maps (vmInfo, specs, additionalData) that import
// sources attach to an asset. Values arrive from JSON, so they may be strings,
// numbers, booleans or null.
type Bag map[string]any

// Lookup returns the raw value stored under key (exact match).
func (b Bag) Lookup(key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b[key]
	return v, ok
}

// Text returns the value under key rendered as a string.
func (b Bag) Text(key string) (string, bool) {
	v, ok := b.Lookup(key)
	if !ok {
		return "", false
	}
	return Stringify(v)
}

// TextFold is Text with case-insensitive key matching. When several keys fold to
// the same name the lexically smallest one wins, so the result does not depend
// on map iteration order.
func (b Bag) TextFold(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	match := ""
	found := false
	for k := range b {
		if !strings.EqualFold(k, key) {
			continue
		}
		if !found || k < match {
			match = k
			found = true
		}
	}
	if !found {
		return "", false
	}
	return b.Text(match)
}

// Clone returns a shallow copy.
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Stringify renders a JSON scalar. Objects, arrays and null report false.
func Stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
