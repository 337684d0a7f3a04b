// Package payload normalizes provider responses that arrive either as a plain value
// or wrapped in one or more envelopes.
package payload

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const maxEnvelopeDepth = 4

// Unwrap descends through envelope objects and string-encoded documents until it
// reaches a value that is not wrapped under one of keys. Keys are tried in order.
func Unwrap(raw []byte, keys ...string) json.RawMessage {
	cur := bytes.TrimSpace(raw)
	for depth := 0; depth < maxEnvelopeDepth; depth++ {
		if len(cur) == 0 {
			return cur
		}
		switch cur[0] {
		case '"':
			var s string
			if err := json.Unmarshal(cur, &s); err != nil {
				return cur
			}
			inner := bytes.TrimSpace([]byte(s))
			if len(inner) == 0 || (inner[0] != '{' && inner[0] != '[') {
				return cur
			}
			cur = inner
		case '{':
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(cur, &obj); err != nil {
				return cur
			}
			next, ok := pick(obj, keys)
			if !ok {
				return cur
			}
			cur = bytes.TrimSpace(next)
		default:
			return cur
		}
	}
	return cur
}

func pick(obj map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && len(bytes.TrimSpace(v)) > 0 && string(bytes.TrimSpace(v)) != "null" {
			return v, true
		}
	}
	return nil, false
}

// IsArray reports whether raw holds a JSON array.
func IsArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// Decimal decodes quoted or bare numbers. Empty, null and non-numeric input
// decode to zero instead of failing the enclosing document.
type Decimal struct {
	decimal.Decimal
}

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		d.Decimal = decimal.Zero
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		d.Decimal = decimal.Zero
		return nil
	}
	d.Decimal = v
	return nil
}

// First returns the first non-zero value.
func First(values ...Decimal) decimal.Decimal {
	for _, v := range values {
		if !v.IsZero() {
			return v.Decimal
		}
	}
	return decimal.Zero
}

// FirstString returns the first non-empty trimmed value.
func FirstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
