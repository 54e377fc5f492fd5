package collector

import (
	"bytes"
	"fmt"
	"math"

	"github.com/rileyhilliard/mactop/internal/errors"
	"howett.net/plist"
)

// Dict is a decoded plist dictionary. Accessors report absent keys and type
// mismatches as ok=false rather than errors: a missing section means the
// feature is unavailable on this machine.
type Dict map[string]interface{}

// DecodeDict sanitizes and decodes a plist whose root is a dictionary.
func DecodeDict(data []byte) (Dict, error) {
	var root interface{}
	if _, err := plist.Unmarshal(Sanitize(data), &root); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrParse, "Couldn't decode plist record", "")
	}
	d, ok := asDict(root)
	if !ok {
		return nil, errors.New(errors.ErrParse,
			fmt.Sprintf("plist root is %T, want a dictionary", root), "")
	}
	return d, nil
}

// DecodeFirstDict decodes a plist whose root is an array of dictionaries and
// returns the first element, as printed by `ioreg -a`.
func DecodeFirstDict(data []byte) (Dict, error) {
	var root interface{}
	if _, err := plist.Unmarshal(Sanitize(data), &root); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrParse, "Couldn't decode plist output", "")
	}
	items, ok := root.([]interface{})
	if !ok {
		return nil, errors.New(errors.ErrParse,
			fmt.Sprintf("plist root is %T, want an array", root), "")
	}
	if len(items) == 0 {
		return nil, errors.New(errors.ErrParse,
			"plist array is empty",
			"Is there a battery in this machine?")
	}
	d, ok := asDict(items[0])
	if !ok {
		return nil, errors.New(errors.ErrParse,
			fmt.Sprintf("first plist element is %T, want a dictionary", items[0]), "")
	}
	return d, nil
}

// Sanitize escapes ampersands that do not start an XML entity. powermetrics
// writes process names verbatim, and a bare & makes the whole record invalid.
func Sanitize(data []byte) []byte {
	if bytes.IndexByte(data, '&') < 0 {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	for i := 0; i < len(data); i++ {
		if data[i] == '&' && !isEntity(data[i+1:]) {
			out = append(out, "&amp;"...)
			continue
		}
		out = append(out, data[i])
	}
	return out
}

// isEntity reports whether rest (the bytes after an &) starts with name;,
// #digits; or #xhex;.
func isEntity(rest []byte) bool {
	end := bytes.IndexByte(rest, ';')
	if end <= 0 || end > 32 {
		return false
	}
	ref := rest[:end]

	if ref[0] == '#' {
		digits := ref[1:]
		hex := false
		if len(digits) > 0 && (digits[0] == 'x' || digits[0] == 'X') {
			digits = digits[1:]
			hex = true
		}
		if len(digits) == 0 {
			return false
		}
		for _, c := range digits {
			if !isDigit(c) && !(hex && isHexLetter(c)) {
				return false
			}
		}
		return true
	}

	for i, c := range ref {
		if isLetter(c) || c == '_' || (i > 0 && (isDigit(c) || c == '-' || c == '.')) {
			continue
		}
		return false
	}
	return true
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isLetter(c byte) bool    { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isHexLetter(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func asDict(v interface{}) (Dict, bool) {
	switch d := v.(type) {
	case map[string]interface{}:
		return Dict(d), true
	case Dict:
		return d, true
	default:
		return nil, false
	}
}

// Has reports whether key is present, whatever its value.
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Dict returns a nested dictionary.
func (d Dict) Dict(key string) (Dict, bool) {
	return asDict(d[key])
}

// List returns a nested array.
func (d Dict) List(key string) ([]interface{}, bool) {
	l, ok := d[key].([]interface{})
	return l, ok
}

// Dicts returns the dictionary elements of a nested array, skipping anything else.
func (d Dict) Dicts(key string) ([]Dict, bool) {
	items, ok := d.List(key)
	if !ok {
		return nil, false
	}
	out := make([]Dict, 0, len(items))
	for _, item := range items {
		if sub, ok := asDict(item); ok {
			out = append(out, sub)
		}
	}
	return out, true
}

// Float returns a numeric value of any plist number type.
func (d Dict) Float(key string) (float64, bool) {
	return toFloat(d[key])
}

// FloatOr returns Float or def.
func (d Dict) FloatOr(key string, def float64) float64 {
	if f, ok := d.Float(key); ok {
		return f
	}
	return def
}

// Int returns a numeric value truncated to int.
func (d Dict) Int(key string) (int, bool) {
	switch n := d[key].(type) {
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// IntOr returns Int or def.
func (d Dict) IntOr(key string, def int) int {
	if n, ok := d.Int(key); ok {
		return n
	}
	return def
}

// Bool returns a boolean value. Numbers are true when non-zero.
func (d Dict) Bool(key string) (bool, bool) {
	switch b := d[key].(type) {
	case bool:
		return b, true
	default:
		if f, ok := toFloat(b); ok {
			return f != 0, true
		}
		return false, false
	}
}

// String returns a string value.
func (d Dict) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
