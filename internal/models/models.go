package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NotApplicable is written wherever a field is missing or does not apply
// to a row's table kind. Downstream consumers of the export files match on it.
const NotApplicable = "N/A"

// Field is a permissively decoded scalar from a filing document. Filings are
// heterogeneous: the same key may hold a string, a number, a bool or be absent.
// Field keeps the textual form and whether a value was present at all.
type Field struct {
	text  string
	valid bool
}

// Value returns a present Field holding s.
func Value(s string) Field {
	return Field{text: s, valid: true}
}

// Missing is the zero Field; it renders as NotApplicable.
var Missing = Field{}

// Present reports whether the source document carried a value.
func (f Field) Present() bool {
	return f.valid
}

// String returns the value, or NotApplicable when absent.
func (f Field) String() string {
	if !f.valid {
		return NotApplicable
	}
	return f.text
}

// Float parses the value as a finite number.
func (f Field) Float() (float64, bool) {
	if !f.valid {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FloatOrZero coerces the value to a number, degrading to zero.
func (f Field) FloatOrZero() float64 {
	v, _ := f.Float()
	return v
}

// Truthy reports whether the value is a true flag ("true" or "1").
func (f Field) Truthy() bool {
	if !f.valid {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(f.text)) {
	case "true", "1":
		return true
	}
	return false
}

// UnmarshalJSON never rejects a well-formed scalar; null leaves the field missing
// and objects or arrays are kept as compact JSON text.
func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = Missing
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Value(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		*f = Value(buf.String())
	default:
		*f = Value(string(b))
	}
	return nil
}

// MarshalJSON writes the display form, so absent values become "N/A".
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}
