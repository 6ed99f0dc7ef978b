package place

import (
	"encoding/json"
	"strconv"
)

// NotAvailable is rendered for every metadata field the record does not carry.
const NotAvailable = "N/A"

// Kind discriminates the two primitive shapes a metadata value can take.
type Kind uint8

// Value kinds.
const (
	KindString Kind = iota
	KindNumber
)

// Value is a primitive metadata value: a string or a number, never nested, never null.
type Value struct {
	kind Kind
	str  string
	num  float64
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a number.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// NA is the value used for missing fields.
func NA() Value { return StringValue(NotAvailable) }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric value and whether v is a number.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// IsNA reports whether v is the missing-field sentinel.
func (v Value) IsNA() bool { return v.kind == KindString && v.str == NotAvailable }

// String renders v the way it is stored and displayed.
func (v Value) String() string {
	if v.kind == KindNumber {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// MarshalJSON encodes numbers as JSON numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}
