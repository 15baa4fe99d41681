package forecast

import (
	"encoding/json/jsontext"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field is a scalar from the feed. The vendor sends most numbers as json strings ("10") but not all of them, so
// Field accepts strings, numbers and booleans and keeps their text. A missing or null member is not Present.
type Field struct {
	raw     string
	present bool
	number  bool
}

// Text builds a present Field holding s.
func Text(s string) Field {
	return Field{raw: s, present: true}
}

// Present reports whether the member was in the feed and not null.
func (f Field) Present() bool {
	return f.present
}

// String returns the text of the field, or the empty string when it is not present.
func (f Field) String() string {
	return strings.TrimSpace(f.raw)
}

// Float parses the field as a number.
func (f Field) Float() (float64, bool) {
	s := f.String()
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// Int parses the field as a number and truncates it.
func (f Field) Int() (int, bool) {
	v, ok := f.Float()
	if !ok {
		return 0, false
	}

	return int(v), true
}

func (f *Field) UnmarshalJSONFrom(d *jsontext.Decoder) error {
	tok, err := d.ReadToken()
	if err != nil {
		return err
	}

	switch tok.Kind() {
	case 'n':
		*f = Field{}
	case '"':
		*f = Field{raw: tok.String(), present: true}
	case '0':
		*f = Field{raw: tok.String(), present: true, number: true}
	case 't', 'f':
		*f = Field{raw: strconv.FormatBool(tok.Bool()), present: true}
	default:
		return fmt.Errorf("unexpected json %s for a scalar field", tok.Kind())
	}

	return nil
}

// MarshalJSON writes the field back the way it was received. Fields that were not present are null.
func (f Field) MarshalJSON() ([]byte, error) {
	switch {
	case !f.present:
		return []byte("null"), nil
	case f.number:
		return []byte(f.raw), nil
	default:
		return []byte(strconv.Quote(f.raw)), nil
	}
}
