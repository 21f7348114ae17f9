package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidDecimal is returned when a Decimal's text is not a base-10 number.
var ErrInvalidDecimal = errors.New("invalid decimal text")

// Decimal keeps a monetary or quantity value exactly as the document wrote it.
// "9337.50" stays "9337.50"; arithmetic goes through Value.
type Decimal struct {
	text string
}

// NewDecimal wraps source text without interpreting it.
func NewDecimal(text string) Decimal {
	return Decimal{text: text}
}

// String returns the original text.
func (d Decimal) String() string {
	return d.text
}

// IsEmpty reports whether the source element was absent or empty.
func (d Decimal) IsEmpty() bool {
	return d.text == ""
}

// Value parses the text losslessly. Empty text is zero.
func (d Decimal) Value() (decimal.Decimal, error) {
	if d.text == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(d.text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidDecimal, d.text)
	}
	return v, nil
}

// Equal compares the numeric values, so "10.0" equals "10".
func (d Decimal) Equal(other Decimal) bool {
	a, errA := d.Value()
	b, errB := other.Value()
	if errA != nil || errB != nil {
		return d.text == other.text
	}
	return a.Equal(b)
}

// MarshalJSON writes the original text as a JSON string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.text)
}

// UnmarshalJSON accepts a JSON string or a JSON number literal.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		d.text = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d.text = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDecimal, data)
	}
	d.text = n.String()
	return nil
}
