package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point currency amount stored as integer cents.
// The database keeps it as NUMERIC(10,2); the JSON form is a decimal string
// such as "1249.50" so clients never see binary floating point.
type Money int64

// Cents returns the amount in cents.
func (m Money) Cents() int64 { return int64(m) }

// Times multiplies the amount by a whole quantity (e.g. number of people).
func (m Money) Times(n int) Money { return m * Money(n) }

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MaxMoney is the largest amount a NUMERIC(10,2) column holds.
const MaxMoney Money = 99_999_999_99

var amountPattern = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)

// ParseMoney parses a decimal string with at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is empty", ErrValidation)
	}
	if !amountPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	if d.Abs().GreaterThan(decimal.New(int64(MaxMoney), -2)) {
		return 0, fmt.Errorf("%w: amount %q is out of range", ErrValidation, s)
	}
	return Money(d.Shift(2).IntPart()), nil
}

// MarshalJSON encodes the amount as a JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string ("12.50") or a bare number (12.5).
func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("%w: amount must be a string or number", ErrValidation)
		}
		s = n.String()
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
