// Package money provides a fixed-point currency amount used for all monetary
// figures in the API. Amounts carry two fractional digits and serialize as
// decimal strings (e.g. "103.25") so no floating-point drift can leak into
// invoices or payments.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal currency value. The zero value is 0.00.
type Amount struct {
	d decimal.Decimal
}

// New builds an Amount from a decimal value.
func New(d decimal.Decimal) Amount { return Amount{d: d} }

// Zero returns the zero amount.
func Zero() Amount { return Amount{} }

// FromInt builds an Amount from a whole number of currency units.
func FromInt(n int64) Amount { return Amount{d: decimal.NewFromInt(n)} }

// Parse parses a decimal string such as "103.25".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is Parse for test fixtures and constants; it panics on bad input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// MulInt multiplies the amount by a whole quantity.
func (a Amount) MulInt(n int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(n)))}
}

// ApplyRate returns a*rate/100 rounded to the cent, half away from zero.
// Used for percentage tax rates.
func (a Amount) ApplyRate(rate Amount) Amount {
	return Amount{d: a.d.Mul(rate.d).Div(decimal.NewFromInt(100)).Round(2)}
}

// Round returns the amount rounded to two fractional digits, half away from zero.
func (a Amount) Round() Amount { return Amount{d: a.d.Round(2)} }

func (a Amount) IsZero() bool     { return a.d.IsZero() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// Cmp compares two amounts: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// GTE reports whether a >= b.
func (a Amount) GTE(b Amount) bool { return a.d.Cmp(b.d) >= 0 }

// Equal reports numeric equality (scale-insensitive, so 5 == 5.00).
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string { return a.d.StringFixed(2) }

// MarshalJSON renders the amount as a quoted 2-digit decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		a.d = decimal.Decimal{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Scan implements sql.Scanner. Repositories select numeric columns cast to
// text, so the driver hands over a string or byte slice.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.d = decimal.Decimal{}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case float64:
		a.d = decimal.NewFromFloat(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into money.Amount", src)
	}
}

// Value implements driver.Valuer so amounts can be passed as query arguments.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}
