package money

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const maxDecimals = 36

var (
	ErrInvalidInteger  = errors.New("value is not a valid integer string")
	ErrNegativeValue   = errors.New("value must be non-negative")
	ErrDecimalsRange   = errors.New("decimals must be in [0, 36]")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Amount is a non-negative quantity of a fungible currency expressed in
// whole units. It is always derived from an integer minor-unit value and a
// decimal-places count, so large on-chain values never pass through a float.
type Amount struct {
	value decimal.Decimal
}

// FromMinorUnits builds an Amount from an integer minor-unit string and a
// decimal-places count: whole = integer / 10^decimals. The integer is parsed
// with arbitrary precision; precision is only reduced at display time.
func FromMinorUnits(value string, decimals int) (Amount, error) {
	if decimals < 0 || decimals > maxDecimals {
		return Amount{}, ErrDecimalsRange
	}

	i, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidInteger, value)
	}
	if i.Sign() < 0 {
		return Amount{}, ErrNegativeValue
	}

	return Amount{value: decimal.NewFromBigInt(i, -int32(decimals))}, nil
}

// FromDecimal wraps an already-parsed whole-unit decimal.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, ErrNegativeValue
	}
	return Amount{value: d}, nil
}

// MustFromString parses a whole-unit decimal string, panicking on failure.
// Intended for constants and tests only.
func MustFromString(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	a, err := FromDecimal(d)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the whole-unit value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// IsZero reports whether the amount equals zero.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(b.value)
}

// Equal reports whether two amounts are numerically equal.
func (a Amount) Equal(b Amount) bool {
	return a.value.Equal(b.value)
}

// DivBy divides the amount by an integer quantity. Used to derive the
// per-token price of a collection-wide offer from its total price.
func (a Amount) DivBy(quantity int64) (Amount, error) {
	if quantity <= 0 {
		return Amount{}, ErrInvalidQuantity
	}
	return Amount{value: a.value.Div(decimal.NewFromInt(quantity))}, nil
}

// MinorUnits converts the amount back to an integer minor-unit value at the
// given decimal count, truncating sub-minor-unit dust.
func (a Amount) MinorUnits(decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > maxDecimals {
		return nil, ErrDecimalsRange
	}
	shifted := a.value.Shift(int32(decimals))
	return shifted.BigInt(), nil
}

// String returns the full-precision whole-unit representation.
func (a Amount) String() string {
	return a.value.String()
}

// Display returns the human-facing form: 3 fractional digits for amounts of
// at least one whole unit, 4 below that.
func (a Amount) Display() string {
	if a.value.Cmp(decimal.NewFromInt(1)) >= 0 {
		return a.value.StringFixed(3)
	}
	return a.value.StringFixed(4)
}

// MarshalJSON encodes the amount as a decimal string so values beyond
// float64 precision survive the JSON surface intact.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.value.String() + `"`), nil
}

// UnmarshalJSON decodes a decimal string or bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return ErrNegativeValue
	}
	a.value = d
	return nil
}
