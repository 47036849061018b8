package amount

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a quantity of the unit of account expressed in base units.
type Amount uint64

// UnitsPerToken is the number of base units in one whole token.
const UnitsPerToken Amount = 1_000_000

// Decimals is the number of fractional digits a whole token is split into.
const Decimals = 6

// Zero is the empty amount.
const Zero Amount = 0

var (
	// ErrOverflow is returned when an operation exceeds the representable range
	ErrOverflow = errors.New("amount overflow")

	// ErrUnderflow is returned when a subtraction would go below zero
	ErrUnderflow = errors.New("amount underflow")

	// ErrDivideByZero is returned by MulDiv with a zero denominator
	ErrDivideByZero = errors.New("amount division by zero")
)

// New creates an amount from a number of base units.
func New(units uint64) Amount {
	return Amount(units)
}

// Tokens creates an amount from a whole number of tokens.
func Tokens(n uint64) Amount {
	return Amount(n) * UnitsPerToken
}

// Units returns the raw base-unit count.
func (a Amount) Units() uint64 {
	return uint64(a)
}

func (a Amount) IsZero() bool {
	return a == 0
}

func (a Amount) IsPositive() bool {
	return a > 0
}

// Add returns a+b, failing on overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return Amount(sum), nil
}

// Sub returns a-b, failing when b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Mul returns a*factor, failing on overflow.
func (a Amount) Mul(factor uint64) (Amount, error) {
	hi, lo := bits.Mul64(uint64(a), factor)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return Amount(lo), nil
}

// MulDiv returns a*num/den truncated toward zero. The product is kept in
// 128 bits so only a quotient that does not fit 64 bits is an error.
func (a Amount) MulDiv(num, den uint64) (Amount, error) {
	if den == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(uint64(a), num)
	if hi >= den {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return Amount(quo), nil
}

// Sum adds all amounts, failing on overflow.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Decimal returns the amount in whole tokens.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -Decimals)
}

// String formats the amount in whole tokens with trailing zeros removed.
func (a Amount) String() string {
	return a.Decimal().String()
}

// Parse reads a token quantity such as "1000" or "0.25" into base units.
// Quantities with more than six fractional digits are rejected.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// FromDecimal converts a whole-token decimal into base units.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", d.String())
	}
	units := d.Shift(Decimals)
	if !units.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), Decimals)
	}
	bi := units.BigInt()
	if !bi.IsUint64() {
		return 0, ErrOverflow
	}
	return Amount(bi.Uint64()), nil
}

// ParseUnits reads a base-unit integer string.
func ParseUnits(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || d.IsNegative() {
		return 0, fmt.Errorf("invalid base-unit amount %q", s)
	}
	bi := d.BigInt()
	if !bi.IsUint64() {
		return 0, ErrOverflow
	}
	return Amount(bi.Uint64()), nil
}

// MarshalJSON encodes the amount as a quoted base-unit integer so that
// clients without 64-bit integers keep full precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(a), 10) + `"`), nil
}

// UnmarshalJSON accepts a quoted or bare base-unit integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid base-unit amount %s", string(data))
	}
	*a = Amount(v)
	return nil
}
