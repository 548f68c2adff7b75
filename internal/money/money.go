package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrParse = errors.New("unparsable money amount")

// nonNumeric matches everything except digits, comma and period.
var nonNumeric = regexp.MustCompile(`[^\d.,]`)

// StripSymbols removes currency symbols and other decoration from a price
// string and normalizes a comma decimal separator to a period. The contract
// is exactly: strip everything except digits, comma, period; then comma -> period.
func StripSymbols(s string) string {
	s = nonNumeric.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, ",", ".")
}

// Money is an exact decimal currency amount. The currency itself is carried
// at the account level, not per value, so arithmetic never converts.
type Money struct {
	amount decimal.Decimal
}

func Zero() Money {
	return Money{}
}

// Parse reads a decimal amount from a price string such as "12.34",
// "$12,34" or "1234,56 руб.". Anything still non-numeric after symbol
// stripping fails with ErrParse.
func Parse(s string) (Money, error) {
	cleaned := StripSymbols(s)
	if cleaned == "" {
		return Money{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return Money{amount: d}, nil
}

// MustParse is Parse for values known to be valid, such as test fixtures.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMinorUnits builds an amount from an integer number of cents.
func FromMinorUnits(units int64) Money {
	return Money{amount: decimal.New(units, -2)}
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

// Sub may yield a negative amount. That is not an error: a negative result
// is the deficit signal consumed by the budget calculation.
func (m Money) Sub(o Money) Money {
	return Money{amount: m.amount.Sub(o.amount)}
}

// MulQty multiplies a unit price by an integer quantity.
func (m Money) MulQty(qty int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty)))}
}

// Cmp returns -1, 0 or 1 comparing m against o.
func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

func (m Money) GreaterThan(o Money) bool {
	return m.amount.GreaterThan(o.amount)
}

func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

// Sign returns -1 for negative amounts, 0 for zero and 1 for positive.
func (m Money) Sign() int {
	return m.amount.Sign()
}

func (m Money) IsPositive() bool {
	return m.amount.Sign() > 0
}

// MinorUnits returns the amount in cents, rounded to the nearest cent.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(2).Round(0).IntPart()
}

// String formats the amount with two fractional digits, so formatting and
// Parse round-trip for any amount with cent precision.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}
