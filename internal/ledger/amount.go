package ledger

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-point balance in hundredths of a unit.
type Amount int64

const amountExp = -2

var (
	maxScaled = decimal.NewFromInt(math.MaxInt64)
	minScaled = decimal.NewFromInt(math.MinInt64)
)

// Units converts whole units to an Amount.
func Units(n int64) Amount {
	return Amount(n * 100)
}

// ParseAmount parses a decimal string such as "6" or "0.50".
// More than two fractional digits is an error rather than a silent rounding.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts d to an Amount.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	scaled := d.Shift(-amountExp)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d)
	}
	if scaled.GreaterThan(maxScaled) || scaled.LessThan(minScaled) {
		return 0, fmt.Errorf("amount %s is out of range", d)
	}
	return Amount(scaled.IntPart()), nil
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), amountExp)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(-amountExp)
}
