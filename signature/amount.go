package signature

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is an OutSum value. It keeps the exact text the caller supplied
// because the gateway hashes the literal, so "1" and "1.00" sign differently.
type Amount struct {
	raw string
}

func AmountFromInt(v int64) Amount {
	return Amount{raw: strconv.FormatInt(v, 10)}
}

// AmountFromFloat formats v with the fewest digits that round-trip,
// without exponent or grouping.
func AmountFromFloat(v float64) Amount {
	return Amount{raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// AmountFromString keeps s verbatim. Use ParseAmount to validate it.
func AmountFromString(s string) Amount {
	return Amount{raw: s}
}

// AmountFromDecimal keeps the scale of d, so 10.00 stays "10.00".
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{raw: decimalString(d)}
}

func decimalString(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}

// ParseAmount validates s as a non-negative decimal and keeps its literal form.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{raw: s}, nil
}

func (a Amount) String() string { return a.raw }

// IsZero reports whether the amount was never set.
func (a Amount) IsZero() bool { return a.raw == "" }

func (a Amount) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(a.raw)
}
