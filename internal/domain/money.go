package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by every balance
// and amount.
const MoneyScale = 2

// MaxMoney is the largest magnitude a balance or amount may hold.
var MaxMoney = decimal.RequireFromString("99999999.99")

// ParseMoney parses a decimal string into a scale-2 amount. It does not
// check the sign.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	return NormalizeMoney(d)
}

// NormalizeMoney rescales d to MoneyScale. Values that would need rounding
// or exceed MaxMoney are rejected rather than adjusted.
func NormalizeMoney(d decimal.Decimal) (decimal.Decimal, error) {
	scaled := d.Round(MoneyScale)
	if !scaled.Equal(d) {
		return decimal.Zero, fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidAmount, d, MoneyScale)
	}

	if scaled.Abs().GreaterThan(MaxMoney) {
		return decimal.Zero, fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, d, MaxMoney.StringFixed(MoneyScale))
	}

	return scaled, nil
}

// ValidateAmount checks a transfer amount: strictly positive and
// representable at MoneyScale.
func ValidateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	return NormalizeMoney(amount)
}

// ValidateBalance checks an administratively set balance.
func ValidateBalance(balance decimal.Decimal) (decimal.Decimal, error) {
	if balance.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: balance cannot be negative", ErrInvalidAmount)
	}

	return NormalizeMoney(balance)
}

// FormatMoney renders d with exactly MoneyScale fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
