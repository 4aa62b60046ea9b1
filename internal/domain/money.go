package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in euro cents. Every price computation runs on
// Cents; decimal strings only exist at the form and storage boundary.
type Cents int64

// maxIntegerDigits keeps parsed amounts far away from int64 overflow.
const maxIntegerDigits = 13

var moneyRegex = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// NormalizeMoney trims raw, swaps a decimal comma for a dot and checks the
// result has at most two fractional digits. The normalised string is returned
// as typed ("100" stays "100").
func NormalizeMoney(field, raw string) (string, error) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	if !moneyRegex.MatchString(s) {
		return "", &ErrInvalidAmount{Field: field, Input: raw}
	}
	intPart, _, _ := strings.Cut(s, ".")
	if len(strings.TrimLeft(intPart, "0")) > maxIntegerDigits {
		return "", &ErrInvalidAmount{Field: field, Input: raw}
	}
	return s, nil
}

// ParseMoney parses a price typed with either decimal separator into cents.
func ParseMoney(field, raw string) (Cents, error) {
	s, err := NormalizeMoney(field, raw)
	if err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ErrInvalidAmount{Field: field, Input: raw}
	}
	return Cents(d.Shift(2).IntPart()), nil
}

// String renders the amount with a dot separator and two fractional digits.
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Display renders the amount the way the list and form show it: decimal comma.
func (c Cents) Display() string {
	return strings.Replace(c.String(), ".", ",", 1)
}

// ParseLooseAmount reads a stored amount written with a comma or a dot.
// Anything unparseable counts as zero so legacy or empty totals still sort.
func ParseLooseAmount(s string) decimal.Decimal {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
