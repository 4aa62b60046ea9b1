package domain

import (
	"regexp"
	"strings"
)

// GroupedDigitsLen is the digit count of a NIF and of a contact number.
const GroupedDigitsLen = 9

var nonDigitRegex = regexp.MustCompile(`[^0-9]`)

// DigitsOnly strips every non-digit character.
func DigitsOnly(raw string) string {
	return nonDigitRegex.ReplaceAllString(raw, "")
}

// FormatGroupedDigits formats raw input as DDD-DDD-DDD, inserting separators
// as digits become available and silently dropping anything past 9 digits.
func FormatGroupedDigits(raw string) string {
	digits := DigitsOnly(raw)
	if len(digits) > GroupedDigitsLen {
		digits = digits[:GroupedDigitsLen]
	}

	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return digits[:3] + "-" + digits[3:]
	default:
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	}
}

// CheckGroupedDigits reports ErrInvalidLength unless raw holds exactly 9 digits.
// Used on blur and on submit; formatting alone never fails.
func CheckGroupedDigits(field, raw string) error {
	if n := len(DigitsOnly(raw)); n != GroupedDigitsLen {
		return &ErrInvalidLength{Field: field, Digits: n}
	}
	return nil
}

// SameNIF compares two NIFs by their digits, so grouped and bare forms match.
func SameNIF(a, b string) bool {
	da := DigitsOnly(a)
	return da != "" && da == DigitsOnly(b)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
