package service

import "strings"

// E.164 allows at most 15 digits; shorter than 6 is never a subscriber number.
const (
	minPhoneDigits = 6
	maxPhoneDigits = 15
)

// NormalizePhone reduces a user-entered phone number to its canonical form:
// "+" followed by the digits only. "+221 77 123 45 67" and "221771234567"
// normalize to the same value.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw) + 1)
	b.WriteByte('+')

	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}

	if digits == 0 {
		return "", validationError("Phone number is required")
	}
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return "", validationError("Invalid phone number")
	}
	return b.String(), nil
}
