// Package phone provides privacy helpers for phone numbers.
package phone

import "strings"

// MaskPrefix replaces every digit but the last four of a stored phone number.
const MaskPrefix = "******"

const visibleDigits = 4

// IsMasked reports whether s has already been through Mask.
func IsMasked(s string) bool {
	return strings.HasPrefix(s, MaskPrefix)
}

// Mask returns a display-safe form of raw showing only its last four digits.
// Inputs with fewer than four digits are zero-padded on the left. Already
// masked values are returned unchanged.
func Mask(raw string) string {
	if IsMasked(raw) {
		return raw
	}

	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}

	if len(digits) < visibleDigits {
		return MaskPrefix + strings.Repeat("0", visibleDigits-len(digits)) + string(digits)
	}
	return MaskPrefix + string(digits[len(digits)-visibleDigits:])
}
