package services

import (
	"regexp"
	"strings"
)

var e164RE = regexp.MustCompile(`^\+\d{7,15}$`)

// FormatPhone normalizes a Russian-style phone number to E.164.
//
// Everything except digits and a leading '+' is stripped. Without a leading
// '+', "8" followed by 10 digits becomes "+7" and the 10 digits, and a bare
// 10-digit number gets a "+7" prefix. Any other input without '+' is
// rejected. The result must be '+' followed by 7 to 15 digits.
func FormatPhone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	var out string
	switch {
	case plus:
		out = "+" + digits
	case len(digits) == 11 && digits[0] == '8':
		out = "+7" + digits[1:]
	case len(digits) == 10:
		out = "+7" + digits
	default:
		return "", false
	}

	if !e164RE.MatchString(out) {
		return "", false
	}
	return out, true
}
