package utils

import (
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// NormalizeToE164 converts a user-entered phone number to E.164.
//
// Input starting with "+" keeps its country code and must contain 8 to 15
// significant digits.  Otherwise 10 digits are treated as a US number and
// 11 digits starting with 1 as a US number with country code.  Anything
// else does not normalize and ok is false.
func NormalizeToE164(input string) (string, bool) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", false
	}
	digits := digitsOnly(raw)

	if strings.HasPrefix(raw, "+") {
		e164 := "+" + digits
		if e164Pattern.MatchString(e164) {
			return e164, true
		}
		return "", false
	}

	switch {
	case len(digits) == 10:
		return "+1" + digits, true
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, true
	}
	return "", false
}

// IsE164 reports whether s is already in canonical E.164 form.
func IsE164(s string) bool {
	return e164Pattern.MatchString(strings.TrimSpace(s))
}

// FormatPretty renders a number as "(NNN) NNN-NNNN" for live input echo.
// Shorter input is rendered partially; a leading country-code 1 is dropped
// when more than ten digits were typed.  Never use the result for storage.
func FormatPretty(input string) string {
	d := digitsOnly(input)
	if strings.HasPrefix(d, "1") && len(d) > 10 {
		d = d[1:]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	}
	end := len(d)
	if end > 10 {
		end = 10
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:end]
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
