package model

import "strings"

// NormalizePhone canonicalizes a phone number for store lookups:
// digits only, forced "55" country prefix.
func NormalizePhone(phone string) string {
	digits := digitsOnly(phone)
	if digits == "" {
		return ""
	}
	if !strings.HasPrefix(digits, "55") {
		digits = "55" + digits
	}
	return digits
}

// NormalizeContactPhone canonicalizes an imported contact number to the
// 11-digit national form (DDD + 9-digit number): strips a leading country
// code and truncates trailing extension digits. Returns "" when fewer than
// 10 digits remain, which callers treat as "no usable phone".
func NormalizeContactPhone(phone string) string {
	digits := digitsOnly(phone)
	if len(digits) < 10 {
		return ""
	}
	if strings.HasPrefix(digits, "55") && len(digits) > 11 {
		digits = digits[2:]
	}
	if len(digits) > 11 {
		digits = digits[:11]
	}
	return digits
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
