package registry

import (
	"regexp"
	"strings"
)

var cpfPattern = regexp.MustCompile(`^(\d{11}|\d{3}\.\d{3}\.\d{3}-\d{2})$`)

// IsValidCPF reports whether s is a well-formed CPF with valid check digits.
// Both "48603117012" and "486.031.170-12" are accepted.
func IsValidCPF(s string) bool {
	s = strings.TrimSpace(s)
	if !cpfPattern.MatchString(s) {
		return false
	}
	d := cpfDigits(s)

	// Repeated digits pass the checksum but are never issued.
	allSame := true
	for _, v := range d[1:] {
		if v != d[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	return cpfCheckDigit(d[:9]) == d[9] && cpfCheckDigit(d[:10]) == d[10]
}

// NormalizeIdentificationNumber renders an 11-digit CPF as 000.000.000-00.
// Anything else is returned trimmed and otherwise unchanged.
func NormalizeIdentificationNumber(s string) string {
	s = strings.TrimSpace(s)
	d := cpfDigits(s)
	if len(d) != 11 {
		return s
	}
	var b strings.Builder
	for i, v := range d {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteByte(byte('0' + v))
	}
	return b.String()
}

func cpfDigits(s string) []int {
	out := make([]int, 0, 11)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

// cpfCheckDigit computes the mod-11 check digit over the given prefix
func cpfCheckDigit(prefix []int) int {
	weight := len(prefix) + 1
	sum := 0
	for i, v := range prefix {
		sum += v * (weight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}
