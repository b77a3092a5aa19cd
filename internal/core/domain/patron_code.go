package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	patronCodePrefixLen = 2
	patronCodeMin       = 10
	patronCodeMax       = 99
)

// PatronCodePrefix takes the first two ASCII letters of name, lowercased,
// padded with 'x' when the name has fewer usable letters.
func PatronCodePrefix(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < 'a' || r > 'z' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == patronCodePrefixLen {
			break
		}
	}
	for b.Len() < patronCodePrefixLen {
		b.WriteByte('x')
	}
	return b.String()
}

// PatronCode builds a short code from a prefix and a number in [10, 99]
func PatronCode(prefix string, n int) string {
	if n < patronCodeMin || n > patronCodeMax {
		n = patronCodeMin + ((n%90)+90)%90
	}
	return fmt.Sprintf("%s%02d", prefix, n)
}

// FallbackPatronCode is used once random codes keep colliding
func FallbackPatronCode(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d", prefix, now.UnixMilli())
}

// RandomPatronNumber maps an arbitrary non-negative int into [10, 99]
func RandomPatronNumber(r int) int {
	if r < 0 {
		r = -r
	}
	return patronCodeMin + r%(patronCodeMax-patronCodeMin+1)
}
