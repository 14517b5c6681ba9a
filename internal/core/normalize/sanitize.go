package normalize

import (
	"strings"
	"unicode/utf8"
)

// Sanitize drops what should never reach the rule store or a comparison:
// invalid UTF-8, NUL and other C0 controls except tab and newlines, DEL and C1 controls.
// Clean input comes back unchanged without allocating
func Sanitize(s string) string {
	n := len(s)
	i := 0
	for i < n {
		size, keep := classify(s[i:])
		if !keep {
			break
		}
		i += size
	}
	if i == n {
		return s
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(s[:i])
	for i < n {
		size, keep := classify(s[i:])
		if keep {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}

// classify reports the byte length of the leading rune of s and whether it survives
func classify(s string) (int, bool) {
	c := s[0]
	switch {
	case c == '\n' || c == '\r' || c == '\t':
		return 1, true
	case c < 0x20 || c == 0x7F:
		return 1, false
	case c < utf8.RuneSelf:
		return 1, true
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size == 1 {
		return 1, false
	}
	if r >= 0x80 && r <= 0x9F {
		return size, false
	}
	return size, true
}
