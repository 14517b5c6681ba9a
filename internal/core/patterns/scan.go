package patterns

import "strings"

// Scan reports the first construct in pattern that needs a backtracking engine.
// Escaped characters, character classes and \Q...\E literal runs are skipped,
// so "[\1]" or "\Q(?=\E" are not reported
func Scan(pattern string) (Feature, bool) {
	n := len(pattern)
	for i := 0; i < n; {
		switch pattern[i] {
		case '\\':
			if i+1 >= n {
				return "", false
			}
			if f, ok := escapeFeature(pattern[i+1:]); ok {
				return f, true
			}
			if pattern[i+1] == 'Q' {
				i = skipQuoted(pattern, i+2)
				continue
			}
			i += 2
		case '[':
			i = skipClass(pattern, i)
		case '(':
			if f, ok := groupFeature(pattern[i+1:]); ok {
				return f, true
			}
			i++
		default:
			i++
		}
	}
	return "", false
}

// escapeFeature inspects the text right after a backslash
func escapeFeature(rest string) (Feature, bool) {
	c := rest[0]
	switch {
	case c >= '1' && c <= '9':
		return Backreferences, true
	case c == 'k' && len(rest) > 1 && strings.ContainsRune("<'{", rune(rest[1])):
		return Backreferences, true
	case c == 'g' && len(rest) > 1 && (rest[1] == '{' || rest[1] == '-' || (rest[1] >= '0' && rest[1] <= '9')):
		return Backreferences, true
	}
	return "", false
}

// groupFeature inspects the text right after an unescaped '('
func groupFeature(rest string) (Feature, bool) {
	switch {
	case strings.HasPrefix(rest, "?="), strings.HasPrefix(rest, "?!"):
		return Lookahead, true
	case strings.HasPrefix(rest, "?<="), strings.HasPrefix(rest, "?<!"):
		return Lookbehind, true
	case strings.HasPrefix(rest, "?P="):
		return Backreferences, true
	case strings.HasPrefix(rest, "?>"):
		return AtomicGroups, true
	case strings.HasPrefix(rest, "?("):
		return Conditionals, true
	}
	return "", false
}

// skipQuoted returns the index after the \E closing a \Q run that started at i, or len when unterminated
func skipQuoted(p string, i int) int {
	if j := strings.Index(p[i:], `\E`); j >= 0 {
		return i + j + 2
	}
	return len(p)
}

// skipClass returns the index after the ']' closing the class opened at i.
// A ']' first in the class, or right after '^', is a literal
func skipClass(p string, i int) int {
	n := len(p)
	j := i + 1
	if j < n && p[j] == '^' {
		j++
	}
	if j < n && p[j] == ']' {
		j++
	}
	for j < n {
		switch p[j] {
		case '\\':
			j += 2
		case '[':
			if j+1 < n && p[j+1] == ':' {
				if k := strings.Index(p[j+2:], ":]"); k >= 0 {
					j += k + 4
					continue
				}
			}
			j++
		case ']':
			return j + 1
		default:
			j++
		}
	}
	return n
}
