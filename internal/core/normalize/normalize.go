// Package normalize prepares payee text for comparison and cleans category labels
//
// Fold pipeline
// 1 drop invalid UTF-8 and control bytes
// 2 NFC so precomposed and combining forms compare equal
// 3 Unicode case folding
// 4 remove format chars such as zero-width joiners
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transformer chains keep state, so each goroutine takes its own from the pool
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)),
		)
	},
}

// Fold returns the case-insensitive comparison form of s
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Category cleans a category label: whitespace runs become one space, the
// ends are trimmed and spaces around the ':' hierarchy separator are dropped
//
//	"  Shopping : Online  " -> "Shopping:Online"
func Category(s string) string {
	s = collapseSpaces(norm.NFC.String(Sanitize(s)))
	if !strings.ContainsRune(s, ':') {
		return s
	}
	parts := strings.Split(s, ":")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ":")
}

// collapseSpaces turns every whitespace run, newlines included, into one ASCII space and trims
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
