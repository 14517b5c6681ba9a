// Package matcher picks the single winning rule for a payee.
//
// Resolution over every rule that matches:
//   - any regex match beats any substring match
//   - among regex matches the first in recency order wins
//   - among substring matches the longest pattern in runes wins, ties go to recency order
package matcher

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"payeerules/internal/core/normalize"
	"payeerules/internal/core/patterns"
	perr "payeerules/internal/platform/errors"
)

// Rule is the engine's view of a stored rule
type Rule struct {
	Key        string
	Pattern    string
	IsRegex    bool
	Category   string
	ModifiedAt time.Time
}

// Ordered is a rule list sorted newest modification first. Build it with ByRecency
type Ordered struct {
	rules []Rule
}

// ByRecency sorts a copy of rules by ModifiedAt descending, key ascending on equal times
func ByRecency(rules []Rule) Ordered {
	out := append([]Rule(nil), rules...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModifiedAt.Equal(out[j].ModifiedAt) {
			return out[i].ModifiedAt.After(out[j].ModifiedAt)
		}
		return out[i].Key < out[j].Key
	})
	return Ordered{rules: out}
}

// Len returns the number of rules
func (o Ordered) Len() int { return len(o.rules) }

// Rules returns a copy of the ordered rules
func (o Ordered) Rules() []Rule { return append([]Rule(nil), o.rules...) }

// Match is a winning rule
type Match struct {
	RuleKey  string
	Category string
	IsRegex  bool
}

type compiled struct {
	rule   Rule
	re     *regexp.Regexp
	folded string
	runes  int
}

// Set is a compiled snapshot of an Ordered list, safe for concurrent use
type Set struct {
	rules []compiled
}

// Compile prepares o for matching. A regex that no longer compiles, or that
// carries a construct the engine refuses, is an engine failure
func Compile(o Ordered) (*Set, error) {
	s := &Set{rules: make([]compiled, 0, len(o.rules))}
	for _, r := range o.rules {
		c := compiled{rule: r}
		if r.IsRegex {
			if f, bad := patterns.Scan(r.Pattern); bad {
				return nil, perr.Newf(perr.ErrorCodeEngine, "rule %s: %s", r.Key, patterns.UnsupportedMessage(f))
			}
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeEngine, "rule %s: %s", r.Key, patterns.SyntaxMessage(err))
			}
			c.re = re
		} else {
			c.folded = normalize.Fold(r.Pattern)
			c.runes = utf8.RuneCountInString(r.Pattern)
		}
		s.rules = append(s.rules, c)
	}
	return s, nil
}

// Len returns the number of compiled rules
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// BestMatch returns the winning rule for payee, blank payees never match
func (s *Set) BestMatch(payee string) (Match, bool) {
	if s == nil || strings.TrimSpace(payee) == "" {
		return Match{}, false
	}
	var folded string
	haveFolded := false
	best := -1
	for i := range s.rules {
		c := &s.rules[i]
		if c.re != nil {
			if c.re.MatchString(payee) {
				return toMatch(c.rule), true
			}
			continue
		}
		if c.folded == "" {
			continue
		}
		if !haveFolded {
			folded, haveFolded = normalize.Fold(payee), true
		}
		if !strings.Contains(folded, c.folded) {
			continue
		}
		if best < 0 || c.runes > s.rules[best].runes {
			best = i
		}
	}
	if best < 0 {
		return Match{}, false
	}
	return toMatch(s.rules[best].rule), true
}

// FindBestMatch compiles rules and matches one payee
func FindBestMatch(payee string, rules Ordered) (Match, bool, error) {
	s, err := Compile(rules)
	if err != nil {
		return Match{}, false, err
	}
	m, ok := s.BestMatch(payee)
	return m, ok, nil
}

func toMatch(r Rule) Match {
	return Match{RuleKey: r.Key, Category: r.Category, IsRegex: r.IsRegex}
}
