// Package patterns decides whether a regex rule pattern can be stored.
// Matching runs on Go's RE2 engine, which is linear in the input and has no
// backtracking, so constructs that need backtracking are rejected up front
// with the feature named instead of surfacing as an opaque parse error
package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"

	perr "payeerules/internal/platform/errors"
)

// Kind tags a validation outcome
type Kind uint8

const (
	// OK means the pattern compiles under the linear-time engine
	OK Kind = iota
	// Empty means the pattern is empty or whitespace only
	Empty
	// Unsupported means the pattern uses a construct the engine lacks
	Unsupported
	// Syntax means the engine failed to parse the pattern
	Syntax
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case Empty:
		return "empty"
	case Unsupported:
		return "unsupported"
	case Syntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Feature names a construct the engine cannot run
type Feature string

const (
	Backreferences Feature = "backreferences"
	Lookahead      Feature = "lookahead"
	Lookbehind     Feature = "lookbehind"
	AtomicGroups   Feature = "atomic groups"
	Conditionals   Feature = "conditionals"
)

// EmptyMessage is the message for Empty results
const EmptyMessage = "pattern is empty or whitespace"

// Result is the tagged outcome of Validate, Feature is set only for Unsupported
type Result struct {
	Kind    Kind
	Feature Feature
	Message string
}

// Valid reports whether the pattern may be stored
func (r Result) Valid() bool { return r.Kind == OK }

// Err returns nil for OK, otherwise a validation error on the pattern field
func (r Result) Err() error {
	if r.Kind == OK {
		return nil
	}
	return perr.Validation(perr.FieldError{Field: "pattern", Message: r.Message})
}

// Validate checks pattern for the linear-time engine
func Validate(pattern string) Result {
	if strings.TrimSpace(pattern) == "" {
		return Result{Kind: Empty, Message: EmptyMessage}
	}
	if f, ok := Scan(pattern); ok {
		return Result{Kind: Unsupported, Feature: f, Message: UnsupportedMessage(f)}
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return Result{Kind: Syntax, Message: SyntaxMessage(err)}
	}
	return Result{Kind: OK}
}

// UnsupportedMessage explains why a feature is rejected
func UnsupportedMessage(f Feature) string {
	return fmt.Sprintf("Pattern uses %s, which the ReDoS-safe linear-time regex engine does not support", f)
}

// SyntaxMessage formats an engine parse error
func SyntaxMessage(err error) string {
	var se *syntax.Error
	if errors.As(err, &se) {
		return fmt.Sprintf("Invalid regex pattern: %s: `%s`", se.Code, se.Expr)
	}
	return "Invalid regex pattern: " + err.Error()
}
