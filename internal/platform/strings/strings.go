// Package strings holds small string helpers used by modules and repos
package strings

import std "strings"

// Blank reports whether s is empty or only whitespace
func Blank(s string) bool { return std.TrimSpace(s) == "" }

// MustString panics with name when s is blank
func MustString(s, name string) string {
	if Blank(s) {
		panic(name + " is required")
	}
	return s
}

// MustPrefix normalises a route prefix to "/x" form and panics on the bare root
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// Ptr returns &s, or nil for ""
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" for nil
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}
