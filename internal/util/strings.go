// Package util provides small shared helpers used across the module:
// string case-folding and the like.
package util

import "strings"

// LCase returns the lower-cased form of s, preserving its concrete string type.
func LCase[T ~string](s T) T { return T(strings.ToLower(string(s))) }

// EqFold reports whether s1 and s2 are equal under case folding.
func EqFold[T1, T2 ~string](s1 T1, s2 T2) bool {
	return strings.EqualFold(string(s1), string(s2))
}
