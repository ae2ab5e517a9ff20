package cim

import "github.com/tony23/pywbem/internal/util"

// Name is a CIM identifier: a class, property, method, parameter or
// qualifier name. Names compare case-insensitively.
type Name string

// Equal reports whether n and other name the same CIM element, folding case.
func (n Name) Equal(other Name) bool { return util.EqFold(n, other) }

// Fold returns the case-folded form of n, used as a map/index key.
func (n Name) Fold() string { return string(util.LCase(n)) }

// NormalizeNamespace strips leading/trailing '/' and collapses internal
// runs of '/' to a single separator, per DSP0200's namespace-path
// encoding rules.
func NormalizeNamespace(ns string) string {
	if ns == "" {
		return ""
	}
	out := make([]byte, 0, len(ns))
	var lastSlash bool
	for i := 0; i < len(ns); i++ {
		c := ns[i]
		if c == '/' {
			lastSlash = true
			continue
		}
		if lastSlash && len(out) > 0 {
			out = append(out, '/')
		}
		lastSlash = false
		out = append(out, c)
	}
	return string(out)
}
