// Package cimxml implements the CIM-XML wire encoding (DSP0200/DSP0201):
// translating typed [cim] objects into CIM-XML request bodies, and CIM-XML
// response bodies back into typed objects.
//
// The encoder writes CIM-XML by hand, the same way the rest of this
// module renders wire formats: deterministic element/attribute order, no
// element emitted for an absent (nil) value, and byte-for-byte control
// over whitespace. The decoder parses into a small generic element tree
// (xmlNode) with [encoding/xml] as the tokenizer — no ecosystem package
// in this module's dependency set offers a DOM-style XML reader, so the
// standard library fills that narrow role — and then walks that tree
// with CIM-XML's own element contracts, rejecting any element the DTD
// doesn't name.
package cimxml
