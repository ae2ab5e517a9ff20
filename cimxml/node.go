package cimxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cimerr"
)

// xmlNode is a minimal, generic XML element tree node. The decoder
// parses a whole CIM-XML document into a tree of these before any
// CIM-specific interpretation happens, which lets the element-contract
// checks (required children, unknown-element rejection) live in one
// place per element instead of being smeared across a token-by-token
// state machine.
type xmlNode struct {
	Name     string
	Attrs    map[string]string
	Children []*xmlNode
	Text     string // concatenated character data, whitespace preserved exactly
	Line     int
}

func (n *xmlNode) attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// childrenNamed returns all direct children named name, in document order.
func (n *xmlNode) childrenNamed(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// child returns the single direct child named name, erroring if absent
// or duplicated.
func (n *xmlNode) child(name string) (*xmlNode, error) {
	cs := n.childrenNamed(name)
	switch len(cs) {
	case 0:
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "missing required <" + name + "> element", Line: n.Line})
	case 1:
		return cs[0], nil
	default:
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "duplicate <" + name + "> element", Line: n.Line})
	}
}

// optChild returns the single direct child named name, or nil if absent.
func (n *xmlNode) optChild(name string) (*xmlNode, error) {
	cs := n.childrenNamed(name)
	switch len(cs) {
	case 0:
		return nil, nil
	case 1:
		return cs[0], nil
	default:
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "duplicate <" + name + "> element", Line: n.Line})
	}
}

// requireChildrenIn rejects any direct child whose name isn't in
// allowed: DSP0200's DTD is closed, so extensions are never silently
// tolerated.
func (n *xmlNode) requireChildrenIn(allowed ...string) error {
	for _, c := range n.Children {
		ok := false
		for _, a := range allowed {
			if c.Name == a {
				ok = true
				break
			}
		}
		if !ok {
			return errtrace.Wrap(&cimerr.ParseError{Msg: "unexpected element <" + c.Name + "> inside <" + n.Name + ">", Line: c.Line})
		}
	}
	return nil
}

// parseDocument parses body into a single root xmlNode. All character
// data, whitespace included, is appended verbatim to the Text of the
// element it appears in; the decode functions read Text only from leaf
// elements (VALUE, KEYVALUE), so whitespace between elements never
// affects a decoded value, while whitespace inside a leaf is kept.
func parseDocument(body []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true

	var root *xmlNode
	var stack []*xmlNode

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, col := lineColAt(body, dec.InputOffset())
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: err.Error(), Line: line, Col: col})
		}
		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := lineColAt(body, dec.InputOffset())
			n := &xmlNode{Name: t.Name.Local, Attrs: map[string]string{}, Line: line}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "unbalanced end element </" + t.Name.Local + ">"})
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if len(cur.Children) == 0 && strings.TrimSpace(string(t)) == "" && cur.Text == "" {
				// Whitespace before any element/text content; real text
				// may still follow it, so it is accumulated rather than
				// discarded.
				cur.Text += string(t)
				continue
			}
			cur.Text += string(t)
		}
	}
	if root == nil {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "empty document"})
	}
	return root, nil
}

// lineColAt translates a byte offset into the decoded document into a
// 1-based (line, column) pair, for ParseError pointers.
func lineColAt(body []byte, offset int64) (line, col int) {
	line = 1
	lastNL := -1
	for i := int64(0); i < offset && i < int64(len(body)); i++ {
		if body[i] == '\n' {
			line++
			lastNL = int(i)
		}
	}
	col = int(offset) - lastNL
	return line, col
}
