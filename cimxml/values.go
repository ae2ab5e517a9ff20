package cimxml

import (
	"encoding/xml"
	"io"
	"strconv"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimerr"
	"github.com/tony23/pywbem/internal/ioutil"
)

// writeEscaped writes s with standard XML 1.0 character escaping
// (&, <, >, ") and rejects characters invalid in XML 1.0 (C0 controls
// other than TAB/LF/CR), per DSP0201's well-formedness requirement.
func writeEscaped(w io.Writer, s string) (int, error) {
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return 0, errtrace.Wrap(&cimerr.ModelError{Msg: "value contains character invalid in XML 1.0: " + strconv.QuoteRune(r)})
		}
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	if err := xml.EscapeText(cw, []byte(s)); err != nil {
		return 0, errtrace.Wrap(err)
	}
	return cw.Result()
}

// encodeValue writes a <VALUE> element for a scalar value, or nothing
// for a nil (NULL) value — DSP0201 represents NULL by omitting VALUE
// entirely inside its parent element.
func encodeValue(w io.Writer, v cim.Value) (int, error) {
	if v == nil {
		return 0, nil
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString("<VALUE>")
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, v.Render()) })
	cw.WriteString("</VALUE>")
	return cw.Result()
}

// encodeValueArray writes a <VALUE.ARRAY> element. A nil items slice
// still renders the (empty) element: an array property that is merely
// empty is distinct from one that is NULL, the latter being represented
// by omitting the array value entirely at the call site.
func encodeValueArray(w io.Writer, items []cim.Value) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString("<VALUE.ARRAY>")
	for _, it := range items {
		cw.Call(func(w io.Writer) (int, error) { return encodeValue(w, it) })
	}
	cw.WriteString("</VALUE.ARRAY>")
	return cw.Result()
}

// encodeValueReference writes a <VALUE.REFERENCE> element wrapping an
// <INSTANCENAME>. A path without keys is still written as an
// <INSTANCENAME> with no <KEYBINDING> children; <CLASSNAME> is never
// emitted here.
func encodeValueReference(w io.Writer, path *cim.InstanceName) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString("<VALUE.REFERENCE>")
	cw.Call(func(w io.Writer) (int, error) { return encodeInstanceName(w, path) })
	cw.WriteString("</VALUE.REFERENCE>")
	return cw.Result()
}

// decodeValueText parses the character data of a <VALUE> element into a
// typed cim.Value, applying the width/range validation DSP0201 and this
// client require for integers, and the NAN/INF/-INF text forms for reals.
func decodeValueText(typ cim.Type, text string) (cim.Value, error) {
	switch {
	case typ.IsInteger():
		v, err := cim.ParseInteger(typ, text)
		if err != nil {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: err.Error()})
		}
		return v, nil
	case typ == cim.TypeReal32 || typ == cim.TypeReal64:
		v, err := cim.ParseReal(typ, text)
		if err != nil {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: err.Error()})
		}
		return v, nil
	case typ == cim.TypeBoolean:
		b, ok := cim.ParseBoolean(text)
		if !ok {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "invalid boolean literal: " + strconv.Quote(text)})
		}
		return b, nil
	case typ == cim.TypeChar16:
		rs := []rune(text)
		if len(rs) != 1 {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "char16 value must be exactly one character"})
		}
		return cim.Char16(rs[0]), nil
	case typ == cim.TypeDateTime:
		dt, err := cim.ParseDateTime(text)
		if err != nil {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: err.Error()})
		}
		return dt, nil
	case typ == cim.TypeString || typ == cim.TypeUnknown:
		return cim.String(text), nil
	default:
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "unsupported scalar type for VALUE: " + typ.String()})
	}
}

// decodeValue decodes a <VALUE> child of n (if present) as typ.
func decodeValue(n *xmlNode, typ cim.Type) (cim.Value, error) {
	vn, err := n.optChild("VALUE")
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if vn == nil {
		return nil, nil
	}
	return errtrace.Wrap2(decodeValueText(typ, vn.Text))
}

// decodeValueArray decodes a <VALUE.ARRAY> child of n (if present) as an
// array of typ-typed elements.
func decodeValueArray(n *xmlNode, typ cim.Type) (*cim.Array, error) {
	an, err := n.optChild("VALUE.ARRAY")
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if an == nil {
		return nil, nil
	}
	if err := an.requireChildrenIn("VALUE", "VALUE.NULL"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	arr := &cim.Array{Elem: typ}
	for _, c := range an.Children {
		switch c.Name {
		case "VALUE.NULL":
			arr.Items = append(arr.Items, nil)
		case "VALUE":
			v, err := decodeValueText(typ, c.Text)
			if err != nil {
				return nil, errtrace.Wrap(err)
			}
			arr.Items = append(arr.Items, v)
		}
	}
	return arr, nil
}
