package cimxml

import (
	"io"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimerr"
	"github.com/tony23/pywbem/internal/ioutil"
)

// --- NAMESPACE / LOCALNAMESPACEPATH -----------------------------------

// encodeLocalNamespacePath writes <LOCALNAMESPACEPATH> with one
// <NAMESPACE NAME="..."/> per normalized path segment.
func encodeLocalNamespacePath(w io.Writer, namespace string) (int, error) {
	ns := cim.NormalizeNamespace(namespace)
	if ns == "" {
		return 0, errtrace.Wrap(&cimerr.ModelError{Msg: "namespace must not be empty"})
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString("<LOCALNAMESPACEPATH>")
	for _, seg := range splitNamespace(ns) {
		cw.WriteString(`<NAMESPACE NAME="`)
		cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, seg) })
		cw.WriteString(`"/>`)
	}
	cw.WriteString("</LOCALNAMESPACEPATH>")
	return cw.Result()
}

func splitNamespace(ns string) []string {
	var segs []string
	start := 0
	for i := 0; i <= len(ns); i++ {
		if i == len(ns) || ns[i] == '/' {
			if i > start {
				segs = append(segs, ns[start:i])
			}
			start = i + 1
		}
	}
	return segs
}

// decodeLocalNamespacePath decodes a <LOCALNAMESPACEPATH> element back
// into its "/"-joined namespace string.
func decodeLocalNamespacePath(n *xmlNode) (string, error) {
	if err := n.requireChildrenIn("NAMESPACE"); err != nil {
		return "", errtrace.Wrap(err)
	}
	segs := n.childrenNamed("NAMESPACE")
	if len(segs) == 0 {
		return "", errtrace.Wrap(&cimerr.ParseError{Msg: "<LOCALNAMESPACEPATH> has no <NAMESPACE> children", Line: n.Line})
	}
	out := ""
	for i, seg := range segs {
		name, ok := seg.attr("NAME")
		if !ok {
			return "", errtrace.Wrap(&cimerr.ParseError{Msg: "<NAMESPACE> missing NAME attribute", Line: seg.Line})
		}
		if i > 0 {
			out += "/"
		}
		out += name
	}
	return out, nil
}

// --- INSTANCENAME / KEYBINDING -----------------------------------------

func encodeInstanceName(w io.Writer, path *cim.InstanceName) (int, error) {
	if path == nil {
		return 0, nil
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(`<INSTANCENAME CLASSNAME="`)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, path.ClassName) })
	cw.WriteString(`">`)
	for _, name := range path.KeyNames() {
		val, _ := path.Key(name)
		cw.WriteString(`<KEYBINDING NAME="`)
		cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, name) })
		cw.WriteString(`">`)
		cw.Call(func(w io.Writer) (int, error) { return encodeKeyValue(w, val) })
		cw.WriteString("</KEYBINDING>")
	}
	cw.WriteString("</INSTANCENAME>")
	return cw.Result()
}

func encodeKeyValue(w io.Writer, val cim.Value) (int, error) {
	if ref, ok := val.(cim.ReferenceValue); ok {
		return errtrace.Wrap2(encodeValueReference(w, ref.Path))
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprintf(`<KEYVALUE VALUETYPE="%s" TYPE="%s">`, keyValueType(val.Type()), val.Type().String())
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, val.Render()) })
	cw.WriteString("</KEYVALUE>")
	return cw.Result()
}

func keyValueType(t cim.Type) string {
	switch t {
	case cim.TypeString, cim.TypeChar16, cim.TypeDateTime:
		return "string"
	case cim.TypeBoolean:
		return "boolean"
	default:
		return "numeric"
	}
}

func decodeInstanceName(n *xmlNode) (*cim.InstanceName, error) {
	if n.Name != "INSTANCENAME" {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "expected <INSTANCENAME>, got <" + n.Name + ">", Line: n.Line})
	}
	className, ok := n.attr("CLASSNAME")
	if !ok {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<INSTANCENAME> missing CLASSNAME attribute", Line: n.Line})
	}
	if err := n.requireChildrenIn("KEYBINDING"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	path := cim.NewInstanceName(className, "")
	for _, kb := range n.childrenNamed("KEYBINDING") {
		name, ok := kb.attr("NAME")
		if !ok {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<KEYBINDING> missing NAME attribute", Line: kb.Line})
		}
		if err := kb.requireChildrenIn("KEYVALUE", "VALUE.REFERENCE"); err != nil {
			return nil, errtrace.Wrap(err)
		}
		val, err := decodeKeyBindingValue(kb)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		path.SetKey(name, val)
	}
	return path, nil
}

func decodeKeyBindingValue(kb *xmlNode) (cim.Value, error) {
	if kv, err := kb.optChild("KEYVALUE"); err != nil {
		return nil, errtrace.Wrap(err)
	} else if kv != nil {
		typ := cim.TypeString
		if t, ok := kv.attr("TYPE"); ok {
			if parsed, ok := cim.ParseType(t); ok {
				typ = parsed
			}
		} else if vt, _ := kv.attr("VALUETYPE"); vt == "boolean" {
			typ = cim.TypeBoolean
		} else if vt == "numeric" {
			typ = cim.TypeSint64
		}
		return errtrace.Wrap2(decodeValueText(typ, kv.Text))
	}
	vr, err := kb.child("VALUE.REFERENCE")
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	inner, err := vr.child("INSTANCENAME")
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	ref, err := decodeInstanceName(inner)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return cim.ReferenceValue{Path: ref}, nil
}

// --- QUALIFIER -----------------------------------------------------------

func encodeQualifiers(w io.Writer, quals []*cim.Qualifier) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for _, q := range quals {
		cw.Call(func(w io.Writer) (int, error) { return encodeQualifier(w, q) })
	}
	return cw.Result()
}

func encodeQualifier(w io.Writer, q *cim.Qualifier) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(`<QUALIFIER NAME="`)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, q.Name) })
	cw.Fprintf(`" TYPE="%s">`, q.Type.String())
	if q.IsArray {
		if arr, ok := q.Value.(*cim.Array); ok {
			cw.Call(func(w io.Writer) (int, error) { return encodeValueArray(w, arr.Items) })
		}
	} else {
		cw.Call(func(w io.Writer) (int, error) { return encodeValue(w, q.Value) })
	}
	cw.WriteString("</QUALIFIER>")
	return cw.Result()
}

func decodeQualifier(n *xmlNode) (*cim.Qualifier, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<QUALIFIER> missing NAME attribute", Line: n.Line})
	}
	typeStr, _ := n.attr("TYPE")
	typ, _ := cim.ParseType(typeStr)
	if err := n.requireChildrenIn("VALUE", "VALUE.ARRAY"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	q := &cim.Qualifier{Name: name, Type: typ, Propagated: attrBool(n, "PROPAGATED")}
	if arr, err := decodeValueArray(n, typ); err != nil {
		return nil, errtrace.Wrap(err)
	} else if arr != nil {
		q.IsArray = true
		q.Value = arr
	} else if v, err := decodeValue(n, typ); err != nil {
		return nil, errtrace.Wrap(err)
	} else {
		q.Value = v
	}
	return q, nil
}

func attrBool(n *xmlNode, name string) bool {
	v, ok := n.attr(name)
	if !ok {
		return false
	}
	b, _ := cim.ParseBoolean(v)
	return bool(b)
}

// --- PROPERTY --------------------------------------------------------------

func encodeProperty(w io.Writer, p *cim.Property) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	elem := "PROPERTY"
	if p.IsArray {
		elem = "PROPERTY.ARRAY"
	} else if p.Type == cim.TypeReference {
		elem = "PROPERTY.REFERENCE"
	}

	cw.Fprintf(`<%s NAME="`, elem)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, p.Name) })
	cw.WriteString(`"`)
	if elem == "PROPERTY.REFERENCE" {
		cw.WriteString(` REFERENCECLASS="`)
		cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, p.ReferenceClass) })
		cw.WriteString(`"`)
	} else {
		cw.Fprintf(` TYPE="%s"`, p.Type.String())
	}
	if p.ArraySize != nil {
		cw.Fprintf(` ARRAYSIZE="%d"`, *p.ArraySize)
	}
	if p.Propagated {
		cw.WriteString(` PROPAGATED="true"`)
	}
	cw.WriteString(">")
	cw.Call(func(w io.Writer) (int, error) {
		return encodeQualifiers(w, p.Qualifiers.Values())
	})
	switch {
	case elem == "PROPERTY.REFERENCE":
		if ref, ok := p.Value.(cim.ReferenceValue); ok {
			cw.Call(func(w io.Writer) (int, error) { return encodeValueReference(w, ref.Path) })
		}
	case p.IsArray:
		if arr, ok := p.Value.(*cim.Array); ok && arr != nil {
			cw.Call(func(w io.Writer) (int, error) { return encodeValueArray(w, arr.Items) })
		}
	default:
		cw.Call(func(w io.Writer) (int, error) { return encodeValue(w, p.Value) })
	}
	cw.Fprintf("</%s>", elem)
	return cw.Result()
}

func decodeProperty(n *xmlNode) (*cim.Property, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<" + n.Name + "> missing NAME attribute", Line: n.Line})
	}
	p := &cim.Property{Name: name, Propagated: attrBool(n, "PROPAGATED"), Qualifiers: cim.NewOrderedMap[*cim.Qualifier]()}

	if err := n.requireChildrenIn("QUALIFIER", "VALUE", "VALUE.ARRAY", "VALUE.REFERENCE"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	for _, qn := range n.childrenNamed("QUALIFIER") {
		q, err := decodeQualifier(qn)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		p.Qualifiers.Set(q.Name, q)
	}

	switch n.Name {
	case "PROPERTY.REFERENCE":
		p.Type = cim.TypeReference
		p.ReferenceClass, _ = n.attr("REFERENCECLASS")
		if vr, err := n.optChild("VALUE.REFERENCE"); err != nil {
			return nil, errtrace.Wrap(err)
		} else if vr != nil {
			inner, err := vr.child("INSTANCENAME")
			if err != nil {
				return nil, errtrace.Wrap(err)
			}
			path, err := decodeInstanceName(inner)
			if err != nil {
				return nil, errtrace.Wrap(err)
			}
			p.Value = cim.ReferenceValue{Path: path}
		}
	case "PROPERTY.ARRAY":
		p.IsArray = true
		typeStr, _ := n.attr("TYPE")
		typ, _ := cim.ParseType(typeStr)
		p.Type = typ
		if sz, ok := n.attr("ARRAYSIZE"); ok {
			v, err := cim.ParseInteger(cim.TypeUint32, sz)
			if err != nil {
				return nil, errtrace.Wrap(&cimerr.ParseError{Msg: err.Error(), Line: n.Line})
			}
			u := uint32(v.(cim.Uint32))
			p.ArraySize = &u
		}
		arr, err := decodeValueArray(n, typ)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		if arr != nil {
			p.Value = arr
		}
	case "PROPERTY":
		typeStr, _ := n.attr("TYPE")
		typ, _ := cim.ParseType(typeStr)
		p.Type = typ
		v, err := decodeValue(n, typ)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		p.Value = v
	default:
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "unexpected element <" + n.Name + "> where a property was expected", Line: n.Line})
	}
	return p, nil
}

// --- INSTANCE ---------------------------------------------------------------

func encodeInstance(w io.Writer, inst *cim.Instance) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(`<INSTANCE CLASSNAME="`)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, inst.ClassName) })
	cw.WriteString(`">`)
	cw.Call(func(w io.Writer) (int, error) { return encodeQualifiers(w, inst.Qualifiers.Values()) })
	for _, name := range inst.Properties.Keys() {
		p, _ := inst.Properties.Get(name)
		cw.Call(func(w io.Writer) (int, error) { return encodeProperty(w, p) })
	}
	cw.WriteString("</INSTANCE>")
	return cw.Result()
}

func decodeInstance(n *xmlNode) (*cim.Instance, error) {
	if n.Name != "INSTANCE" {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "expected <INSTANCE>, got <" + n.Name + ">", Line: n.Line})
	}
	className, ok := n.attr("CLASSNAME")
	if !ok {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<INSTANCE> missing CLASSNAME attribute", Line: n.Line})
	}
	if err := n.requireChildrenIn("QUALIFIER", "PROPERTY", "PROPERTY.ARRAY", "PROPERTY.REFERENCE"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	inst := cim.NewInstance(className)
	for _, qn := range n.childrenNamed("QUALIFIER") {
		q, err := decodeQualifier(qn)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		inst.Qualifiers.Set(q.Name, q)
	}
	for _, c := range n.Children {
		if c.Name != "PROPERTY" && c.Name != "PROPERTY.ARRAY" && c.Name != "PROPERTY.REFERENCE" {
			continue
		}
		p, err := decodeProperty(c)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		inst.SetProperty(p)
	}
	return inst, nil
}

// encodeValueNamedInstance writes a <VALUE.NAMEDINSTANCE> pairing a
// decoded path with its instance, used by EnumerateInstances-family
// responses that return (name, instance) tuples.
func encodeValueNamedInstance(w io.Writer, path *cim.InstanceName, inst *cim.Instance) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString("<VALUE.NAMEDINSTANCE>")
	cw.Call(func(w io.Writer) (int, error) { return encodeInstanceName(w, path) })
	cw.Call(func(w io.Writer) (int, error) { return encodeInstance(w, inst) })
	cw.WriteString("</VALUE.NAMEDINSTANCE>")
	return cw.Result()
}

func decodeValueNamedInstance(n *xmlNode) (*cim.InstanceName, *cim.Instance, error) {
	if err := n.requireChildrenIn("INSTANCENAME", "INSTANCE"); err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	pn, err := n.child("INSTANCENAME")
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	path, err := decodeInstanceName(pn)
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	in, err := n.child("INSTANCE")
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	inst, err := decodeInstance(in)
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	return path, inst, nil
}

// --- CLASSNAME / CLASS -------------------------------------------------------

func encodeClassName(w io.Writer, className string) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(`<CLASSNAME NAME="`)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, className) })
	cw.WriteString(`"/>`)
	return cw.Result()
}

func decodeClassName(n *xmlNode) (string, error) {
	if n.Name != "CLASSNAME" {
		return "", errtrace.Wrap(&cimerr.ParseError{Msg: "expected <CLASSNAME>, got <" + n.Name + ">", Line: n.Line})
	}
	name, ok := n.attr("NAME")
	if !ok {
		return "", errtrace.Wrap(&cimerr.ParseError{Msg: "<CLASSNAME> missing NAME attribute", Line: n.Line})
	}
	return name, nil
}

func decodeClass(n *xmlNode) (*cim.Class, error) {
	if n.Name != "CLASS" {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "expected <CLASS>, got <" + n.Name + ">", Line: n.Line})
	}
	className, ok := n.attr("NAME")
	if !ok {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<CLASS> missing NAME attribute", Line: n.Line})
	}
	if err := n.requireChildrenIn("QUALIFIER", "PROPERTY", "PROPERTY.ARRAY", "PROPERTY.REFERENCE", "METHOD"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	c := cim.NewClass(className)
	c.Superclass, _ = n.attr("SUPERCLASS")
	for _, qn := range n.childrenNamed("QUALIFIER") {
		q, err := decodeQualifier(qn)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		c.Qualifiers.Set(q.Name, q)
	}
	for _, pn := range n.Children {
		if pn.Name != "PROPERTY" && pn.Name != "PROPERTY.ARRAY" && pn.Name != "PROPERTY.REFERENCE" {
			continue
		}
		p, err := decodeProperty(pn)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		c.Properties.Set(p.Name, p)
	}
	for _, mn := range n.childrenNamed("METHOD") {
		m, err := decodeMethod(mn)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		c.Methods.Set(m.Name, m)
	}
	return c, nil
}

func decodeMethod(n *xmlNode) (*cim.Method, error) {
	name, ok := n.attr("NAME")
	if !ok {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<METHOD> missing NAME attribute", Line: n.Line})
	}
	typeStr, _ := n.attr("TYPE")
	typ, _ := cim.ParseType(typeStr)
	m := cim.NewMethod(name, typ)
	for _, qn := range n.childrenNamed("QUALIFIER") {
		q, err := decodeQualifier(qn)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		m.Qualifiers.Set(q.Name, q)
	}
	for _, pn := range n.childrenNamed("PARAMETER") {
		name, ok := pn.attr("NAME")
		if !ok {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<PARAMETER> missing NAME attribute", Line: pn.Line})
		}
		ptypeStr, _ := pn.attr("TYPE")
		ptyp, _ := cim.ParseType(ptypeStr)
		m.Parameters.Set(name, &cim.Parameter{Name: name, Type: ptyp, Qualifiers: cim.NewOrderedMap[*cim.Qualifier]()})
	}
	return m, nil
}

// encodeClass writes a <CLASS> element, used by GetClass-family
// responses' symmetric client-side test fixtures and by any future
// CreateClass/ModifyClass support; the schema editing operations
// themselves are out of scope for this client.
func encodeClass(w io.Writer, c *cim.Class) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(`<CLASS NAME="`)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, c.ClassName) })
	cw.WriteString(`"`)
	if c.Superclass != "" {
		cw.WriteString(` SUPERCLASS="`)
		cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, c.Superclass) })
		cw.WriteString(`"`)
	}
	cw.WriteString(">")
	cw.Call(func(w io.Writer) (int, error) { return encodeQualifiers(w, c.Qualifiers.Values()) })
	for _, name := range c.Properties.Keys() {
		p, _ := c.Properties.Get(name)
		cw.Call(func(w io.Writer) (int, error) { return encodeProperty(w, p) })
	}
	for _, name := range c.Methods.Keys() {
		m, _ := c.Methods.Get(name)
		cw.Call(func(w io.Writer) (int, error) { return encodeMethod(w, m) })
	}
	cw.WriteString("</CLASS>")
	return cw.Result()
}

func encodeMethod(w io.Writer, m *cim.Method) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(`<METHOD NAME="`)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, m.Name) })
	cw.Fprintf(`" TYPE="%s">`, m.ReturnType.String())
	cw.Call(func(w io.Writer) (int, error) { return encodeQualifiers(w, m.Qualifiers.Values()) })
	for _, name := range m.Parameters.Keys() {
		p, _ := m.Parameters.Get(name)
		cw.Call(func(w io.Writer) (int, error) { return encodeParameter(w, p) })
	}
	cw.WriteString("</METHOD>")
	return cw.Result()
}

func encodeParameter(w io.Writer, p *cim.Parameter) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(`<PARAMETER NAME="`)
	cw.Call(func(w io.Writer) (int, error) { return writeEscaped(w, p.Name) })
	cw.Fprintf(`" TYPE="%s">`, p.Type.String())
	cw.Call(func(w io.Writer) (int, error) { return encodeQualifiers(w, p.Qualifiers.Values()) })
	cw.WriteString("</PARAMETER>")
	return cw.Result()
}
