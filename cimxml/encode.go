package cimxml

import (
	"io"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimerr"
	"github.com/tony23/pywbem/internal/ioutil"
)

// Kind distinguishes an intrinsic CIM operation from an extrinsic
// (schema-defined) method invocation; they nest under different
// elements (IMETHODCALL vs METHODCALL).
type Kind uint8

const (
	Intrinsic Kind = iota
	Extrinsic
)

// Param is one named parameter of a request, encoded as an
// <IPARAMVALUE> (intrinsic) or <PARAMVALUE> (extrinsic) element. Value
// must be one of: cim.Value (plain scalar/array), *cim.InstanceName,
// *cim.ClassName, *cim.Instance, *cim.Class, or a *NamedInstance pair.
// A nil Value omits the parameter entirely, never emitting an empty
// element — absent parameters are invisible on the wire.
type Param struct {
	Name  string
	Value any
}

// NamedInstance pairs a path with an instance for VALUE.NAMEDINSTANCE
// parameters (used by CreateInstance-style bulk operations).
type NamedInstance struct {
	Path     *cim.InstanceName
	Instance *cim.Instance
}

// Request is the fully-formed shape of one CIM-XML request: a message
// envelope around either an intrinsic or extrinsic method call.
type Request struct {
	MessageID string
	Method    string
	Kind      Kind

	// Namespace is required for Intrinsic requests (LOCALNAMESPACEPATH).
	Namespace string

	// InstancePath/ClassPath select exactly one for Extrinsic requests
	// (LOCALINSTANCEPATH vs LOCALCLASSPATH).
	InstancePath *cim.InstanceName
	ClassPath    *cim.ClassName

	// Params are encoded in the given order; the server may accept them
	// in any order, but this client never reorders them, making
	// requests byte-for-byte reproducible for tests.
	Params []Param
}

// EncodeRequest writes req as a full CIM-XML document to w, returning
// the number of bytes written.
func EncodeRequest(w io.Writer, req *Request) (int, error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)

	cw.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	cw.WriteString(`<CIM CIMVERSION="2.0" DTDVERSION="2.0">`)
	cw.Fprintf(`<MESSAGE ID="%s" PROTOCOLVERSION="1.0">`, req.MessageID)
	cw.WriteString("<SIMPLEREQ>")

	switch req.Kind {
	case Intrinsic:
		cw.Call(func(w io.Writer) (int, error) { return encodeIMethodCall(w, req) })
	case Extrinsic:
		cw.Call(func(w io.Writer) (int, error) { return encodeMethodCall(w, req) })
	default:
		return 0, errtrace.Wrap(&cimerr.ModelError{Msg: "unknown request kind"})
	}

	cw.WriteString("</SIMPLEREQ></MESSAGE></CIM>")
	return cw.Result()
}

func encodeIMethodCall(w io.Writer, req *Request) (int, error) {
	if cim.NormalizeNamespace(req.Namespace) == "" {
		return 0, errtrace.Wrap(&cimerr.ModelError{Msg: "intrinsic request requires a non-empty namespace"})
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprintf(`<IMETHODCALL NAME="%s">`, req.Method)
	cw.Call(func(w io.Writer) (int, error) { return encodeLocalNamespacePath(w, req.Namespace) })
	for _, p := range req.Params {
		cw.Call(func(w io.Writer) (int, error) { return encodeParam(w, "IPARAMVALUE", p) })
	}
	cw.WriteString("</IMETHODCALL>")
	return cw.Result()
}

func encodeMethodCall(w io.Writer, req *Request) (int, error) {
	if req.InstancePath == nil && req.ClassPath == nil {
		return 0, errtrace.Wrap(&cimerr.ModelError{Msg: "extrinsic request requires InstancePath or ClassPath"})
	}
	if req.InstancePath != nil && req.ClassPath != nil {
		return 0, errtrace.Wrap(&cimerr.ModelError{Msg: "extrinsic request must not set both InstancePath and ClassPath"})
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprintf(`<METHODCALL NAME="%s">`, req.Method)
	if req.InstancePath != nil {
		cw.WriteString("<LOCALINSTANCEPATH>")
		cw.Call(func(w io.Writer) (int, error) { return encodeLocalNamespacePath(w, req.InstancePath.Namespace) })
		cw.Call(func(w io.Writer) (int, error) { return encodeInstanceName(w, req.InstancePath) })
		cw.WriteString("</LOCALINSTANCEPATH>")
	} else {
		cw.WriteString("<LOCALCLASSPATH>")
		cw.Call(func(w io.Writer) (int, error) { return encodeLocalNamespacePath(w, req.ClassPath.Namespace) })
		cw.Call(func(w io.Writer) (int, error) { return encodeClassName(w, req.ClassPath.ClassName) })
		cw.WriteString("</LOCALCLASSPATH>")
	}
	for _, p := range req.Params {
		cw.Call(func(w io.Writer) (int, error) { return encodeParam(w, "PARAMVALUE", p) })
	}
	cw.WriteString("</METHODCALL>")
	return cw.Result()
}

// encodeParam writes one parameter under elemName ("IPARAMVALUE" or
// "PARAMVALUE"), choosing its inner element from the concrete type of
// p.Value, or writes nothing at all when p.Value is nil.
func encodeParam(w io.Writer, elemName string, p Param) (int, error) {
	if p.Value == nil {
		return 0, nil
	}
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprintf(`<%s NAME="%s">`, elemName, p.Name)
	var err error
	switch v := p.Value.(type) {
	case *cim.Array:
		cw.Call(func(w io.Writer) (int, error) { return encodeValueArray(w, v.Items) })
	case cim.ReferenceValue:
		cw.Call(func(w io.Writer) (int, error) { return encodeValueReference(w, v.Path) })
	case cim.Value:
		cw.Call(func(w io.Writer) (int, error) { return encodeValue(w, v) })
	case *cim.InstanceName:
		cw.Call(func(w io.Writer) (int, error) { return encodeValueReference(w, v) })
	case *cim.ClassName:
		cw.Call(func(w io.Writer) (int, error) { return encodeClassName(w, v.ClassName) })
	case *cim.Instance:
		cw.Call(func(w io.Writer) (int, error) { return encodeInstance(w, v) })
	case *cim.Class:
		cw.Call(func(w io.Writer) (int, error) { return encodeClass(w, v) })
	case *NamedInstance:
		cw.Call(func(w io.Writer) (int, error) { return encodeValueNamedInstance(w, v.Path, v.Instance) })
	default:
		err = errtrace.Wrap(&cimerr.ModelError{Msg: "unsupported parameter value type"})
	}
	if err != nil {
		return cw.Count(), errtrace.Wrap(err)
	}
	cw.Fprintf(`</%s>`, elemName)
	return cw.Result()
}
