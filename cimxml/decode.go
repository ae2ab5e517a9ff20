package cimxml

import (
	"strconv"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimerr"
)

// ReturnValue is the decoded, still operation-agnostic payload of a
// successful response. The operation engine interprets whichever of
// these fields is populated according to which intrinsic/extrinsic
// method it called — DSP0201 shapes a response's content around the
// request, not around a self-describing tag.
type ReturnValue struct {
	Instances          []*cim.Instance
	NamedInstances      []NamedInstance
	InstanceNames      []*cim.InstanceName
	Classes            []*cim.Class
	ClassNames         []string
	Values             []cim.Value
	EnumerationContext string
	EndOfSequence      bool
	OutParams          *cim.OrderedMap[cim.Value]
}

// Response is a fully decoded CIM-XML response document.
type Response struct {
	MessageID   string
	IsExtrinsic bool
	Method      string
	Return      *ReturnValue // nil when Err is set
	Err         *cimerr.CIMError
}

// DecodeResponse parses a CIM-XML response document and maps it either
// to a decoded ReturnValue or a CIMError, per DSP0201's SIMPLERSP grammar.
func DecodeResponse(body []byte) (*Response, error) {
	root, err := parseDocument(body)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if root.Name != "CIM" {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "expected root <CIM> element, got <" + root.Name + ">", Line: root.Line})
	}
	dtdVersion, _ := root.attr("DTDVERSION")
	if len(dtdVersion) < 2 || dtdVersion[0:2] != "2." {
		return nil, errtrace.Wrap(&cimerr.VersionError{DTDVersion: dtdVersion})
	}
	if err := root.requireChildrenIn("MESSAGE", "DECLARATION"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	msg, err := root.child("MESSAGE")
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	messageID, _ := msg.attr("ID")

	if err := msg.requireChildrenIn("SIMPLERSP", "MULTIRSP"); err != nil {
		return nil, errtrace.Wrap(err)
	}
	simpleRsp, err := msg.child("SIMPLERSP")
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if err := simpleRsp.requireChildrenIn("METHODRESPONSE", "IMETHODRESPONSE"); err != nil {
		return nil, errtrace.Wrap(err)
	}

	resp := &Response{MessageID: messageID}
	var body2 *xmlNode
	if n, err := simpleRsp.optChild("IMETHODRESPONSE"); err != nil {
		return nil, errtrace.Wrap(err)
	} else if n != nil {
		body2 = n
	} else {
		resp.IsExtrinsic = true
		body2, err = simpleRsp.child("METHODRESPONSE")
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	resp.Method, _ = body2.attr("NAME")

	if errNode, err := body2.optChild("ERROR"); err != nil {
		return nil, errtrace.Wrap(err)
	} else if errNode != nil {
		cimErr, err := decodeError(errNode)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		resp.Err = cimErr
		return resp, nil
	}

	rv, err := decodeReturnValue(body2, resp.IsExtrinsic)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	resp.Return = rv
	return resp, nil
}

func decodeError(n *xmlNode) (*cimerr.CIMError, error) {
	codeStr, ok := n.attr("CODE")
	if !ok {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<ERROR> missing CODE attribute", Line: n.Line})
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<ERROR> CODE is not an integer: " + codeStr, Line: n.Line})
	}
	desc, _ := n.attr("DESCRIPTION")
	var instances []*cim.Instance
	for _, in := range n.childrenNamed("INSTANCE") {
		inst, err := decodeInstance(in)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		instances = append(instances, inst)
	}
	return &cimerr.CIMError{Code: code, Description: desc, Instances: instances}, nil
}

// decodeReturnValue decodes the children of an I?METHODRESPONSE
// element: one optional IRETURNVALUE/RETURNVALUE plus any number of
// PARAMVALUE output parameters (extrinsic out-parameters, or the
// EnumerationContext/EndOfSequence pair of a pull-family intrinsic).
func decodeReturnValue(n *xmlNode, extrinsic bool) (*ReturnValue, error) {
	allowed := []string{"PARAMVALUE"}
	retElem := "IRETURNVALUE"
	if extrinsic {
		retElem = "RETURNVALUE"
	}
	allowed = append(allowed, retElem)
	if err := n.requireChildrenIn(allowed...); err != nil {
		return nil, errtrace.Wrap(err)
	}

	rv := &ReturnValue{OutParams: cim.NewOrderedMap[cim.Value]()}

	for _, pv := range n.childrenNamed("PARAMVALUE") {
		name, ok := pv.attr("NAME")
		if !ok {
			return nil, errtrace.Wrap(&cimerr.ParseError{Msg: "<PARAMVALUE> missing NAME attribute", Line: pv.Line})
		}
		typeStr, _ := pv.attr("PARAMTYPE")
		typ, _ := cim.ParseType(typeStr)
		v, err := decodeValue(pv, typ)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		rv.OutParams.Set(name, v)
	}

	if v, ok := rv.OutParams.Get("EnumerationContext"); ok && v != nil {
		rv.EnumerationContext = v.Render()
	}
	if v, ok := rv.OutParams.Get("EndOfSequence"); ok {
		if b, ok := v.(cim.Boolean); ok {
			rv.EndOfSequence = bool(b)
		}
	}

	retNode, err := n.optChild(retElem)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if retNode == nil {
		return rv, nil
	}
	if err := decodeReturnPayload(retNode, rv); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv, nil
}

// decodeReturnPayload inspects the children of an I?RETURNVALUE
// element to populate whichever ReturnValue field matches. Unknown
// element names are rejected, but any of the known CIM-XML response
// shapes (instance lists, path lists, class lists, scalar values,
// enumeration context envelopes) are accepted.
func decodeReturnPayload(n *xmlNode, rv *ReturnValue) error {
	if err := n.requireChildrenIn(
		"INSTANCE", "INSTANCENAME", "VALUE.NAMEDINSTANCE", "CLASS", "CLASSNAME",
		"VALUE", "VALUE.ARRAY", "VALUE.REFERENCE",
	); err != nil {
		return errtrace.Wrap(err)
	}
	typeStr, _ := n.attr("PARAMTYPE")
	typ, _ := cim.ParseType(typeStr)
	for _, c := range n.Children {
		switch c.Name {
		case "INSTANCE":
			inst, err := decodeInstance(c)
			if err != nil {
				return errtrace.Wrap(err)
			}
			rv.Instances = append(rv.Instances, inst)
		case "INSTANCENAME":
			path, err := decodeInstanceName(c)
			if err != nil {
				return errtrace.Wrap(err)
			}
			rv.InstanceNames = append(rv.InstanceNames, path)
		case "VALUE.NAMEDINSTANCE":
			path, inst, err := decodeValueNamedInstance(c)
			if err != nil {
				return errtrace.Wrap(err)
			}
			rv.NamedInstances = append(rv.NamedInstances, NamedInstance{Path: path, Instance: inst})
		case "CLASS":
			cls, err := decodeClass(c)
			if err != nil {
				return errtrace.Wrap(err)
			}
			rv.Classes = append(rv.Classes, cls)
		case "CLASSNAME":
			name, err := decodeClassName(c)
			if err != nil {
				return errtrace.Wrap(err)
			}
			rv.ClassNames = append(rv.ClassNames, name)
		case "VALUE":
			v, err := decodeValueText(typ, c.Text)
			if err != nil {
				return errtrace.Wrap(err)
			}
			rv.Values = append(rv.Values, v)
		case "VALUE.ARRAY":
			if err := c.requireChildrenIn("VALUE", "VALUE.NULL"); err != nil {
				return errtrace.Wrap(err)
			}
			for _, vc := range c.Children {
				if vc.Name == "VALUE.NULL" {
					rv.Values = append(rv.Values, nil)
					continue
				}
				v, err := decodeValueText(typ, vc.Text)
				if err != nil {
					return errtrace.Wrap(err)
				}
				rv.Values = append(rv.Values, v)
			}
		case "VALUE.REFERENCE":
			if err := c.requireChildrenIn("INSTANCENAME", "CLASSNAME"); err != nil {
				return errtrace.Wrap(err)
			}
			if in, err := c.optChild("INSTANCENAME"); err != nil {
				return errtrace.Wrap(err)
			} else if in != nil {
				path, err := decodeInstanceName(in)
				if err != nil {
					return errtrace.Wrap(err)
				}
				rv.InstanceNames = append(rv.InstanceNames, path)
			}
		}
	}
	return nil
}
