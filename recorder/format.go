// Package recorder implements the YAML-backed replay file format used
// to drive the Operation Engine without a live WBEM server: a
// [Recording] observes a connection's four recorder hooks and
// accumulates test-case scenarios; a [Replayer] loads scenarios back
// and stands in for a transport, synthesizing replies from the file.
package recorder

import (
	"fmt"

	"braces.dev/errtrace"
	"github.com/goccy/go-yaml"

	"github.com/tony23/pywbem/cim"
)

// Scenario is one full request/reply round trip, matching the
// structure the engine's recorder hooks observe: the typed operation
// call, the encoded HTTP request it produced, the HTTP reply a server
// (real or canned) returned, and the typed result or CIM status the
// engine derived from it.
type Scenario struct {
	PywbemRequest  PywbemRequest  `yaml:"pywbem_request"`
	HTTPRequest    HTTPRequest    `yaml:"http_request"`
	HTTPResponse   HTTPResponse   `yaml:"http_response"`
	PywbemResponse PywbemResponse `yaml:"pywbem_response"`
}

// PywbemRequest describes the typed call made on a connection.
type PywbemRequest struct {
	URL          string    `yaml:"url"`
	Creds        []string  `yaml:"creds,omitempty"`
	Namespace    *string   `yaml:"namespace,omitempty"`
	Timeout      int       `yaml:"timeout,omitempty"`
	Debug        bool      `yaml:"debug,omitempty"`
	StatsEnabled bool      `yaml:"stats-enabled,omitempty"`
	Operation    Operation `yaml:"operation"`
}

// Operation names the intrinsic or extrinsic method and its rendered
// parameter values, keyed the same way engine.Operation renders them.
type Operation struct {
	Method string            `yaml:"pywbem_method"`
	Params map[string]string `yaml:",inline"`
}

// PywbemResponse carries either the typed result of a successful call
// or the CIMError status code an error scenario expects, plus the
// wire byte counts §8's stats-verification scenarios check.
type PywbemResponse struct {
	Result     *CIMObject   `yaml:"result,omitempty"`
	Results    []*CIMObject `yaml:"results,omitempty"`
	CIMStatus  *int         `yaml:"cim_status,omitempty"`
	RequestLen *int         `yaml:"request_len,omitempty"`
	ReplyLen   *int         `yaml:"reply_len,omitempty"`
}

// HTTPRequest is the wire form of the request the engine sent.
type HTTPRequest struct {
	Verb    string            `yaml:"verb"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Data    string            `yaml:"data"`
}

// HTTPResponse is the wire form of the reply a server returned (or, in
// a Replayer, the reply to synthesize).
type HTTPResponse struct {
	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Data    string            `yaml:"data"`
}

// CIMObject decodes a pywbem_object-tagged YAML mapping into whichever
// concrete CIM type its discriminator names. Only the shapes this
// client round-trips through scalar properties are supported —
// embedded qualifiers and array-valued properties in a recorded
// fixture are not; a fixture needing those must be hand-written
// against the lower-level cimxml types instead.
type CIMObject struct {
	Kind         string
	InstanceName *InstanceNameFields
	Instance     *InstanceFields
	Property     *PropertyFields
	Class        *ClassFields
}

type discriminator struct {
	Kind string `yaml:"pywbem_object"`
}

// UnmarshalYAML implements goccy/go-yaml's BytesUnmarshaler, dispatching
// on the pywbem_object discriminator field.
func (o *CIMObject) UnmarshalYAML(b []byte) error {
	var d discriminator
	if err := yaml.Unmarshal(b, &d); err != nil {
		return errtrace.Wrap(err)
	}
	o.Kind = d.Kind
	switch d.Kind {
	case "CIMInstanceName":
		var f InstanceNameFields
		if err := yaml.Unmarshal(b, &f); err != nil {
			return errtrace.Wrap(err)
		}
		o.InstanceName = &f
	case "CIMInstance":
		var f InstanceFields
		if err := yaml.Unmarshal(b, &f); err != nil {
			return errtrace.Wrap(err)
		}
		o.Instance = &f
	case "CIMProperty":
		var f PropertyFields
		if err := yaml.Unmarshal(b, &f); err != nil {
			return errtrace.Wrap(err)
		}
		o.Property = &f
	case "CIMClass":
		var f ClassFields
		if err := yaml.Unmarshal(b, &f); err != nil {
			return errtrace.Wrap(err)
		}
		o.Class = &f
	default:
		return errtrace.Wrap(fmt.Errorf("recorder: unrecognized pywbem_object kind %q", d.Kind))
	}
	return nil
}

// MarshalYAML implements goccy/go-yaml's BytesMarshaler, re-attaching
// the pywbem_object discriminator on the way out.
func (o *CIMObject) MarshalYAML() ([]byte, error) {
	switch {
	case o.InstanceName != nil:
		return taggedMarshal("CIMInstanceName", o.InstanceName)
	case o.Instance != nil:
		return taggedMarshal("CIMInstance", o.Instance)
	case o.Property != nil:
		return taggedMarshal("CIMProperty", o.Property)
	case o.Class != nil:
		return taggedMarshal("CIMClass", o.Class)
	default:
		return []byte("null\n"), nil
	}
}

func taggedMarshal(kind string, fields any) ([]byte, error) {
	fb, err := yaml.Marshal(fields)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(fb, &m); err != nil {
		return nil, errtrace.Wrap(err)
	}
	m["pywbem_object"] = kind
	return errtrace.Wrap2(yaml.Marshal(m))
}

// ScalarValue is a typed scalar rendered the way cimxml renders a
// <VALUE> element: a TYPE name plus its text form.
type ScalarValue struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

func newScalarValue(v cim.Value) *ScalarValue {
	if v == nil {
		return nil
	}
	return &ScalarValue{Type: v.Type().String(), Value: v.Render()}
}

// ToCIM decodes s into a typed cim.Value.
func (s *ScalarValue) ToCIM() (cim.Value, error) {
	if s == nil {
		return nil, nil
	}
	typ, ok := cim.ParseType(s.Type)
	if !ok {
		return nil, errtrace.Wrap(fmt.Errorf("recorder: unknown scalar type %q", s.Type))
	}
	return errtrace.Wrap2(parseScalar(typ, s.Value))
}

func parseScalar(typ cim.Type, text string) (cim.Value, error) {
	switch {
	case typ.IsInteger():
		return cim.ParseInteger(typ, text)
	case typ == cim.TypeReal32 || typ == cim.TypeReal64:
		return cim.ParseReal(typ, text)
	case typ == cim.TypeBoolean:
		b, ok := cim.ParseBoolean(text)
		if !ok {
			return nil, fmt.Errorf("recorder: invalid boolean literal %q", text)
		}
		return b, nil
	case typ == cim.TypeChar16:
		rs := []rune(text)
		if len(rs) != 1 {
			return nil, fmt.Errorf("recorder: char16 value must be exactly one character")
		}
		return cim.Char16(rs[0]), nil
	case typ == cim.TypeDateTime:
		return cim.ParseDateTime(text)
	default:
		return cim.String(text), nil
	}
}

// InstanceNameFields is the pywbem_object=CIMInstanceName shape.
type InstanceNameFields struct {
	ClassName   string                 `yaml:"classname"`
	Namespace   string                 `yaml:"namespace,omitempty"`
	Host        string                 `yaml:"host,omitempty"`
	KeyBindings map[string]ScalarValue `yaml:"keybindings,omitempty"`
}

// ToCIM builds the *cim.InstanceName the fixture describes.
func (f *InstanceNameFields) ToCIM() (*cim.InstanceName, error) {
	if f == nil {
		return nil, nil
	}
	path := cim.NewInstanceName(f.ClassName, f.Namespace)
	path.Host = f.Host
	for name, sv := range f.KeyBindings {
		v, err := sv.ToCIM()
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		path.SetKey(name, v)
	}
	return path, nil
}

func instanceNameFieldsOf(path *cim.InstanceName) *InstanceNameFields {
	if path == nil {
		return nil
	}
	f := &InstanceNameFields{ClassName: path.ClassName, Namespace: path.Namespace, Host: path.Host}
	if n := path.NumKeys(); n > 0 {
		f.KeyBindings = make(map[string]ScalarValue, n)
		for _, name := range path.KeyNames() {
			v, _ := path.Key(name)
			f.KeyBindings[name] = *newScalarValue(v)
		}
	}
	return f
}

// InstanceFields is the pywbem_object=CIMInstance shape. Only scalar
// properties round-trip; see CIMObject's doc comment.
type InstanceFields struct {
	ClassName  string                 `yaml:"classname"`
	Path       *InstanceNameFields    `yaml:"path,omitempty"`
	Properties map[string]ScalarValue `yaml:"properties,omitempty"`
}

// ToCIM builds the *cim.Instance the fixture describes.
func (f *InstanceFields) ToCIM() (*cim.Instance, error) {
	if f == nil {
		return nil, nil
	}
	inst := cim.NewInstance(f.ClassName)
	for name, sv := range f.Properties {
		v, err := sv.ToCIM()
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		inst.SetProperty(cim.NewProperty(name, v.Type(), v))
	}
	if f.Path != nil {
		path, err := f.Path.ToCIM()
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		inst.SetPath(path)
	}
	return inst, nil
}

func instanceFieldsOf(inst *cim.Instance) *InstanceFields {
	if inst == nil {
		return nil
	}
	f := &InstanceFields{ClassName: inst.ClassName, Path: instanceNameFieldsOf(inst.Path)}
	if inst.Properties != nil && inst.Properties.Len() > 0 {
		f.Properties = make(map[string]ScalarValue, inst.Properties.Len())
		inst.Properties.Range(func(name string, p *cim.Property) bool {
			if sv := newScalarValue(p.Value); sv != nil {
				f.Properties[name] = *sv
			}
			return true
		})
	}
	return f
}

// PropertyFields is the pywbem_object=CIMProperty shape, used when a
// scenario's result is a single bare property (e.g. a GetProperty-style
// extrinsic return) rather than a whole instance.
type PropertyFields struct {
	Name  string      `yaml:"name"`
	Value ScalarValue `yaml:"value"`
}

// ClassFields is the pywbem_object=CIMClass shape. Only declared
// property types round-trip, not qualifiers or methods.
type ClassFields struct {
	ClassName  string            `yaml:"classname"`
	Superclass string            `yaml:"superclass,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"` // name -> TYPE name
}
