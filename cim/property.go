package cim

// EmbeddedKind distinguishes whether a string/object-typed property
// carries an embedded CIM instance, an embedded CIM class, or neither.
type EmbeddedKind uint8

const (
	EmbeddedNone EmbeddedKind = iota
	EmbeddedInstance
	EmbeddedObject
)

// Property is a single named, typed value slot on a [Instance] or [Class].
//
// Invariant: IsArray iff Value is a non-nil *[Array] (or Value is nil and
// the slot is declared array-typed via IsArray); ArraySize is only
// meaningful when IsArray is true. ReferenceClass is required iff
// Type == TypeReference.
type Property struct {
	Name           string
	Value          Value
	Type           Type
	ReferenceClass string
	Embedded       EmbeddedKind
	IsArray        bool
	ArraySize      *uint32
	Propagated     bool
	Qualifiers     *qualifiers
}

// NewProperty returns a scalar Property of the given type.
func NewProperty(name string, typ Type, val Value) *Property {
	return &Property{Name: name, Type: typ, Value: val, Qualifiers: newQualifiers()}
}

// SetQualifier attaches or replaces a qualifier on the property.
func (p *Property) SetQualifier(q *Qualifier) {
	if p.Qualifiers == nil {
		p.Qualifiers = newQualifiers()
	}
	p.Qualifiers.Set(q.Name, q)
}

// Clone returns a deep copy of p.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	p2 := *p
	if p.ArraySize != nil {
		sz := *p.ArraySize
		p2.ArraySize = &sz
	}
	if arr, ok := p.Value.(*Array); ok && arr != nil {
		items := make([]Value, len(arr.Items))
		copy(items, arr.Items)
		p2.Value = &Array{Elem: arr.Elem, Items: items}
	}
	p2.Qualifiers = cloneQualifiers(p.Qualifiers)
	return &p2
}

// Equal compares two properties structurally.
func (p *Property) Equal(o *Property) bool {
	if p == nil || o == nil {
		return p == o
	}
	if !Name(p.Name).Equal(Name(o.Name)) ||
		p.Type != o.Type ||
		p.ReferenceClass != o.ReferenceClass ||
		p.Embedded != o.Embedded ||
		p.IsArray != o.IsArray ||
		p.Propagated != o.Propagated {
		return false
	}
	if (p.ArraySize == nil) != (o.ArraySize == nil) {
		return false
	}
	if p.ArraySize != nil && *p.ArraySize != *o.ArraySize {
		return false
	}
	if p.Value == nil || o.Value == nil {
		if p.Value != o.Value {
			return false
		}
	} else if !p.Value.Equal(o.Value) {
		return false
	}
	return qualifiersEqual(p.Qualifiers, o.Qualifiers)
}

// Parameter is a single named, typed input or output parameter of a
// CIM method. Its shape mirrors Property; Go keeps them distinct types
// because DSP0201 encodes them with different element names
// (IPARAMVALUE/PARAMVALUE vs PROPERTY).
type Parameter struct {
	Name           string
	Type           Type
	ReferenceClass string
	IsArray        bool
	ArraySize      *uint32
	Qualifiers     *qualifiers
}

// Clone returns a deep copy of pm.
func (pm *Parameter) Clone() *Parameter {
	if pm == nil {
		return nil
	}
	pm2 := *pm
	if pm.ArraySize != nil {
		sz := *pm.ArraySize
		pm2.ArraySize = &sz
	}
	pm2.Qualifiers = cloneQualifiers(pm.Qualifiers)
	return &pm2
}

// Equal compares two parameter declarations structurally.
func (pm *Parameter) Equal(o *Parameter) bool {
	if pm == nil || o == nil {
		return pm == o
	}
	return Name(pm.Name).Equal(Name(o.Name)) &&
		pm.Type == o.Type &&
		pm.ReferenceClass == o.ReferenceClass &&
		pm.IsArray == o.IsArray &&
		qualifiersEqual(pm.Qualifiers, o.Qualifiers)
}

// Method is a CIM method declaration on a class, or the result of an
// extrinsic invocation carrying its declared in/out Parameters.
type Method struct {
	Name       string
	ReturnType Type
	Parameters *OrderedMap[*Parameter]
	Qualifiers *qualifiers
}

// NewMethod returns an empty Method declaration named name.
func NewMethod(name string, returnType Type) *Method {
	return &Method{Name: name, ReturnType: returnType, Parameters: NewOrderedMap[*Parameter](), Qualifiers: newQualifiers()}
}

// Clone returns a deep copy of m.
func (m *Method) Clone() *Method {
	if m == nil {
		return nil
	}
	m2 := &Method{Name: m.Name, ReturnType: m.ReturnType}
	if m.Parameters != nil {
		m2.Parameters = NewOrderedMap[*Parameter]()
		m.Parameters.Range(func(name string, p *Parameter) bool {
			m2.Parameters.Set(name, p.Clone())
			return true
		})
	}
	m2.Qualifiers = cloneQualifiers(m.Qualifiers)
	return m2
}

// Equal compares two method declarations structurally.
func (m *Method) Equal(o *Method) bool {
	if m == nil || o == nil {
		return m == o
	}
	if !Name(m.Name).Equal(Name(o.Name)) || m.ReturnType != o.ReturnType {
		return false
	}
	if m.Parameters.Len() != o.Parameters.Len() {
		return false
	}
	eq := true
	m.Parameters.Range(func(name string, p *Parameter) bool {
		op, ok := o.Parameters.Get(name)
		if !ok || !p.Equal(op) {
			eq = false
			return false
		}
		return true
	})
	return eq && qualifiersEqual(m.Qualifiers, o.Qualifiers)
}
