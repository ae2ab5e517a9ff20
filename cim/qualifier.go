package cim

// Qualifier is a CIM qualifier value attached to a class, property,
// method or parameter (e.g. [Key], [Description]).
type Qualifier struct {
	Name      string
	Value     Value
	Type      Type
	IsArray   bool
	Propagated bool
	Overridable bool
	ToSubclass  bool
}

// Clone returns a copy of q.
func (q *Qualifier) Clone() *Qualifier {
	if q == nil {
		return nil
	}
	q2 := *q
	return &q2
}

// Equal compares two qualifiers by name (case-insensitive) and value.
func (q *Qualifier) Equal(o *Qualifier) bool {
	if q == nil || o == nil {
		return q == o
	}
	if !Name(q.Name).Equal(Name(o.Name)) || q.Type != o.Type || q.IsArray != o.IsArray {
		return false
	}
	if q.Value == nil || o.Value == nil {
		return q.Value == o.Value
	}
	return q.Value.Equal(o.Value)
}

// QualifierDeclaration is a CIM qualifier's schema-level declaration:
// its type, default value, applicable scopes, and flavors.
type QualifierDeclaration struct {
	Name      string
	Type      Type
	IsArray   bool
	Value     Value
	Scopes    []string // CLASS, PROPERTY, METHOD, PARAMETER, ASSOCIATION, ...
	Overridable bool
	Translatable bool
	ToSubclass   bool
	Flavors      []string
}

// Clone returns a deep copy of d.
func (d *QualifierDeclaration) Clone() *QualifierDeclaration {
	if d == nil {
		return nil
	}
	d2 := *d
	d2.Scopes = append([]string(nil), d.Scopes...)
	d2.Flavors = append([]string(nil), d.Flavors...)
	return &d2
}

// qualifiers is the ordered, case-insensitive container shared by
// instances, classes, properties, methods and parameters.
type qualifiers = OrderedMap[*Qualifier]

func newQualifiers() *qualifiers { return NewOrderedMap[*Qualifier]() }

func cloneQualifiers(m *qualifiers) *qualifiers {
	if m == nil {
		return nil
	}
	m2 := newQualifiers()
	m.Range(func(name string, q *Qualifier) bool {
		m2.Set(name, q.Clone())
		return true
	})
	return m2
}

func qualifiersEqual(a, b *qualifiers) bool {
	if a.Len() != b.Len() {
		return false
	}
	eq := true
	a.Range(func(name string, q *Qualifier) bool {
		oq, ok := b.Get(name)
		if !ok || !q.Equal(oq) {
			eq = false
			return false
		}
		return true
	})
	return eq
}
