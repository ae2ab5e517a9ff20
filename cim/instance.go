package cim

// Instance is a CIM instance: a typed, named bag of [Property] values
// plus its own qualifiers and an optional object path.
//
// Invariant: when Path is non-nil, Path.ClassName must equal ClassName,
// case-insensitively; callers constructing an Instance with SetPath are
// responsible for this. The decoder never sets Path on a decoded
// Instance, and Connection.ModifyInstance rejects a mismatch with a
// ModelError.
type Instance struct {
	ClassName  string
	Properties *OrderedMap[*Property]
	Qualifiers *qualifiers
	Path       *InstanceName
}

// NewInstance returns an empty Instance of the given class.
func NewInstance(className string) *Instance {
	return &Instance{
		ClassName:  className,
		Properties: NewOrderedMap[*Property](),
		Qualifiers: newQualifiers(),
	}
}

// SetProperty inserts or replaces a property, preserving insertion order.
func (i *Instance) SetProperty(p *Property) *Instance {
	if i.Properties == nil {
		i.Properties = NewOrderedMap[*Property]()
	}
	i.Properties.Set(p.Name, p)
	return i
}

// Property looks up a property case-insensitively.
func (i *Instance) Property(name string) (*Property, bool) {
	if i == nil {
		return nil, false
	}
	return i.Properties.Get(name)
}

// SetPath attaches path to the instance. The caller must ensure
// path.ClassName matches i.ClassName case-insensitively; SetPath does
// not check it, and Connection.ModifyInstance returns a ModelError for
// a mismatch before sending.
func (i *Instance) SetPath(path *InstanceName) *Instance {
	i.Path = path
	return i
}

// Clone returns a deep copy of i.
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	i2 := &Instance{ClassName: i.ClassName, Path: i.Path.Clone()}
	if i.Properties != nil {
		i2.Properties = NewOrderedMap[*Property]()
		i.Properties.Range(func(name string, p *Property) bool {
			i2.Properties.Set(name, p.Clone())
			return true
		})
	}
	i2.Qualifiers = cloneQualifiers(i.Qualifiers)
	return i2
}

// Equal performs a deep, value-wise comparison of two instances: class
// name case-insensitively, properties by name (case-insensitive) and
// structural equality in any order, qualifiers likewise, and paths via
// [InstanceName.Equal].
func (i *Instance) Equal(o *Instance) bool {
	if i == nil || o == nil {
		return i == o
	}
	if !Name(i.ClassName).Equal(Name(o.ClassName)) {
		return false
	}
	if i.Properties.Len() != o.Properties.Len() {
		return false
	}
	eq := true
	i.Properties.Range(func(name string, p *Property) bool {
		op, ok := o.Property(name)
		if !ok || !p.Equal(op) {
			eq = false
			return false
		}
		return true
	})
	if !eq {
		return false
	}
	if !qualifiersEqual(i.Qualifiers, o.Qualifiers) {
		return false
	}
	if (i.Path == nil) != (o.Path == nil) {
		return false
	}
	return i.Path == nil || i.Path.Equal(o.Path)
}
