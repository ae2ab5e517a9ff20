package cim

import "strings"

// ClassName identifies a CIM class, optionally scoped to a namespace
// and host, without carrying any keybindings (unlike InstanceName).
type ClassName struct {
	ClassName string
	Host      string
	Namespace string
}

// Equal compares two class-only paths case-insensitively on class and
// host, and by normalized namespace.
func (c *ClassName) Equal(o *ClassName) bool {
	if c == nil || o == nil {
		return c == o
	}
	return Name(c.ClassName).Equal(Name(o.ClassName)) &&
		strings.EqualFold(c.Host, o.Host) &&
		NormalizeNamespace(c.Namespace) == NormalizeNamespace(o.Namespace)
}

// Clone returns a copy of c.
func (c *ClassName) Clone() *ClassName {
	if c == nil {
		return nil
	}
	c2 := *c
	return &c2
}

// Class is a CIM class declaration: ordered properties, methods and
// qualifiers, plus an optional superclass name.
type Class struct {
	ClassName  string
	Superclass string
	Properties *OrderedMap[*Property]
	Methods    *OrderedMap[*Method]
	Qualifiers *qualifiers
	Path       *ClassName
}

// NewClass returns an empty Class declaration named className.
func NewClass(className string) *Class {
	return &Class{
		ClassName:  className,
		Properties: NewOrderedMap[*Property](),
		Methods:    NewOrderedMap[*Method](),
		Qualifiers: newQualifiers(),
	}
}

// Clone returns a deep copy of c.
func (c *Class) Clone() *Class {
	if c == nil {
		return nil
	}
	c2 := &Class{ClassName: c.ClassName, Superclass: c.Superclass, Path: c.Path.Clone()}
	c2.Properties = NewOrderedMap[*Property]()
	c.Properties.Range(func(name string, p *Property) bool {
		c2.Properties.Set(name, p.Clone())
		return true
	})
	c2.Methods = NewOrderedMap[*Method]()
	c.Methods.Range(func(name string, m *Method) bool {
		c2.Methods.Set(name, m.Clone())
		return true
	})
	c2.Qualifiers = cloneQualifiers(c.Qualifiers)
	return c2
}

// Equal compares two class declarations structurally.
func (c *Class) Equal(o *Class) bool {
	if c == nil || o == nil {
		return c == o
	}
	if !Name(c.ClassName).Equal(Name(o.ClassName)) || !Name(c.Superclass).Equal(Name(o.Superclass)) {
		return false
	}
	if c.Properties.Len() != o.Properties.Len() || c.Methods.Len() != o.Methods.Len() {
		return false
	}
	eq := true
	c.Properties.Range(func(name string, p *Property) bool {
		op, ok := o.Properties.Get(name)
		if !ok || !p.Equal(op) {
			eq = false
			return false
		}
		return true
	})
	if !eq {
		return false
	}
	c.Methods.Range(func(name string, m *Method) bool {
		om, ok := o.Methods.Get(name)
		if !ok || !m.Equal(om) {
			eq = false
			return false
		}
		return true
	})
	return eq && qualifiersEqual(c.Qualifiers, o.Qualifiers)
}
